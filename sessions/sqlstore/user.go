package sqlstore

import (
	"context"
	"database/sql"

	"github.com/jrsteele09/go-botlist-server/sessions"
	"github.com/jrsteele09/go-botlist-server/users"
	"github.com/pkg/errors"
)

// Provider-sourced fields are refreshed on conflict; bio and permissions are directory-owned.
const upsertUserQuery = `
	INSERT INTO users (id, username, avatar, banner, bio, permissions, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		username = excluded.username,
		avatar = excluded.avatar,
		banner = excluded.banner,
		updated_at = excluded.updated_at
`

func (s *Store) upsertUser(ctx context.Context, tx *sql.Tx, user *users.User, now int64) error {
	_, err := tx.ExecContext(ctx, s.rebind(upsertUserQuery),
		user.ID,
		user.Username,
		user.Avatar,
		user.Banner,
		user.Bio,
		user.Permissions,
		now,
		now,
	)
	return errors.Wrap(err, "upsert user")
}

func (s *Store) GetUser(ctx context.Context, id string) (*users.User, error) {
	query := `
		SELECT id, username, avatar, banner, bio, permissions, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	var (
		u                    users.User
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(query), id).Scan(
		&u.ID,
		&u.Username,
		&u.Avatar,
		&u.Banner,
		&u.Bio,
		&u.Permissions,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrUserNotFound
		}
		return nil, sessions.NewStoreError("get user", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return &u, nil
}
