package sqlstore

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-botlist-server/sessions"
	"github.com/jrsteele09/go-botlist-server/users"
	"github.com/pkg/errors"
)

var _ sessions.Store = (*Store)(nil)

func (s *Store) CreateUserAndSession(ctx context.Context, user *users.User, accessTokenHash, refreshTokenHash string) (*sessions.Session, error) {
	if user == nil || user.ID == "" {
		return nil, sessions.NewStoreError("create", errors.New("user id is required"))
	}

	now := s.now()
	session := &sessions.Session{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		AccessTokenHash:  accessTokenHash,
		RefreshTokenHash: refreshTokenHash,
		CreatedAt:        fromMillis(now),
		UpdatedAt:        fromMillis(now),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.upsertUser(ctx, tx, user, now); err != nil {
			return err
		}
		query := `
			INSERT INTO sessions (id, user_id, access_token_hash, refresh_token_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, s.rebind(query),
			session.ID,
			session.UserID,
			session.AccessTokenHash,
			session.RefreshTokenHash,
			now,
			now,
		)
		return errors.Wrap(err, "insert session")
	})
	if err != nil {
		return nil, sessions.NewStoreError("create", err)
	}
	return session, nil
}

func (s *Store) ListSessionsForUser(ctx context.Context, userID string) ([]*sessions.Session, error) {
	query := `
		SELECT id, user_id, access_token_hash, refresh_token_hash, created_at, updated_at
		FROM sessions
		WHERE user_id = ?
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), userID)
	if err != nil {
		return nil, sessions.NewStoreError("list", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var found []*sessions.Session
	for rows.Next() {
		var (
			session              sessions.Session
			createdAt, updatedAt int64
		)
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.AccessTokenHash,
			&session.RefreshTokenHash,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, sessions.NewStoreError("list", err)
		}
		session.CreatedAt = fromMillis(createdAt)
		session.UpdatedAt = fromMillis(updatedAt)
		found = append(found, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, sessions.NewStoreError("list", err)
	}
	if len(found) == 0 {
		return nil, sessions.ErrNoSessionsFound
	}
	return found, nil
}

// ReplaceSessionHashes conditions the update on the old hash, so concurrent
// rotations of one session see at most one affected row between them.
func (s *Store) ReplaceSessionHashes(ctx context.Context, oldRefreshTokenHash, newAccessTokenHash, newRefreshTokenHash string, user *users.User) error {
	now := s.now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE sessions
			SET access_token_hash = ?, refresh_token_hash = ?, updated_at = ?
			WHERE refresh_token_hash = ?
		`
		result, err := tx.ExecContext(ctx, s.rebind(query), newAccessTokenHash, newRefreshTokenHash, now, oldRefreshTokenHash)
		if err != nil {
			return errors.Wrap(err, "update session")
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "rows affected")
		}
		if affected == 0 {
			return sessions.ErrSessionNotFound
		}
		if user == nil {
			return nil
		}
		return s.upsertUser(ctx, tx, user, now)
	})
	if errors.Is(err, sessions.ErrSessionNotFound) {
		return sessions.ErrSessionNotFound
	}
	return sessions.NewStoreError("replace", err)
}

func (s *Store) DeleteSessionByAccessTokenHash(ctx context.Context, accessTokenHash string) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE access_token_hash = ?`), accessTokenHash)
	if err != nil {
		return sessions.NewStoreError("delete", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return sessions.NewStoreError("delete", err)
	}
	if affected == 0 {
		return sessions.ErrSessionNotFound
	}
	return nil
}

func (s *Store) DeleteSessionsForUser(ctx context.Context, userID string) (int, error) {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE user_id = ?`), userID)
	if err != nil {
		return 0, sessions.NewStoreError("delete all", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, sessions.NewStoreError("delete all", err)
	}
	return int(affected), nil
}
