package sqlstore

import (
	"context"
	"database/sql"

	"github.com/jrsteele09/go-botlist-server/bots"
	"github.com/pkg/errors"
)

var _ bots.Repo = (*Store)(nil)

func (s *Store) GetBot(ctx context.Context, id string) (*bots.Bot, error) {
	query := `
		SELECT id, name, owner_id, status, api_key, created_at, updated_at
		FROM bots
		WHERE id = ?
	`

	var (
		b                    bots.Bot
		apiKey               sql.NullString
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(query), id).Scan(
		&b.ID,
		&b.Name,
		&b.OwnerID,
		&b.Status,
		&apiKey,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bots.ErrBotNotFound
		}
		return nil, errors.Wrap(err, "[sqlstore.GetBot]")
	}
	b.APIKeyHash = apiKey.String
	b.CreatedAt = fromMillis(createdAt)
	b.UpdatedAt = fromMillis(updatedAt)
	return &b, nil
}

func (s *Store) UpsertBot(ctx context.Context, bot *bots.Bot) error {
	if bot == nil || bot.ID == "" {
		return errors.New("[sqlstore.UpsertBot] bot id is required")
	}
	status := bot.Status
	if status == "" {
		status = bots.StatusPending
	}
	query := `
		INSERT INTO bots (id, name, owner_id, status, api_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			owner_id = excluded.owner_id,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	now := s.now()
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		bot.ID,
		bot.Name,
		bot.OwnerID,
		string(status),
		sql.NullString{String: bot.APIKeyHash, Valid: bot.APIKeyHash != ""},
		now,
		now,
	)
	return errors.Wrap(err, "[sqlstore.UpsertBot]")
}

func (s *Store) SetStatus(ctx context.Context, id string, status bots.Status) error {
	if !status.Valid() {
		return errors.Errorf("[sqlstore.SetStatus] invalid status %q", status)
	}
	return s.updateBot(ctx, `UPDATE bots SET status = ?, updated_at = ? WHERE id = ?`, string(status), s.now(), id)
}

func (s *Store) SetAPIKeyHash(ctx context.Context, id, hash string) error {
	return s.updateBot(ctx, `UPDATE bots SET api_key = ?, updated_at = ? WHERE id = ?`, hash, s.now(), id)
}

func (s *Store) updateBot(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return errors.Wrap(err, "[sqlstore.updateBot]")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[sqlstore.updateBot] rows affected")
	}
	if affected == 0 {
		return bots.ErrBotNotFound
	}
	return nil
}
