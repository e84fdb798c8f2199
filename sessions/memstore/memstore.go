// Package memstore is an in-memory sessions.Store and bots.Repo for tests and
// local development.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-botlist-server/bots"
	"github.com/jrsteele09/go-botlist-server/sessions"
	"github.com/jrsteele09/go-botlist-server/users"
	"github.com/pkg/errors"
)

var (
	_ sessions.Store = (*Store)(nil)
	_ bots.Repo      = (*Store)(nil)
)

type Store struct {
	users    map[string]*users.User
	sessions map[string]*sessions.Session
	bots     map[string]*bots.Bot
	lock     sync.RWMutex
	nowTime  func() time.Time
}

// Option defines a function type to modify the Store instance.
type Option func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

func New(options ...Option) *Store {
	s := &Store{
		users:    make(map[string]*users.User),
		sessions: make(map[string]*sessions.Session),
		bots:     make(map[string]*bots.Bot),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Store) GetUser(_ context.Context, id string) (*users.User, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *Store) CreateUserAndSession(ctx context.Context, user *users.User, accessTokenHash, refreshTokenHash string) (*sessions.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, sessions.NewStoreError("create", err)
	}
	if user == nil || user.ID == "" {
		return nil, sessions.NewStoreError("create", errors.New("user id is required"))
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	for _, existing := range s.sessions {
		if existing.AccessTokenHash == accessTokenHash && existing.RefreshTokenHash == refreshTokenHash {
			return nil, sessions.NewStoreError("create", errors.New("duplicate session hashes"))
		}
	}

	now := s.nowTime()
	s.upsertUserLocked(user, now)

	session := &sessions.Session{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		AccessTokenHash:  accessTokenHash,
		RefreshTokenHash: refreshTokenHash,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.sessions[session.ID] = session
	copied := *session
	return &copied, nil
}

// upsertUserLocked writes provider-sourced fields and keeps directory-owned ones.
func (s *Store) upsertUserLocked(user *users.User, now time.Time) {
	existing, ok := s.users[user.ID]
	if !ok {
		created := *user
		created.CreatedAt = now
		created.UpdatedAt = now
		s.users[user.ID] = &created
		return
	}
	existing.Username = user.Username
	existing.Avatar = user.Avatar
	existing.Banner = user.Banner
	existing.UpdatedAt = now
}

func (s *Store) ListSessionsForUser(_ context.Context, userID string) ([]*sessions.Session, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var found []*sessions.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			copied := *session
			found = append(found, &copied)
		}
	}
	if len(found) == 0 {
		return nil, sessions.ErrNoSessionsFound
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].CreatedAt.Equal(found[j].CreatedAt) {
			return found[i].ID < found[j].ID
		}
		return found[i].CreatedAt.Before(found[j].CreatedAt)
	})
	return found, nil
}

func (s *Store) ReplaceSessionHashes(_ context.Context, oldRefreshTokenHash, newAccessTokenHash, newRefreshTokenHash string, user *users.User) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, session := range s.sessions {
		if session.RefreshTokenHash != oldRefreshTokenHash {
			continue
		}
		now := s.nowTime()
		session.AccessTokenHash = newAccessTokenHash
		session.RefreshTokenHash = newRefreshTokenHash
		session.UpdatedAt = now
		if user != nil {
			s.upsertUserLocked(user, now)
		}
		return nil
	}
	return sessions.ErrSessionNotFound
}

func (s *Store) DeleteSessionByAccessTokenHash(_ context.Context, accessTokenHash string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for id, session := range s.sessions {
		if session.AccessTokenHash == accessTokenHash {
			delete(s.sessions, id)
			return nil
		}
	}
	return sessions.ErrSessionNotFound
}

func (s *Store) DeleteSessionsForUser(_ context.Context, userID string) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	deleted := 0
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) GetBot(_ context.Context, id string) (*bots.Bot, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	b, ok := s.bots[id]
	if !ok {
		return nil, bots.ErrBotNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *Store) UpsertBot(_ context.Context, bot *bots.Bot) error {
	if bot == nil || bot.ID == "" {
		return errors.New("[memstore.UpsertBot] bot id is required")
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.nowTime()
	copied := *bot
	if existing, ok := s.bots[bot.ID]; ok {
		copied.CreatedAt = existing.CreatedAt
	} else {
		copied.CreatedAt = now
	}
	if copied.Status == "" {
		copied.Status = bots.StatusPending
	}
	copied.UpdatedAt = now
	s.bots[bot.ID] = &copied
	return nil
}

func (s *Store) SetStatus(_ context.Context, id string, status bots.Status) error {
	if !status.Valid() {
		return errors.Errorf("[memstore.SetStatus] invalid status %q", status)
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	b, ok := s.bots[id]
	if !ok {
		return bots.ErrBotNotFound
	}
	b.Status = status
	b.UpdatedAt = s.nowTime()
	return nil
}

func (s *Store) SetAPIKeyHash(_ context.Context, id, hash string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	b, ok := s.bots[id]
	if !ok {
		return bots.ErrBotNotFound
	}
	b.APIKeyHash = hash
	b.UpdatedAt = s.nowTime()
	return nil
}
