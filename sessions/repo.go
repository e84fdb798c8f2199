package sessions

import (
	"context"

	"github.com/jrsteele09/go-botlist-server/users"
)

// Store persists users and their sessions. Implementations must make
// CreateUserAndSession and ReplaceSessionHashes atomic, and must let only one
// of several concurrent ReplaceSessionHashes calls for the same old hash succeed.
type Store interface {
	users.Repo

	// CreateUserAndSession upserts user by id and inserts a new session for them
	CreateUserAndSession(ctx context.Context, user *users.User, accessTokenHash, refreshTokenHash string) (*Session, error)

	// ListSessionsForUser returns the user's sessions, or ErrNoSessionsFound
	ListSessionsForUser(ctx context.Context, userID string) ([]*Session, error)

	// ReplaceSessionHashes swaps both hashes of the session currently holding
	// oldRefreshTokenHash and refreshes the user's profile fields when user is
	// not nil. ErrSessionNotFound when no row matched.
	ReplaceSessionHashes(ctx context.Context, oldRefreshTokenHash, newAccessTokenHash, newRefreshTokenHash string, user *users.User) error

	// DeleteSessionByAccessTokenHash removes one session, or ErrSessionNotFound
	DeleteSessionByAccessTokenHash(ctx context.Context, accessTokenHash string) error

	// DeleteSessionsForUser removes every session of a user and returns how many
	DeleteSessionsForUser(ctx context.Context, userID string) (int, error)
}
