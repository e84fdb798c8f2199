package sessions

import (
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
)

// Session is one logged-in device. Only hashes of its two tokens are kept;
// the raw tokens are never recoverable from a Session.
type Session struct {
	ID               string    `json:"id"`                 // Unique session identifier (UUID)
	UserID           string    `json:"user_id"`            // Owning user
	AccessTokenHash  string    `json:"access_token_hash"`  // Hash of the current access token
	RefreshTokenHash string    `json:"refresh_token_hash"` // Hash of the current refresh token
	CreatedAt        time.Time `json:"created_at"`         // Login time
	UpdatedAt        time.Time `json:"updated_at"`         // Last rotation
}

// Store errors. The kinded ones are shared with the rest of the service.
var (
	ErrNoSessionsFound = apperrors.ErrNoSessionsFound
	ErrSessionNotFound = apperrors.ErrSessionNotFound
)

// StoreError wraps an unexpected failure of the underlying store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("session store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError returns nil when err is nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
