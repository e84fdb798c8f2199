package users

import (
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("user not found")

// Repo reads user records. Writes happen through the session store, which
// upserts users together with their sessions.
type Repo interface {
	GetUser(ctx context.Context, id string) (*User, error)
}
