package bots

import (
	"context"
	"errors"
	"time"
)

// Status is a bot's review state.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusDenied   Status = "DENIED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied:
		return true
	}
	return false
}

var ErrBotNotFound = errors.New("bot not found")

// Bot is a listed bot. APIKeyHash holds the hash of its current API key, if any.
type Bot struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    string    `json:"owner_id"`
	Status     Status    `json:"status"`
	APIKeyHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Approved reports whether the bot passed review.
func (b *Bot) Approved() bool {
	return b.Status == StatusApproved
}

// Repo persists bots.
type Repo interface {
	GetBot(ctx context.Context, id string) (*Bot, error)
	UpsertBot(ctx context.Context, bot *Bot) error
	SetStatus(ctx context.Context, id string, status Status) error
	SetAPIKeyHash(ctx context.Context, id, hash string) error
}
