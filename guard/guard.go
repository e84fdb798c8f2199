// Package guard validates request credentials. Each Strategy handles one kind
// of credential; a Dispatcher runs the strategies an operation accepts.
package guard

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-botlist-server/token"
)

// StrategyID names a Strategy in operation descriptors.
type StrategyID string

const (
	StrategyAccess   StrategyID = "access"
	StrategyRefresh  StrategyID = "refresh"
	StrategyAPIKey   StrategyID = "apikey"
	StrategyInternal StrategyID = "internal"
	StrategyNone     StrategyID = "none"
)

const (
	SchemeBearer   = "bearer"
	SchemeInternal = "internal"
)

// Credential is a parsed Authorization header.
type Credential struct {
	Scheme string // lower-cased
	Token  string
}

// ParseAuthorization splits "<scheme> <token>". A missing or malformed header
// yields an empty Credential.
func ParseAuthorization(header string) Credential {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 {
		return Credential{}
	}
	return Credential{
		Scheme: strings.ToLower(parts[0]),
		Token:  strings.TrimSpace(parts[1]),
	}
}

// Bearer returns the token when the scheme is Bearer, else "".
func (c Credential) Bearer() string {
	if c.Scheme != SchemeBearer {
		return ""
	}
	return c.Token
}

// Identity is what a successful validation establishes about the caller.
type Identity struct {
	Strategy StrategyID
	UserID   string
	BotID    string
	Bearer   string
	Internal bool

	Access  *token.AccessClaims
	Refresh *token.RefreshClaims
	APIKey  *token.APIKeyClaims
}

// Strategy validates one kind of credential. Implementations are read-only
// against their stores and keep no per-request state.
type Strategy interface {
	ID() StrategyID
	Validate(ctx context.Context, cred Credential) (*Identity, error)
}
