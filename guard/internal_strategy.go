package guard

import (
	"context"
	"crypto/subtle"

	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
)

// InternalStrategy accepts "Authorization: Internal <key>" from sibling services.
// An empty key disables it.
type InternalStrategy struct {
	key []byte
}

func NewInternalStrategy(key string) *InternalStrategy {
	return &InternalStrategy{key: []byte(key)}
}

func (s *InternalStrategy) ID() StrategyID { return StrategyInternal }

func (s *InternalStrategy) Validate(_ context.Context, cred Credential) (*Identity, error) {
	if cred.Scheme != SchemeInternal || cred.Token == "" {
		return nil, apperrors.ErrTokenRequired
	}
	if len(s.key) == 0 || subtle.ConstantTimeCompare([]byte(cred.Token), s.key) != 1 {
		return nil, apperrors.ErrInvalidToken
	}
	return &Identity{Strategy: StrategyInternal, Internal: true}, nil
}
