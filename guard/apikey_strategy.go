package guard

import (
	"context"
	"errors"

	"github.com/jrsteele09/go-botlist-server/bots"
	"github.com/jrsteele09/go-botlist-server/hashing"
	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
	"github.com/jrsteele09/go-botlist-server/token"
	pkgerrors "github.com/pkg/errors"
)

// BotReader is the read side of bots.Repo.
type BotReader interface {
	GetBot(ctx context.Context, id string) (*bots.Bot, error)
}

// APIKeyStrategy accepts the current API key of an approved bot.
type APIKeyStrategy struct {
	issuer *token.Issuer
	bots   BotReader
	hasher hashing.Hasher
}

func NewAPIKeyStrategy(issuer *token.Issuer, bots BotReader, hasher hashing.Hasher) *APIKeyStrategy {
	return &APIKeyStrategy{issuer: issuer, bots: bots, hasher: hasher}
}

func (s *APIKeyStrategy) ID() StrategyID { return StrategyAPIKey }

func (s *APIKeyStrategy) Validate(ctx context.Context, cred Credential) (*Identity, error) {
	bearer := cred.Bearer()
	if bearer == "" {
		return nil, apperrors.ErrAPIKeyRequired
	}

	// The signature is not checked here; the stored hash is the authority.
	claims := &token.APIKeyClaims{}
	if err := s.issuer.Decode(bearer, claims); err != nil || claims.BotID == "" {
		return nil, apperrors.ErrInvalidAPIKey
	}

	bot, err := s.bots.GetBot(ctx, claims.BotID)
	if errors.Is(err, bots.ErrBotNotFound) {
		return nil, apperrors.ErrBotNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[APIKeyStrategy.Validate]")
	}
	if !bot.Approved() {
		return nil, apperrors.ErrBotNotFound
	}
	if !s.hasher.Verify(bearer, bot.APIKeyHash) {
		return nil, apperrors.ErrInvalidAPIKey
	}

	return &Identity{Strategy: StrategyAPIKey, UserID: claims.UserID, BotID: bot.ID, Bearer: bearer, APIKey: claims}, nil
}
