// Package apikey issues and verifies bot API keys. Only a hash of the current
// key is stored; issuing a new key invalidates the previous one.
package apikey

import (
	"context"
	"errors"

	"github.com/jrsteele09/go-botlist-server/bots"
	"github.com/jrsteele09/go-botlist-server/hashing"
	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
	"github.com/jrsteele09/go-botlist-server/token"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Service struct {
	bots   bots.Repo
	issuer *token.Issuer
	hasher hashing.Hasher
	logger zerolog.Logger
}

func NewService(repo bots.Repo, issuer *token.Issuer, hasher hashing.Hasher) (*Service, error) {
	if repo == nil || issuer == nil || hasher == nil {
		return nil, pkgerrors.New("[apikey.NewService] repo, issuer and hasher are required")
	}
	return &Service{
		bots:   repo,
		issuer: issuer,
		hasher: hasher,
		logger: log.With().Str("component", "apikey").Logger(),
	}, nil
}

// IssueAPIKey mints a key for an approved bot on behalf of userID and stores its hash.
func (s *Service) IssueAPIKey(ctx context.Context, botID, userID string) (string, error) {
	bot, err := s.bots.GetBot(ctx, botID)
	if errors.Is(err, bots.ErrBotNotFound) {
		return "", apperrors.ErrBotNotFound
	}
	if err != nil {
		return "", pkgerrors.Wrap(err, "[apikey.IssueAPIKey]")
	}
	if !bot.Approved() {
		return "", apperrors.ErrBotNotApproved
	}

	raw, err := s.issuer.SignAPIKey(&token.APIKeyClaims{BotID: bot.ID, UserID: userID})
	if err != nil {
		return "", pkgerrors.Wrap(err, "[apikey.IssueAPIKey]")
	}
	hashed, err := s.hasher.Hash(raw)
	if err != nil {
		return "", pkgerrors.Wrap(err, "[apikey.IssueAPIKey]")
	}
	if err := s.bots.SetAPIKeyHash(ctx, bot.ID, hashed); err != nil {
		return "", pkgerrors.Wrap(err, "[apikey.IssueAPIKey]")
	}

	s.logger.Info().Str("bot_id", bot.ID).Str("user_id", userID).Msg("api key issued")
	return raw, nil
}

// VerifyAPIKey reports whether raw is the bot's current key. Undecodable keys
// and bots without a key are InvalidApiKey.
func (s *Service) VerifyAPIKey(ctx context.Context, raw string) (bool, error) {
	claims := &token.APIKeyClaims{}
	if err := s.issuer.Decode(raw, claims); err != nil || claims.BotID == "" {
		return false, apperrors.ErrInvalidAPIKey
	}

	bot, err := s.bots.GetBot(ctx, claims.BotID)
	if errors.Is(err, bots.ErrBotNotFound) {
		return false, apperrors.ErrInvalidAPIKey
	}
	if err != nil {
		return false, pkgerrors.Wrap(err, "[apikey.VerifyAPIKey]")
	}
	if bot.APIKeyHash == "" {
		return false, apperrors.ErrInvalidAPIKey
	}
	return s.hasher.Verify(raw, bot.APIKeyHash), nil
}
