package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-botlist-server/discord"
	"github.com/jrsteele09/go-botlist-server/hashing"
	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
	"github.com/jrsteele09/go-botlist-server/internal/metrics"
	"github.com/jrsteele09/go-botlist-server/sessions"
	"github.com/jrsteele09/go-botlist-server/token"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Provider is the OAuth identity provider the service delegates login to.
type Provider interface {
	ExchangeCode(ctx context.Context, code string) (*discord.Grant, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*discord.Grant, error)
	Revoke(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, accessToken string) (*discord.Profile, error)
}

// Deps holds all dependencies for the SessionService
type Deps struct {
	Store    sessions.Store // Users and their sessions
	Provider Provider       // OAuth provider
	Issuer   *token.Issuer  // Local token signing
	Hasher   hashing.Hasher // Hashes tokens before they are stored
}

// TokenPair is returned to the client after login or refresh. ExpiresIn is an
// absolute unix time in milliseconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SessionService creates, rotates, lists and revokes login sessions.
type SessionService struct {
	deps    Deps
	metrics *metrics.Metrics
	logger  zerolog.Logger
	nowTime func() time.Time
}

// SessionServiceOption defines a function type to modify the SessionService instance.
type SessionServiceOption func(*SessionService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionServiceOption {
	return func(s *SessionService) {
		s.nowTime = nowFunc
	}
}

func WithMetrics(m *metrics.Metrics) SessionServiceOption {
	return func(s *SessionService) {
		s.metrics = m
	}
}

// NewSessionService initializes a new SessionService with required dependencies.
func NewSessionService(deps Deps, options ...SessionServiceOption) (*SessionService, error) {
	if deps.Store == nil {
		return nil, pkgerrors.New("[NewSessionService] Store is required")
	}
	if deps.Provider == nil {
		return nil, pkgerrors.New("[NewSessionService] Provider is required")
	}
	if deps.Issuer == nil {
		return nil, pkgerrors.New("[NewSessionService] Issuer is required")
	}
	if deps.Hasher == nil {
		return nil, pkgerrors.New("[NewSessionService] Hasher is required")
	}

	s := &SessionService{
		deps:    deps,
		logger:  log.With().Str("component", "auth").Logger(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// CreateSession exchanges an authorization code with the provider, upserts the
// user and stores a new session holding hashes of the returned tokens.
func (s *SessionService) CreateSession(ctx context.Context, code string) (pair *TokenPair, err error) {
	defer func() { s.metrics.RecordSession("create", err) }()

	grant, err := s.deps.Provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	profile, err := s.deps.Provider.CurrentUser(ctx, grant.AccessToken)
	if err != nil {
		return nil, err
	}

	minted, err := s.mint(profile.ID, grant)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[SessionService.CreateSession]")
	}
	session, err := s.deps.Store.CreateUserAndSession(ctx, profile.User(), minted.accessHash, minted.refreshHash)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[SessionService.CreateSession]")
	}

	s.logger.Info().Str("user_id", profile.ID).Str("session_id", session.ID).Msg("session created")
	return minted.pair, nil
}

// RefreshSession rotates the session whose refresh hash matches bearer. The
// bearer is the locally issued refresh token; claims are its verified payload.
func (s *SessionService) RefreshSession(ctx context.Context, claims *token.RefreshClaims, bearer string) (pair *TokenPair, err error) {
	defer func() { s.metrics.RecordSession("refresh", err) }()

	session, err := s.findSession(ctx, claims.UserID, sessions.RefreshHash, bearer)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	grant, err := s.deps.Provider.RefreshGrant(ctx, claims.ProviderRefreshToken)
	if err != nil {
		return nil, err
	}
	profile, err := s.deps.Provider.CurrentUser(ctx, grant.AccessToken)
	if err != nil {
		return nil, err
	}
	if profile.ID != claims.UserID {
		s.logger.Warn().Str("user_id", claims.UserID).Str("provider_user_id", profile.ID).Msg("refresh grant belongs to another user")
		return nil, apperrors.ErrInvalidRefreshToken
	}

	minted, err := s.mint(profile.ID, grant)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[SessionService.RefreshSession]")
	}
	err = s.deps.Store.ReplaceSessionHashes(ctx, session.RefreshTokenHash, minted.accessHash, minted.refreshHash, profile.User())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[SessionService.RefreshSession]")
	}

	s.logger.Info().Str("user_id", profile.ID).Str("session_id", session.ID).Msg("session rotated")
	return minted.pair, nil
}

// RevokeSession revokes the provider grant, then deletes the session whose
// access hash matches bearer. A provider failure aborts the revocation.
func (s *SessionService) RevokeSession(ctx context.Context, claims *token.AccessClaims, bearer string) (revoked bool, err error) {
	defer func() { s.metrics.RecordSession("revoke", err) }()

	if err := s.deps.Provider.Revoke(ctx, claims.ProviderAccessToken); err != nil {
		return false, err
	}

	session, err := s.findSession(ctx, claims.UserID, sessions.AccessHash, bearer)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, apperrors.ErrInvalidToken
	}
	if err := s.deps.Store.DeleteSessionByAccessTokenHash(ctx, session.AccessTokenHash); err != nil {
		return false, pkgerrors.Wrap(err, "[SessionService.RevokeSession]")
	}

	s.logger.Info().Str("user_id", claims.UserID).Str("session_id", session.ID).Msg("session revoked")
	return true, nil
}

// ListSessions returns a user's sessions. An empty set is ErrNoSessionsFound.
func (s *SessionService) ListSessions(ctx context.Context, userID string) ([]*sessions.Session, error) {
	list, err := s.deps.Store.ListSessionsForUser(ctx, userID)
	s.metrics.RecordSession("list", err)
	return list, err
}

// RevokeAllSessions deletes every session of a user, e.g. "log out everywhere".
// Provider grants are left to expire.
func (s *SessionService) RevokeAllSessions(ctx context.Context, userID string) (int, error) {
	n, err := s.deps.Store.DeleteSessionsForUser(ctx, userID)
	s.metrics.RecordSession("revoke_all", err)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "[SessionService.RevokeAllSessions]")
	}
	if n == 0 {
		return 0, apperrors.ErrNoSessionsFound
	}
	s.logger.Info().Str("user_id", userID).Int("count", n).Msg("all sessions revoked")
	return n, nil
}

// findSession scans the user's sessions for one whose hash verifies against
// bearer. It returns nil, nil when the user has none or none match.
func (s *SessionService) findSession(ctx context.Context, userID string, field sessions.HashField, bearer string) (*sessions.Session, error) {
	candidates, err := s.deps.Store.ListSessionsForUser(ctx, userID)
	if errors.Is(err, sessions.ErrNoSessionsFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[SessionService.findSession]")
	}
	return sessions.FindByToken(candidates, field, bearer, s.deps.Hasher.Verify), nil
}

type mintedTokens struct {
	pair        *TokenPair
	accessHash  string
	refreshHash string
}

// mint signs a fresh access/refresh pair around the provider grant and hashes both.
func (s *SessionService) mint(userID string, grant *discord.Grant) (*mintedTokens, error) {
	access, err := s.deps.Issuer.SignAccess(&token.AccessClaims{
		UserID:              userID,
		ProviderAccessToken: grant.AccessToken,
		TokenType:           grant.TokenType,
		ExpiresIn:           grant.ExpiresIn,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := s.deps.Issuer.SignRefresh(&token.RefreshClaims{
		UserID:               userID,
		ProviderRefreshToken: grant.RefreshToken,
		TokenType:            grant.TokenType,
		ExpiresIn:            grant.ExpiresIn,
	})
	if err != nil {
		return nil, err
	}

	accessHash, err := s.deps.Hasher.Hash(access)
	if err != nil {
		return nil, err
	}
	refreshHash, err := s.deps.Hasher.Hash(refresh)
	if err != nil {
		return nil, err
	}

	return &mintedTokens{
		pair: &TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresIn:    s.nowTime().Add(token.AccessTokenTTL).UnixMilli(),
		},
		accessHash:  accessHash,
		refreshHash: refreshHash,
	}, nil
}
