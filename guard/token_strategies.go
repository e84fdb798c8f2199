package guard

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-botlist-server/hashing"
	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
	"github.com/jrsteele09/go-botlist-server/sessions"
	"github.com/jrsteele09/go-botlist-server/token"
	pkgerrors "github.com/pkg/errors"
)

// SessionLister is the read side of sessions.Store the token strategies need.
type SessionLister interface {
	ListSessionsForUser(ctx context.Context, userID string) ([]*sessions.Session, error)
}

// AccessStrategy accepts a bearer access token that belongs to a live session.
type AccessStrategy struct {
	issuer  *token.Issuer
	store   SessionLister
	hasher  hashing.Hasher
	nowTime func() time.Time
}

func NewAccessStrategy(issuer *token.Issuer, store SessionLister, hasher hashing.Hasher) *AccessStrategy {
	return &AccessStrategy{issuer: issuer, store: store, hasher: hasher, nowTime: issuer.Now}
}

func (s *AccessStrategy) ID() StrategyID { return StrategyAccess }

func (s *AccessStrategy) Validate(ctx context.Context, cred Credential) (*Identity, error) {
	bearer := cred.Bearer()
	if bearer == "" {
		return nil, apperrors.ErrTokenRequired
	}

	claims, err := s.issuer.VerifyAccess(bearer)
	switch {
	case errors.Is(err, token.ErrExpired):
		return nil, apperrors.ErrExpiredToken
	case err != nil:
		return nil, apperrors.ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return nil, apperrors.ErrInvalidToken
	}
	if expired(claims.ExpiresAt, s.nowTime()) {
		return nil, apperrors.ErrExpiredToken
	}

	if err := matchSession(ctx, s.store, s.hasher, claims.UserID, sessions.AccessHash, bearer, apperrors.ErrInvalidToken); err != nil {
		return nil, err
	}
	return &Identity{Strategy: StrategyAccess, UserID: claims.UserID, Bearer: bearer, Access: claims}, nil
}

// RefreshStrategy accepts a bearer refresh token that belongs to a live session.
type RefreshStrategy struct {
	issuer  *token.Issuer
	store   SessionLister
	hasher  hashing.Hasher
	nowTime func() time.Time
}

func NewRefreshStrategy(issuer *token.Issuer, store SessionLister, hasher hashing.Hasher) *RefreshStrategy {
	return &RefreshStrategy{issuer: issuer, store: store, hasher: hasher, nowTime: issuer.Now}
}

func (s *RefreshStrategy) ID() StrategyID { return StrategyRefresh }

func (s *RefreshStrategy) Validate(ctx context.Context, cred Credential) (*Identity, error) {
	bearer := cred.Bearer()
	if bearer == "" {
		return nil, apperrors.ErrRefreshTokenRequired
	}

	claims, err := s.issuer.VerifyRefresh(bearer)
	switch {
	case errors.Is(err, token.ErrExpired):
		return nil, apperrors.ErrExpiredToken
	case err != nil:
		return nil, apperrors.ErrInvalidRefreshToken
	}
	if claims.ExpiresAt != nil && expired(claims.ExpiresAt, s.nowTime()) {
		return nil, apperrors.ErrExpiredToken
	}

	if err := matchSession(ctx, s.store, s.hasher, claims.UserID, sessions.RefreshHash, bearer, apperrors.ErrInvalidRefreshToken); err != nil {
		return nil, err
	}
	return &Identity{Strategy: StrategyRefresh, UserID: claims.UserID, Bearer: bearer, Refresh: claims}, nil
}

func expired(exp *jwt.NumericDate, now time.Time) bool {
	return !now.Before(exp.Time)
}

// matchSession returns UnknownToken when the user has no sessions and mismatch
// when none of them hold a hash of bearer.
func matchSession(ctx context.Context, store SessionLister, hasher hashing.Hasher, userID string, field sessions.HashField, bearer string, mismatch error) error {
	candidates, err := store.ListSessionsForUser(ctx, userID)
	if errors.Is(err, sessions.ErrNoSessionsFound) {
		return apperrors.ErrUnknownToken
	}
	if err != nil {
		return pkgerrors.Wrap(err, "[guard.matchSession]")
	}
	if sessions.FindByToken(candidates, field, bearer, hasher.Verify) == nil {
		return mismatch
	}
	return nil
}
