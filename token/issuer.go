package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

// Type selects which secret signs or verifies a token.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
	TypeAPIKey  Type = "apikey"
)

// AccessTokenTTL is the lifetime of an access token.
const AccessTokenTTL = 7 * 24 * time.Hour

var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrMalformed        = errors.New("malformed token")
	ErrUnknownType      = errors.New("unknown token type")
)

// Secrets holds one HMAC secret per token type.
type Secrets struct {
	Access  string
	Refresh string
	APIKey  string
}

// Issuer signs and verifies the three token types, each with its own secret.
type Issuer struct {
	signers map[Type]Signer
	nowTime func() time.Time
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

// NewIssuer builds an Issuer. All three secrets are required and must differ.
func NewIssuer(secrets Secrets, options ...IssuerOption) (*Issuer, error) {
	if secrets.Access == "" || secrets.Refresh == "" || secrets.APIKey == "" {
		return nil, pkgerrors.New("[NewIssuer] all three secrets are required")
	}
	if secrets.Access == secrets.Refresh || secrets.Access == secrets.APIKey || secrets.Refresh == secrets.APIKey {
		return nil, pkgerrors.New("[NewIssuer] secrets must be distinct")
	}

	issuer := &Issuer{
		signers: map[Type]Signer{
			TypeAccess:  NewHMACSigner(secrets.Access),
			TypeRefresh: NewHMACSigner(secrets.Refresh),
			TypeAPIKey:  NewHMACSigner(secrets.APIKey),
		},
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(issuer)
	}
	return issuer, nil
}

// Sign stamps iat and a unique jti on claims, sets exp when ttl is positive and
// signs with the secret for t.
func (i *Issuer) Sign(t Type, claims Claims, ttl time.Duration) (string, error) {
	signer, ok := i.signers[t]
	if !ok {
		return "", pkgerrors.Wrapf(ErrUnknownType, "[Issuer.Sign] %q", t)
	}

	now := i.nowTime()
	reg := claims.Registered()
	reg.ID = uuid.NewString()
	reg.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		reg.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := signer.Sign(claims)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "[Issuer.Sign] %s", t)
	}
	return signed, nil
}

// Verify checks raw's signature with the secret for t and its expiry, filling claims.
// It returns ErrExpired or ErrInvalidSignature.
func (i *Issuer) Verify(t Type, raw string, claims Claims) error {
	signer, ok := i.signers[t]
	if !ok {
		return pkgerrors.Wrapf(ErrUnknownType, "[Issuer.Verify] %q", t)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowTime),
	)
	_, err := parser.ParseWithClaims(raw, claims, signer.GetVerificationKey)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return pkgerrors.Wrap(ErrInvalidSignature, err.Error())
	}
}

// Decode parses raw without checking its signature. Use it only to derive a lookup key.
func (i *Issuer) Decode(raw string, claims Claims) error {
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return pkgerrors.Wrap(ErrMalformed, err.Error())
	}
	return nil
}

func (i *Issuer) SignAccess(claims *AccessClaims) (string, error) {
	claims.Subject = claims.UserID
	return i.Sign(TypeAccess, claims, AccessTokenTTL)
}

func (i *Issuer) SignRefresh(claims *RefreshClaims) (string, error) {
	claims.Subject = claims.UserID
	return i.Sign(TypeRefresh, claims, 0)
}

func (i *Issuer) SignAPIKey(claims *APIKeyClaims) (string, error) {
	claims.Subject = claims.BotID
	return i.Sign(TypeAPIKey, claims, 0)
}

func (i *Issuer) VerifyAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.Verify(TypeAccess, raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *Issuer) VerifyRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.Verify(TypeRefresh, raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *Issuer) VerifyAPIKey(raw string) (*APIKeyClaims, error) {
	claims := &APIKeyClaims{}
	if err := i.Verify(TypeAPIKey, raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Now returns the issuer's clock.
func (i *Issuer) Now() time.Time {
	return i.nowTime()
}
