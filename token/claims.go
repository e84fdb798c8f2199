package token

import "github.com/golang-jwt/jwt/v5"

// Claims is implemented by every token payload the Issuer signs.
type Claims interface {
	jwt.Claims
	Registered() *jwt.RegisteredClaims
}

// AccessClaims is the payload of an access token. It carries the provider grant
// so the session can later be revoked at the provider.
type AccessClaims struct {
	UserID              string `json:"id"`
	ProviderAccessToken string `json:"access_token"`
	TokenType           string `json:"token_type"`
	ExpiresIn           int64  `json:"expires_in"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) Registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }

// RefreshClaims is the payload of a refresh token. Refresh tokens never expire;
// they are invalidated by rotation or session deletion.
type RefreshClaims struct {
	UserID               string `json:"id"`
	ProviderRefreshToken string `json:"refresh_token"`
	TokenType            string `json:"token_type"`
	ExpiresIn            int64  `json:"expires_in"`
	jwt.RegisteredClaims
}

func (c *RefreshClaims) Registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }

// APIKeyClaims is the payload of a bot API key.
type APIKeyClaims struct {
	BotID  string `json:"botId"`
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

func (c *APIKeyClaims) Registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }
