// Package discord talks to Discord's OAuth2 and user endpoints.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
	"github.com/jrsteele09/go-botlist-server/internal/metrics"
	"github.com/jrsteele09/go-botlist-server/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultAPIBaseURL is Discord's REST root.
const DefaultAPIBaseURL = "https://discord.com/api"

// Endpoints are the three OAuth2 URLs plus the profile URL.
type Endpoints struct {
	Token  string
	Revoke string
	User   string
}

// EndpointsFor derives the endpoints from an API base URL.
func EndpointsFor(baseURL string) Endpoints {
	base := strings.TrimRight(baseURL, "/")
	return Endpoints{
		Token:  base + "/oauth2/token",
		Revoke: base + "/oauth2/token/revoke",
		User:   base + "/users/@me",
	}
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	Endpoints    Endpoints
}

// Grant is a provider token response.
type Grant struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64 // seconds
	Scope        string
}

// Profile is the subset of a Discord user object the directory keeps.
type Profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
	Banner     string `json:"banner"`
}

// User maps the profile onto a directory user.
func (p *Profile) User() *users.User {
	return &users.User{
		ID:       p.ID,
		Username: p.Username,
		Avatar:   p.Avatar,
		Banner:   p.Banner,
	}
}

// Client calls Discord once per operation with no retries. Every failure is
// reported as UnableToReachProvider and response bodies are never surfaced.
type Client struct {
	oauth      oauth2.Config
	endpoints  Endpoints
	httpClient *http.Client
	metrics    *metrics.Metrics
	nowTime    func() time.Time
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient sets the transport used for every provider call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

func NewClient(cfg Config, options ...Option) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURI == "" {
		return nil, fmt.Errorf("[discord.NewClient] client id, secret and redirect uri are required")
	}
	if cfg.Endpoints == (Endpoints{}) {
		cfg.Endpoints = EndpointsFor(DefaultAPIBaseURL)
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"identify"}
	}

	c := &Client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.Endpoints.Token,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		endpoints:  cfg.Endpoints,
		httpClient: http.DefaultClient,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// ExchangeCode trades an authorization code for a grant.
func (c *Client) ExchangeCode(ctx context.Context, code string) (grant *Grant, err error) {
	defer c.observe("exchange", time.Now(), &err)

	tok, err := c.oauth.Exchange(c.context(ctx), code)
	if err != nil {
		return nil, providerError("exchange", err)
	}
	return c.grantFrom(tok), nil
}

// RefreshGrant trades a provider refresh token for a new grant.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (grant *Grant, err error) {
	defer c.observe("refresh", time.Now(), &err)

	tok, err := c.oauth.TokenSource(c.context(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, providerError("refresh", err)
	}
	return c.grantFrom(tok), nil
}

// Revoke invalidates a provider access token.
func (c *Client) Revoke(ctx context.Context, accessToken string) (err error) {
	defer c.observe("revoke", time.Now(), &err)

	form := url.Values{
		"token":         {accessToken},
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.Revoke, strings.NewReader(form.Encode()))
	if err != nil {
		return providerError("revoke", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return providerError("revoke", err)
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return providerError("revoke", statusError(resp.StatusCode))
	}
	return nil
}

// CurrentUser fetches the profile owning accessToken.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (profile *Profile, err error) {
	defer c.observe("user", time.Now(), &err)

	client := oauth2.NewClient(c.context(ctx), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.User, nil)
	if err != nil {
		return nil, providerError("user", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, providerError("user", err)
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, providerError("user", statusError(resp.StatusCode))
	}

	profile = &Profile{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(profile); err != nil {
		return nil, providerError("user", err)
	}
	if profile.ID == "" {
		return nil, providerError("user", fmt.Errorf("profile without id"))
	}
	return profile, nil
}

// context routes oauth2's own requests through the configured client.
func (c *Client) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *Client) grantFrom(tok *oauth2.Token) *Grant {
	grant := &Grant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
	}
	if !tok.Expiry.IsZero() {
		grant.ExpiresIn = int64(math.Round(tok.Expiry.Sub(c.nowTime()).Seconds()))
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		grant.Scope = scope
	}
	return grant
}

func (c *Client) observe(call string, start time.Time, err *error) {
	c.metrics.ObserveProvider(call, start, *err)
}

// providerError hides everything but the status code of a failed token call.
func providerError(call string, err error) error {
	cause := err
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		cause = statusError(re.Response.StatusCode)
	}
	log.Warn().Str("component", "discord").Str("call", call).Err(cause).Msg("provider call failed")
	return apperrors.WithCause(apperrors.KindUnableToReachProvider, "unable to reach provider", cause)
}

func statusError(code int) error {
	return fmt.Errorf("provider responded %d", code)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
