package auth_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-botlist-server/auth"
	"github.com/jrsteele09/go-botlist-server/discord"
	"github.com/jrsteele09/go-botlist-server/guard"
	"github.com/jrsteele09/go-botlist-server/hashing"
	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
	"github.com/jrsteele09/go-botlist-server/internal/metrics"
	"github.com/jrsteele09/go-botlist-server/sessions/memstore"
	"github.com/jrsteele09/go-botlist-server/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const testUserID = "80351110224678912"

// fakeProvider hands out numbered grants for testUserID.
type fakeProvider struct {
	lock      sync.Mutex
	grants    atomic.Int64
	revoked   []string
	failWith  error
	profileID string
}

func (p *fakeProvider) nextGrant() (*discord.Grant, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.failWith != nil {
		return nil, p.failWith
	}
	n := p.grants.Add(1)
	return &discord.Grant{
		AccessToken:  fmt.Sprintf("discord-access-%d", n),
		RefreshToken: fmt.Sprintf("discord-refresh-%d", n),
		TokenType:    "Bearer",
		ExpiresIn:    604800,
	}, nil
}

func (p *fakeProvider) ExchangeCode(_ context.Context, code string) (*discord.Grant, error) {
	if code == "" {
		return nil, apperrors.ErrUnableToReachProvider
	}
	return p.nextGrant()
}

func (p *fakeProvider) RefreshGrant(_ context.Context, _ string) (*discord.Grant, error) {
	return p.nextGrant()
}

func (p *fakeProvider) Revoke(_ context.Context, accessToken string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.revoked = append(p.revoked, accessToken)
	return nil
}

func (p *fakeProvider) CurrentUser(_ context.Context, _ string) (*discord.Profile, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.failWith != nil {
		return nil, p.failWith
	}
	id := testUserID
	if p.profileID != "" {
		id = p.profileID
	}
	return &discord.Profile{ID: id, Username: "nelly"}, nil
}

func (p *fakeProvider) fail(err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.failWith = err
}

type testFixture struct {
	now      time.Time
	provider *fakeProvider
	store    *memstore.Store
	issuer   *token.Issuer
	metrics  *metrics.Metrics
	service  *auth.SessionService
	access   *guard.AccessStrategy
	refresh  *guard.RefreshStrategy
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		now:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		provider: &fakeProvider{},
		store:    memstore.New(),
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	nowTime := func() time.Time { return f.now }

	issuer, err := token.NewIssuer(token.Secrets{
		Access:  strings.Repeat("a", 32),
		Refresh: strings.Repeat("r", 32),
		APIKey:  strings.Repeat("k", 32),
	}, token.WithNowTime(nowTime))
	require.NoError(t, err)
	f.issuer = issuer

	hasher := hashing.New(4)
	f.service, err = auth.NewSessionService(auth.Deps{
		Store:    f.store,
		Provider: f.provider,
		Issuer:   issuer,
		Hasher:   hasher,
	}, auth.WithNowTime(nowTime), auth.WithMetrics(f.metrics))
	require.NoError(t, err)

	f.access = guard.NewAccessStrategy(issuer, f.store, hasher)
	f.refresh = guard.NewRefreshStrategy(issuer, f.store, hasher)
	return f
}

func bearer(raw string) guard.Credential {
	return guard.Credential{Scheme: guard.SchemeBearer, Token: raw}
}

func (f *testFixture) refreshClaims(t *testing.T, raw string) *token.RefreshClaims {
	t.Helper()
	identity, err := f.refresh.Validate(context.Background(), bearer(raw))
	require.NoError(t, err)
	return identity.Refresh
}

func TestNewSessionServiceRequiresDeps(t *testing.T) {
	_, err := auth.NewSessionService(auth.Deps{})
	require.Error(t, err)
}

func TestCreateSessionRoundTrip(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.service.CreateSession(ctx, "code")
	require.NoError(t, err)
	require.Equal(t, f.now.Add(token.AccessTokenTTL).UnixMilli(), pair.ExpiresIn)

	identity, err := f.access.Validate(ctx, bearer(pair.AccessToken))
	require.NoError(t, err)
	require.Equal(t, testUserID, identity.UserID)
	require.Equal(t, "discord-access-1", identity.Access.ProviderAccessToken)

	list, err := f.service.ListSessions(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotEqual(t, pair.AccessToken, list[0].AccessTokenHash, "tokens are stored hashed")
	require.NotEqual(t, pair.RefreshToken, list[0].RefreshTokenHash)

	user, err := f.store.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, "nelly", user.Username)

	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionOperationsTotal.WithLabelValues("create", metrics.Outcome(nil))))
}

func TestCreateSessionProviderFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.fail(apperrors.WithCause(apperrors.KindUnableToReachProvider, "exchange failed", fmt.Errorf("status 503")))

	_, err := f.service.CreateSession(context.Background(), "code")
	require.ErrorIs(t, err, apperrors.ErrUnableToReachProvider)

	_, err = f.service.ListSessions(context.Background(), testUserID)
	require.ErrorIs(t, err, apperrors.ErrNoSessionsFound)
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	first, err := f.service.CreateSession(ctx, "code")
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	second, err := f.service.RefreshSession(ctx, f.refreshClaims(t, first.RefreshToken), first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.AccessToken, second.AccessToken)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	t.Run("new pair is accepted", func(t *testing.T) {
		identity, err := f.access.Validate(ctx, bearer(second.AccessToken))
		require.NoError(t, err)
		require.Equal(t, "discord-access-2", identity.Access.ProviderAccessToken)
	})

	t.Run("old refresh token is rejected", func(t *testing.T) {
		_, err := f.refresh.Validate(ctx, bearer(first.RefreshToken))
		require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

		claims, err := f.issuer.VerifyRefresh(first.RefreshToken)
		require.NoError(t, err)
		_, err = f.service.RefreshSession(ctx, claims, first.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})

	t.Run("old access token is rejected", func(t *testing.T) {
		_, err := f.access.Validate(ctx, bearer(first.AccessToken))
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	list, err := f.service.ListSessions(ctx, testUserID)
	require.NoError(t, err)
	require.Len(t, list, 1, "rotation keeps the session")
}

func TestRefreshRejectsForeignGrant(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.service.CreateSession(ctx, "code")
	require.NoError(t, err)

	f.provider.profileID = "someone-else"
	_, err = f.service.RefreshSession(ctx, f.refreshClaims(t, pair.RefreshToken), pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestConcurrentRefreshHasOneWinner(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.service.CreateSession(ctx, "code")
	require.NoError(t, err)
	claims := f.refreshClaims(t, pair.RefreshToken)

	const racers = 2
	var wins atomic.Int32
	errs := make([]error, racers)
	var g errgroup.Group
	for i := 0; i < racers; i++ {
		g.Go(func() error {
			_, err := f.service.RefreshSession(ctx, claims, pair.RefreshToken)
			if err == nil {
				wins.Add(1)
			}
			errs[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), wins.Load())

	for _, err := range errs {
		if err == nil {
			continue
		}
		kind := apperrors.KindOf(err)
		require.Contains(t, []apperrors.Kind{apperrors.KindSessionNotFound, apperrors.KindInvalidRefreshToken}, kind, err.Error())
	}
}

func TestRevokeSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	keep, err := f.service.CreateSession(ctx, "code")
	require.NoError(t, err)
	drop, err := f.service.CreateSession(ctx, "code")
	require.NoError(t, err)

	identity, err := f.access.Validate(ctx, bearer(drop.AccessToken))
	require.NoError(t, err)

	revoked, err := f.service.RevokeSession(ctx, identity.Access, identity.Bearer)
	require.NoError(t, err)
	require.True(t, revoked)
	require.Equal(t, []string{"discord-access-2"}, f.provider.revoked)

	_, err = f.access.Validate(ctx, bearer(drop.AccessToken))
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = f.access.Validate(ctx, bearer(keep.AccessToken))
	require.NoError(t, err, "other sessions survive")

	_, err = f.service.RevokeSession(ctx, identity.Access, identity.Bearer)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestRevokeSessionProviderFailureKeepsSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.service.CreateSession(ctx, "code")
	require.NoError(t, err)
	identity, err := f.access.Validate(ctx, bearer(pair.AccessToken))
	require.NoError(t, err)

	f.provider.fail(apperrors.ErrUnableToReachProvider)
	_, err = f.service.RevokeSession(ctx, identity.Access, identity.Bearer)
	require.ErrorIs(t, err, apperrors.ErrUnableToReachProvider)

	_, err = f.access.Validate(ctx, bearer(pair.AccessToken))
	require.NoError(t, err)
}

func TestListSessionsEmpty(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.ListSessions(context.Background(), "nobody")
	require.ErrorIs(t, err, apperrors.ErrNoSessionsFound)
}

func TestRevokeAllSessions(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.service.CreateSession(ctx, "code")
		require.NoError(t, err)
	}

	n, err := f.service.RevokeAllSessions(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	_, err = f.service.RevokeAllSessions(ctx, testUserID)
	require.ErrorIs(t, err, apperrors.ErrNoSessionsFound)
}
