package guard_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-botlist-server/guard"
	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
	"github.com/jrsteele09/go-botlist-server/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type stubStrategy struct {
	id    guard.StrategyID
	err   error
	calls int
}

func (s *stubStrategy) ID() guard.StrategyID { return s.id }

func (s *stubStrategy) Validate(context.Context, guard.Credential) (*guard.Identity, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &guard.Identity{Strategy: s.id}, nil
}

func TestDispatcherFirstSuccessWins(t *testing.T) {
	access := &stubStrategy{id: guard.StrategyAccess, err: apperrors.ErrInvalidToken}
	internal := &stubStrategy{id: guard.StrategyInternal}
	m := metrics.New(prometheus.NewRegistry())
	d := guard.NewDispatcher(m, access, internal)

	op := guard.Operation{Name: "list", Strategies: []guard.StrategyID{guard.StrategyAccess, guard.StrategyInternal}}
	identity, err := d.Authenticate(context.Background(), op, "Internal key")
	require.NoError(t, err)
	require.Equal(t, guard.StrategyInternal, identity.Strategy)
	require.Equal(t, 1, access.calls)

	require.Equal(t, 1.0, testutil.ToFloat64(m.StrategyResultsTotal.WithLabelValues("access", "InvalidToken")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StrategyResultsTotal.WithLabelValues("internal", "ok")))
}

func TestDispatcherReturnsFirstError(t *testing.T) {
	access := &stubStrategy{id: guard.StrategyAccess, err: apperrors.ErrExpiredToken}
	internal := &stubStrategy{id: guard.StrategyInternal, err: apperrors.ErrTokenRequired}
	d := guard.NewDispatcher(nil, access, internal)

	op := guard.Operation{Name: "list", Strategies: []guard.StrategyID{guard.StrategyAccess, guard.StrategyInternal}}
	_, err := d.Authenticate(context.Background(), op, "Bearer x")
	require.ErrorIs(t, err, apperrors.ErrExpiredToken)
	require.Equal(t, 1, internal.calls)
}

func TestDispatcherSkip(t *testing.T) {
	access := &stubStrategy{id: guard.StrategyAccess, err: apperrors.ErrInvalidToken}
	d := guard.NewDispatcher(nil, access)

	op := guard.Operation{Name: "public", Strategies: []guard.StrategyID{guard.StrategyAccess}}
	identity, err := d.Authenticate(context.Background(), op.Without(guard.StrategyAccess), "")
	require.NoError(t, err)
	require.Equal(t, guard.StrategyNone, identity.Strategy)
	require.Zero(t, access.calls)
	require.Empty(t, op.Skip, "Without copies the operation")
}

func TestDispatcherUnregisteredStrategy(t *testing.T) {
	d := guard.NewDispatcher(nil)
	op := guard.Operation{Name: "broken", Strategies: []guard.StrategyID{guard.StrategyAPIKey}}
	_, err := d.Authenticate(context.Background(), op, "Bearer x")
	require.Error(t, err)
	require.Empty(t, apperrors.KindOf(err))
}
