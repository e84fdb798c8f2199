package guard

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
	"github.com/jrsteele09/go-botlist-server/internal/metrics"
)

// Operation declares which strategies may authenticate a call. Strategies in
// Skip are never run; an operation whose strategies are all skipped is public.
type Operation struct {
	Name       string
	Strategies []StrategyID
	Skip       map[StrategyID]bool
}

// Without returns a copy of op that skips ids.
func (op Operation) Without(ids ...StrategyID) Operation {
	skip := make(map[StrategyID]bool, len(op.Skip)+len(ids))
	for id, v := range op.Skip {
		skip[id] = v
	}
	for _, id := range ids {
		skip[id] = true
	}
	op.Skip = skip
	return op
}

// Dispatcher runs an operation's strategies in order and returns the first success.
type Dispatcher struct {
	strategies map[StrategyID]Strategy
	metrics    *metrics.Metrics
}

func NewDispatcher(m *metrics.Metrics, strategies ...Strategy) *Dispatcher {
	d := &Dispatcher{
		strategies: make(map[StrategyID]Strategy, len(strategies)),
		metrics:    m,
	}
	for _, s := range strategies {
		d.strategies[s.ID()] = s
	}
	return d
}

// Authenticate validates header for op. When every strategy fails, the first
// strategy's error is returned.
func (d *Dispatcher) Authenticate(ctx context.Context, op Operation, header string) (*Identity, error) {
	cred := ParseAuthorization(header)

	var firstErr error
	ran := 0
	for _, id := range op.Strategies {
		if op.Skip[id] {
			continue
		}
		strategy, ok := d.strategies[id]
		if !ok {
			return nil, fmt.Errorf("[Dispatcher.Authenticate] %s: strategy %q not registered", op.Name, id)
		}
		ran++

		identity, err := strategy.Validate(ctx, cred)
		if err == nil {
			d.metrics.RecordStrategy(string(id), "ok")
			return identity, nil
		}
		d.metrics.RecordStrategy(string(id), resultLabel(err))
		if firstErr == nil {
			firstErr = err
		}
	}

	if ran == 0 {
		return &Identity{Strategy: StrategyNone}, nil
	}
	return nil, firstErr
}

func resultLabel(err error) string {
	if kind := apperrors.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}
