package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"PremiumSentinel/internal/metrics"
	"PremiumSentinel/internal/model"
)

// GuardedProvider rate limits calls to the wrapped provider and stops
// calling it for a while after repeated failures.
type GuardedProvider struct {
	inner   Provider
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Registry
}

// NewGuardedProvider wraps p with a token bucket of rps/burst and a breaker
// that opens after five consecutive failures and probes again after a minute.
func NewGuardedProvider(p Provider, rps float64, burst int, m *metrics.Registry, log zerolog.Logger) *GuardedProvider {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	st := gobreaker.Settings{
		Name:     p.Name(),
		Interval: 5 * time.Minute,
		Timeout:  time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	}
	return &GuardedProvider{
		inner:   p,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(st),
		metrics: m,
	}
}

func (g *GuardedProvider) Name() string { return g.inner.Name() }

// State reports the breaker state, e.g. "closed" or "open".
func (g *GuardedProvider) State() string { return g.breaker.State().String() }

func guard[T any](ctx context.Context, g *GuardedProvider, op string, fn func() (T, error)) (T, error) {
	var zero T
	if err := g.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("%s %s: rate limit: %w", g.Name(), op, err)
	}
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	out, _ := res.(T)
	if err != nil {
		g.metrics.ProviderError(g.Name(), op)
		return out, err
	}
	return out, nil
}

func (g *GuardedProvider) GetQuotes(ctx context.Context, symbols []string) (map[string]model.Quote, error) {
	return guard(ctx, g, "quotes", func() (map[string]model.Quote, error) {
		return g.inner.GetQuotes(ctx, symbols)
	})
}

func (g *GuardedProvider) GetOptionExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	return guard(ctx, g, "expirations", func() ([]time.Time, error) {
		return g.inner.GetOptionExpirations(ctx, symbol)
	})
}

func (g *GuardedProvider) GetOptionChain(ctx context.Context, symbol string, expiration time.Time) ([]model.OptionContract, error) {
	return guard(ctx, g, "chain", func() ([]model.OptionContract, error) {
		return g.inner.GetOptionChain(ctx, symbol, expiration)
	})
}

func (g *GuardedProvider) GetHistorical(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	return guard(ctx, g, "historical", func() ([]model.OHLCV, error) {
		return g.inner.GetHistorical(ctx, symbol, days)
	})
}
