package agent

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/BaSui01/fluxgraph/types"
)

// RateLimited decorates an agent with a token-bucket rate limit.
// Execute blocks until a token is available or the context ends, then
// delegates to the wrapped agent.
type RateLimited struct {
	inner   types.Agent
	limiter *rate.Limiter
}

// WithRateLimit wraps an agent so it executes at most rps times per
// second with the given burst size.
func WithRateLimit(a types.Agent, rps float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   a,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Execute waits for the limiter, then runs the wrapped agent.
func (a *RateLimited) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return a.inner.Execute(ctx, inputs)
}

// Name returns the wrapped agent's name when it has one.
func (a *RateLimited) Name() string {
	if named, ok := a.inner.(types.Named); ok {
		return named.Name()
	}
	return ""
}

// Unwrap returns the decorated agent.
func (a *RateLimited) Unwrap() types.Agent { return a.inner }
