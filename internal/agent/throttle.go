package agent

import (
	"context"

	"github.com/ppiankov/veridraft/internal/worker"
)

// throttled wraps an agent so every invocation first clears a shared
// per-provider rate limiter. All stages of all concurrent runs share one
// limiter, so a provider's configured rate holds across the whole process.
type throttled struct {
	inner   Agent
	limiter *worker.Limiter
}

// Throttled wraps an agent behind a shared per-provider rate limiter.
func Throttled(a Agent, l *worker.Limiter) Agent {
	return &throttled{inner: a, limiter: l}
}

// Name returns the provider name
func (t *throttled) Name() string { return t.inner.Name() }

// IsAvailable checks if the underlying provider is accessible
func (t *throttled) IsAvailable(ctx context.Context) bool { return t.inner.IsAvailable(ctx) }

// Invoke waits for the provider's rate limit to clear, then delegates
func (t *throttled) Invoke(ctx context.Context, req Request) (Response, error) {
	if err := t.limiter.Wait(ctx, t.inner.Name()); err != nil {
		return Response{}, err
	}
	return t.inner.Invoke(ctx, req)
}
