package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for pacing remote calls
type Limiter interface {
	// Wait blocks until the next call may proceed or ctx is done
	Wait(ctx context.Context) error
}

// Pacer enforces a fixed delay between calls
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer that lets one call through every delay. A zero or
// negative delay disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the delay since the previous call has elapsed
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
