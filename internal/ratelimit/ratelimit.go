package ratelimit

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"golang.org/x/time/rate"
)

// Limiter is the token bucket shared by every outbound call of one exchange connector.
type Limiter struct {
	r *rate.Limiter
}

// NewLimiter allows maxCalls per period with a burst of one. A non-positive
// maxCalls or period returns an unrestricted limiter.
func NewLimiter(maxCalls int, period time.Duration) *Limiter {
	if maxCalls <= 0 || period <= 0 {
		return &Limiter{r: rate.NewLimiter(rate.Inf, 1)}
	}

	rps := float64(maxCalls) / period.Seconds()

	return &Limiter{r: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.r.Wait(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeRateLimited, "rate limiter wait aborted", err)
	}

	return nil
}

// Allow reports whether a call may happen now without waiting.
func (l *Limiter) Allow() bool {
	return l.r.Allow()
}

// Limit returns the sustained rate in calls per second.
func (l *Limiter) Limit() float64 {
	return float64(l.r.Limit())
}
