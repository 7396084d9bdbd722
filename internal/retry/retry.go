package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Policy configures retries of idempotent reads. Order submissions are never retried.
type Policy struct {
	// MaxAttempts counts the first call. Zero retries until success or ctx is done.
	MaxAttempts     int           `yaml:"max_attempts" json:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval" json:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval" json:"max_interval"`
	Multiplier      float64       `yaml:"multiplier" json:"multiplier"`
	// Jitter is the randomization factor in [0, 1].
	Jitter float64 `yaml:"jitter" json:"jitter"`
}

// DefaultPolicy retries forever with exponential backoff from 1s up to 30s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     0,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
		Jitter:          0.2,
	}
}

// Notify is called before sleeping after a failed attempt.
type Notify func(err error, wait time.Duration)

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.MaxElapsedTime = 0

	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}

	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}

	if p.Multiplier >= 1 {
		exp.Multiplier = p.Multiplier
	}

	exp.RandomizationFactor = p.Jitter
	exp.Reset()

	var b backoff.BackOff = exp
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}

	return backoff.WithContext(b, ctx)
}

// retryable reports whether an attempt error may be retried. Coded errors outside the
// transport and rate limit kinds are permanent; uncoded errors are treated as transport.
func retryable(err error) bool {
	return errors.IsRetryable(err) || errors.GetCode(err) == errors.ErrCodeUnknown
}

// Do runs op until it succeeds, fails permanently or the policy gives up, and returns
// the value of the successful attempt or the last error.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), notify Notify) (T, error) {
	attempt := func() (T, error) {
		v, err := op(ctx)
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}

		return v, err
	}

	var n backoff.Notify
	if notify != nil {
		n = backoff.Notify(notify)
	}

	return backoff.RetryNotifyWithData(attempt, p.backOff(ctx), n)
}

// Permanent marks err so Do stops retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
