package backend

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"go.uber.org/zap"
)

// isTransient reports whether a failed call may succeed on another attempt. Errors without a
// code come from transports and are retried.
func isTransient(err error) bool {
	switch errors.GetCode(err) {
	case errors.ErrCodeBackendUnavailable, errors.ErrCodeBackendTimeout, errors.ErrCodeUnknown:
		return true
	default:
		return false
	}
}

// isUnsent reports whether a failed order submission is known not to have reached the backend.
// Only these failures may be resubmitted. A timeout or an uncoded transport error leaves the
// order in an unknown state.
func isUnsent(err error) bool {
	return errors.GetCode(err) == errors.ErrCodeBackendUnavailable
}

func (c RetryConfig) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.InitialInterval
	exp.MaxInterval = c.MaxInterval
	exp.Multiplier = c.Multiplier
	exp.MaxElapsedTime = 0

	if exp.InitialInterval <= 0 {
		exp.InitialInterval = time.Millisecond
	}

	if exp.MaxInterval < exp.InitialInterval {
		exp.MaxInterval = exp.InitialInterval
	}

	if exp.Multiplier < 1 {
		exp.Multiplier = 1
	}

	retries := c.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// withRetry runs op until it succeeds, returns an error retryable rejects, or the retry budget
// is spent.
func withRetry(ctx context.Context, config RetryConfig, log *logger.Logger, operation string, retryable func(error) bool, op func() error) error {
	attempt := func() error {
		err := op()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	notify := func(err error, delay time.Duration) {
		log.Warn("Backend call failed, retrying",
			zap.String("operation", operation),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}

	return backoff.RetryNotify(attempt, config.policy(ctx), notify)
}
