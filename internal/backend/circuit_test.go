package backend

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerLifecycle(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("sim-1", 2, 10*time.Second, logger.NewNopLogger())
	cb.now = func() time.Time { return now }

	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, BreakerClosed, cb.State())
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, BreakerOpen, cb.State())
	assert.False(t, cb.Allow())

	now = now.Add(11 * time.Second)
	assert.True(t, cb.Allow())
	assert.Equal(t, BreakerHalfOpen, cb.State())

	cb.RecordFailure()
	assert.Equal(t, BreakerOpen, cb.State())
	assert.False(t, cb.Allow())

	now = now.Add(11 * time.Second)
	assert.True(t, cb.Allow())

	cb.RecordSuccess()
	assert.Equal(t, BreakerClosed, cb.State())

	cb.RecordFailure()
	assert.Equal(t, BreakerClosed, cb.State())
}

func TestCircuitBreakerHalfOpenAllowsOneTrialCall(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("sim-1", 1, 10*time.Second, logger.NewNopLogger())
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	assert.Equal(t, BreakerOpen, cb.State())

	now = now.Add(11 * time.Second)
	assert.True(t, cb.Allow())
	assert.False(t, cb.Allow())
	assert.False(t, cb.Allow())
	assert.Equal(t, BreakerHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, BreakerClosed, cb.State())
	assert.True(t, cb.Allow())
	assert.True(t, cb.Allow())
}

func TestCircuitBreakerAbandonedTrialIsReleased(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("sim-1", 1, 10*time.Second, logger.NewNopLogger())
	cb.now = func() time.Time { return now }

	cb.RecordFailure()

	now = now.Add(11 * time.Second)
	assert.True(t, cb.Allow())

	now = now.Add(5 * time.Second)
	assert.False(t, cb.Allow())

	now = now.Add(6 * time.Second)
	assert.True(t, cb.Allow())
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("sim-1", 2, time.Minute, nil)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, BreakerClosed, cb.State())

	cb.RecordFailure()
	assert.Equal(t, BreakerOpen, cb.State())
}

func TestBreakerStateString(t *testing.T) {
	assert.Equal(t, "CLOSED", BreakerClosed.String())
	assert.Equal(t, "OPEN", BreakerOpen.String())
	assert.Equal(t, "HALF-OPEN", BreakerHalfOpen.String())
	assert.Equal(t, "UNKNOWN", BreakerState(9).String())
}
