package backend

import (
	"sync"
	"time"

	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"go.uber.org/zap"
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "CLOSED"
	case BreakerOpen:
		return "OPEN"
	case BreakerHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreaker tracks consecutive transient failures of one backend. After threshold failures
// the backend is skipped until openTimeout passes, then a single trial call decides whether it
// closes again. A trial that is never recorded is given up after another openTimeout.
type CircuitBreaker struct {
	mu          sync.Mutex
	backend     string
	state       BreakerState
	failures    int
	threshold   int
	openTimeout time.Duration
	lastFailure time.Time
	trialAt     time.Time
	trial       bool
	now         func() time.Time
	logger      *logger.Logger
}

func NewCircuitBreaker(backend string, threshold int, openTimeout time.Duration, log *logger.Logger) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}

	return &CircuitBreaker{
		backend:     backend,
		state:       BreakerClosed,
		threshold:   threshold,
		openTimeout: openTimeout,
		now:         time.Now,
		logger:      log.Named("breaker"),
	}
}

// Allow reports whether a call may go to the backend. An open breaker turns half-open once the
// open timeout elapsed and lets one trial call through until its outcome is recorded.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()

	switch cb.state {
	case BreakerOpen:
		if now.Sub(cb.lastFailure) > cb.openTimeout {
			cb.transition(BreakerHalfOpen)
			cb.startTrial(now)

			return true
		}

		return false
	case BreakerHalfOpen:
		if cb.trial && now.Sub(cb.trialAt) <= cb.openTimeout {
			return false
		}

		cb.startTrial(now)

		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) startTrial(at time.Time) {
	cb.trial = true
	cb.trialAt = at
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.trial = false
	if cb.state == BreakerHalfOpen {
		cb.transition(BreakerClosed)
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()
	cb.trial = false

	switch cb.state {
	case BreakerClosed:
		if cb.failures >= cb.threshold {
			cb.transition(BreakerOpen)
		}
	case BreakerHalfOpen:
		cb.transition(BreakerOpen)
	}
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

func (cb *CircuitBreaker) transition(to BreakerState) {
	from := cb.state
	cb.state = to

	cb.logger.Warn("Circuit breaker state change",
		zap.String("backend", cb.backend),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.Int("failures", cb.failures),
		zap.Int("threshold", cb.threshold),
	)
}
