package backend

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pool holds a fixed set of backend connections and hands them out round-robin.
type Pool struct {
	config  Config
	factory Factory
	logger  *logger.Logger

	mu          sync.Mutex
	connections []Connection
	breakers    []*CircuitBreaker
	index       int
	closed      bool
}

var _ Dispatcher = (*Pool)(nil)

func NewPool(config Config, factory Factory, log *logger.Logger) *Pool {
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultConfig().CallTimeout
	}

	return &Pool{
		config:  config,
		factory: factory,
		logger:  log.Named("pool"),
	}
}

// Initialize opens one connection per address. It can only run once; a failed address closes
// the connections opened before it.
func (p *Pool) Initialize(addresses []string) error {
	if len(addresses) == 0 {
		return errors.New(errors.ErrCodeNoBackends, "at least one backend address is required")
	}

	if p.factory == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "backend factory is not set")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.connections) > 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "backend pool is already initialized")
	}

	connections := make([]Connection, 0, len(addresses))
	breakers := make([]*CircuitBreaker, 0, len(addresses))

	for _, address := range addresses {
		conn, err := p.factory(address)
		if err != nil {
			for _, opened := range connections {
				_ = opened.Close()
			}

			return errors.Wrapf(errors.ErrCodeBackendUnavailable, err, "failed to connect to backend %s", address)
		}

		connections = append(connections, conn)
		breakers = append(breakers, NewCircuitBreaker(conn.Name(), p.config.CircuitBreaker.FailureThreshold, p.config.CircuitBreaker.OpenTimeout, p.logger))
	}

	p.connections = connections
	p.breakers = breakers
	p.index = 0
	p.closed = false

	p.logger.Info("Backend pool initialized", zap.Int("backends", len(connections)))

	return nil
}

// SelectBackend returns the next connection in rotation. The rotation index advances once per
// call. With circuit breaking enabled, backends whose breaker is open are skipped unless every
// breaker is open.
func (p *Pool) SelectBackend() (Connection, error) {
	slot, err := p.selectSlot()
	if err != nil {
		return nil, err
	}

	return p.connections[slot], nil
}

func (p *Pool) selectSlot() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.connections)
	if n == 0 || p.closed {
		return 0, errors.New(errors.ErrCodeNoBackends, "no execution backends available")
	}

	start := p.index % n
	p.index = (start + 1) % n

	if !p.config.CircuitBreaker.Enabled {
		return start, nil
	}

	for offset := range n {
		slot := (start + offset) % n
		if p.breakers[slot].Allow() {
			return slot, nil
		}
	}

	return start, nil
}

// Get returns the connection with the given name.
func (p *Pool) Get(name string) (Connection, bool) {
	slot, ok := p.slotOf(name)
	if !ok {
		return nil, false
	}

	return p.connections[slot], true
}

func (p *Pool) slotOf(name string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, conn := range p.connections {
		if conn.Name() == name {
			return i, true
		}
	}

	return 0, false
}

func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.connections)
}

// BreakerState returns the circuit breaker state of the named backend.
func (p *Pool) BreakerState(name string) (BreakerState, bool) {
	slot, ok := p.slotOf(name)
	if !ok {
		return BreakerClosed, false
	}

	return p.breakers[slot].State(), true
}

// ExecuteTrade sends the order to the next backend in rotation. Failures raised before the order
// left the process are retried with exponential backoff, each attempt on a freshly selected
// backend under its own deadline. A timeout is returned without a retry because the first
// backend may already hold the order.
func (p *Pool) ExecuteTrade(ctx context.Context, req types.ExecuteRequest) (Receipt, error) {
	var receipt Receipt

	err := withRetry(ctx, p.config.Retry, p.logger, "execute_trade", isUnsent, func() error {
		slot, err := p.selectSlot()
		if err != nil {
			return err
		}

		conn := p.connections[slot]

		callCtx, cancel := context.WithTimeout(ctx, p.config.CallTimeout)
		defer cancel()

		result, err := conn.ExecuteTrade(callCtx, req)
		p.record(slot, err)

		if err != nil {
			return p.classify(callCtx, conn.Name(), err)
		}

		receipt = Receipt{Backend: conn.Name(), Result: result}

		return nil
	})
	if err != nil {
		return Receipt{}, p.finalError(ctx, err)
	}

	p.logger.Debug("Order dispatched",
		zap.String("backend", receipt.Backend),
		zap.String("order_id", receipt.Result.OrderID),
		zap.String("status", string(receipt.Result.Status)),
	)

	return receipt, nil
}

// MonitorOrderStatus streams order updates from the backend that accepted the order.
func (p *Pool) MonitorOrderStatus(ctx context.Context, backend string, symbol string, orderID string) iter.Seq2[types.OrderStatusUpdate, error] {
	conn, ok := p.Get(backend)
	if !ok {
		return func(yield func(types.OrderStatusUpdate, error) bool) {
			yield(types.OrderStatusUpdate{}, errors.Newf(errors.ErrCodeBackendUnavailable, "backend %s is not in the pool", backend))
		}
	}

	return conn.MonitorOrderStatus(ctx, symbol, orderID)
}

// CancelOrder cancels the order on the backend that accepted it.
func (p *Pool) CancelOrder(ctx context.Context, backend string, symbol string, orderID string) error {
	slot, ok := p.slotOf(backend)
	if !ok {
		return errors.Newf(errors.ErrCodeBackendUnavailable, "backend %s is not in the pool", backend)
	}

	conn := p.connections[slot]

	err := withRetry(ctx, p.config.Retry, p.logger, "cancel_order", isTransient, func() error {
		callCtx, cancel := context.WithTimeout(ctx, p.config.CallTimeout)
		defer cancel()

		err := conn.CancelOrder(callCtx, symbol, orderID)
		p.record(slot, err)

		if err != nil {
			return p.classify(callCtx, backend, err)
		}

		return nil
	})
	if err != nil {
		return p.finalError(ctx, err)
	}

	return nil
}

// BatchExecuteTrades runs the whole batch on one selected backend. The deadline scales with the
// number of orders. Batches are not retried because a partial batch may already be placed.
func (p *Pool) BatchExecuteTrades(ctx context.Context, reqs []types.ExecuteRequest, atomic bool) (types.BatchResult, error) {
	slot, err := p.selectSlot()
	if err != nil {
		return types.BatchResult{}, err
	}

	conn := p.connections[slot]

	timeout := p.config.CallTimeout * time.Duration(max(1, len(reqs)))
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := conn.BatchExecuteTrades(callCtx, reqs, atomic)
	if err != nil && !errors.HasCode(err, errors.ErrCodeBatchRolledBack) {
		p.record(slot, err)

		return result, p.classify(callCtx, conn.Name(), err)
	}

	p.record(slot, nil)

	return result, err
}

// GetMarketData subscribes to market data on the next backend in rotation.
func (p *Pool) GetMarketData(ctx context.Context, req types.MarketDataRequest) iter.Seq2[types.MarketSnapshot, error] {
	conn, err := p.SelectBackend()
	if err != nil {
		return func(yield func(types.MarketSnapshot, error) bool) {
			yield(types.MarketSnapshot{}, err)
		}
	}

	return conn.GetMarketData(ctx, req)
}

// Close closes every connection concurrently and reports the first failure.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()

		return nil
	}

	p.closed = true
	connections := p.connections
	p.mu.Unlock()

	var g errgroup.Group

	for _, conn := range connections {
		g.Go(func() error {
			if err := conn.Close(); err != nil {
				return errors.Wrapf(errors.ErrCodeBackendUnavailable, err, "failed to close backend %s", conn.Name())
			}

			return nil
		})
	}

	err := g.Wait()

	p.logger.Info("Backend pool closed", zap.Int("backends", len(connections)))

	return err
}

// record feeds the breaker. Only transient failures count against a backend; a rejection still
// proves the backend answered.
func (p *Pool) record(slot int, err error) {
	if !p.config.CircuitBreaker.Enabled {
		return
	}

	if err != nil && isTransient(err) {
		p.breakers[slot].RecordFailure()

		return
	}

	p.breakers[slot].RecordSuccess()
}

// classify maps a deadline hit on the per-call context to ErrCodeBackendTimeout.
func (p *Pool) classify(callCtx context.Context, backend string, err error) error {
	if errors.GetCode(err) == errors.ErrCodeUnknown && callCtx.Err() != nil {
		return errors.Wrapf(errors.ErrCodeBackendTimeout, err, "backend %s did not answer in time", backend)
	}

	return err
}

func (p *Pool) finalError(ctx context.Context, err error) error {
	if errors.GetCode(err) == errors.ErrCodeUnknown {
		if ctx.Err() != nil {
			return errors.Wrap(errors.ErrCodeBackendTimeout, "backend call cancelled", err)
		}

		return errors.Wrap(errors.ErrCodeBackendUnavailable, "backend call failed", err)
	}

	return err
}
