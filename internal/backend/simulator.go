package backend

import (
	"context"
	"iter"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SimulatorConfig drives the simulated fills and market data of a SimulatorConnection.
type SimulatorConfig struct {
	// FillLatency is how long an order rests before it fills. Zero fills on submission.
	FillLatency time.Duration `yaml:"fill_latency" json:"fill_latency" jsonschema:"title=Fill Latency" validate:"gte=0"`
	// TickInterval is the delay between two market data snapshots.
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval" jsonschema:"title=Tick Interval" validate:"gte=0"`
	// SeedPrices are the starting prices per symbol.
	SeedPrices map[string]float64 `yaml:"seed_prices" json:"seed_prices" jsonschema:"title=Seed Prices"`
	// DefaultPrice is used for symbols without a seed price. Zero makes such symbols unknown.
	DefaultPrice float64 `yaml:"default_price" json:"default_price" jsonschema:"title=Default Price,minimum=0" validate:"gte=0"`
	Liquidity    float64 `yaml:"liquidity" json:"liquidity" jsonschema:"title=Liquidity,minimum=0" validate:"gte=0"`
	Volume       float64 `yaml:"volume" json:"volume" jsonschema:"title=24h Volume,minimum=0" validate:"gte=0"`
	Volatility   float64 `yaml:"volatility" json:"volatility" jsonschema:"title=Volatility,minimum=0" validate:"gte=0"`
	Spread       float64 `yaml:"spread" json:"spread" jsonschema:"title=Spread,minimum=0" validate:"gte=0"`
	Seed         uint64  `yaml:"seed" json:"seed" jsonschema:"title=Random Seed"`
}

func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		FillLatency:  0,
		TickInterval: time.Second,
		DefaultPrice: 100,
		Liquidity:    1_000_000,
		Volume:       10_000_000,
		Volatility:   0.3,
		Spread:       0.001,
		Seed:         42,
	}
}

type simulatedOrder struct {
	request  types.ExecuteRequest
	orderID  string
	status   types.TradeStatus
	placedAt time.Time
	price    float64
}

// SimulatorConnection is an in-process execution backend. Orders fill at the reference price
// moved against the taker by half the spread, after FillLatency.
type SimulatorConnection struct {
	name      string
	config    SimulatorConfig
	logger    *logger.Logger
	validator *validator.Validate

	mu       sync.Mutex
	orders   map[string]*simulatedOrder
	prices   map[string]float64
	rng      *rand.Rand
	failNext int
	closed   bool
}

func NewSimulatorConnection(name string, config SimulatorConfig, log *logger.Logger) *SimulatorConnection {
	prices := make(map[string]float64, len(config.SeedPrices))
	for symbol, price := range config.SeedPrices {
		prices[symbol] = price
	}

	return &SimulatorConnection{
		name:      name,
		config:    config,
		logger:    log.Named("simulator").With(zap.String("backend", name)),
		validator: validator.New(),
		orders:    make(map[string]*simulatedOrder),
		prices:    prices,
		rng:       rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
	}
}

func (s *SimulatorConnection) Name() string {
	return s.name
}

// FailNext makes the next n order submissions fail with ErrCodeBackendUnavailable.
func (s *SimulatorConnection) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failNext = n
}

// SetPrice overrides the reference price of a symbol.
func (s *SimulatorConnection) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prices[symbol] = price
}

// OrderCount returns how many orders were accepted.
func (s *SimulatorConnection) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.orders)
}

func (s *SimulatorConnection) ExecuteTrade(ctx context.Context, req types.ExecuteRequest) (types.ExecuteResult, error) {
	if err := ctx.Err(); err != nil {
		return types.ExecuteResult{}, errors.Wrap(errors.ErrCodeBackendTimeout, "execute trade cancelled", err)
	}

	if err := s.validator.Struct(req); err != nil {
		return types.ExecuteResult{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid execute request", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ExecuteResult{}, errors.Newf(errors.ErrCodeBackendUnavailable, "backend %s is closed", s.name)
	}

	if s.failNext > 0 {
		s.failNext--

		return types.ExecuteResult{}, errors.Newf(errors.ErrCodeBackendUnavailable, "backend %s failed to accept order", s.name)
	}

	reference := req.Price
	if reference <= 0 {
		reference = s.referencePrice(req.Symbol)
	}

	if reference <= 0 {
		return types.ExecuteResult{}, errors.Newf(errors.ErrCodeOrderFailed, "no reference price for %s", req.Symbol)
	}

	fillPrice := reference
	if req.OrderType == types.OrderTypeMarket {
		fillPrice = adverseFill(reference, s.config.Spread, req.Side)
	}

	order := &simulatedOrder{
		request:  req,
		orderID:  uuid.NewString(),
		status:   types.TradeStatusPending,
		placedAt: time.Now(),
		price:    fillPrice,
	}
	s.orders[order.orderID] = order
	s.prices[req.Symbol] = reference

	s.settle(order, order.placedAt)

	s.logger.Debug("Order accepted",
		zap.String("order_id", order.orderID),
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.Float64("amount", req.Amount),
		zap.String("status", string(order.status)),
	)

	return resultOf(order), nil
}

func (s *SimulatorConnection) GetMarketData(ctx context.Context, req types.MarketDataRequest) iter.Seq2[types.MarketSnapshot, error] {
	return func(yield func(types.MarketSnapshot, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield(types.MarketSnapshot{}, errors.Wrap(errors.ErrCodeBackendTimeout, "market data stream cancelled", err))

				return
			}

			snapshot, err := s.tick(req)
			if !yield(snapshot, err) || err != nil {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(s.config.TickInterval):
			}
		}
	}
}

func (s *SimulatorConnection) MonitorOrderStatus(ctx context.Context, _ string, orderID string) iter.Seq2[types.OrderStatusUpdate, error] {
	return func(yield func(types.OrderStatusUpdate, error) bool) {
		for {
			update, wait, err := s.orderUpdate(orderID)
			if err != nil {
				yield(types.OrderStatusUpdate{}, err)

				return
			}

			if !yield(update, nil) || update.Status.IsTerminal() {
				return
			}

			select {
			case <-ctx.Done():
				yield(types.OrderStatusUpdate{}, errors.Wrap(errors.ErrCodeBackendTimeout, "order status stream cancelled", ctx.Err()))

				return
			case <-time.After(wait):
			}
		}
	}
}

func (s *SimulatorConnection) CancelOrder(ctx context.Context, _ string, orderID string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeBackendTimeout, "cancel order cancelled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return errors.Newf(errors.ErrCodeOrderNotFound, "order %s not found", orderID)
	}

	s.settle(order, time.Now())

	switch order.status {
	case types.TradeStatusCancelled:
		return nil
	case types.TradeStatusFilled:
		return errors.Newf(errors.ErrCodeOrderFailed, "order %s is already filled", orderID)
	}

	order.status = types.TradeStatusCancelled
	s.logger.Debug("Order cancelled", zap.String("order_id", orderID))

	return nil
}

func (s *SimulatorConnection) BatchExecuteTrades(ctx context.Context, reqs []types.ExecuteRequest, atomic bool) (types.BatchResult, error) {
	return executeBatch(ctx, s, reqs, atomic, s.logger)
}

func (s *SimulatorConnection) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

func (s *SimulatorConnection) orderUpdate(orderID string) (types.OrderStatusUpdate, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return types.OrderStatusUpdate{}, 0, errors.Newf(errors.ErrCodeOrderNotFound, "order %s not found", orderID)
	}

	now := time.Now()
	s.settle(order, now)

	wait := order.placedAt.Add(s.config.FillLatency).Sub(now)
	if wait < time.Millisecond {
		wait = time.Millisecond
	}

	update := types.OrderStatusUpdate{
		OrderID:         order.orderID,
		Status:          order.status,
		RemainingAmount: order.request.Amount,
	}

	if order.status == types.TradeStatusFilled {
		update.FilledAmount = order.request.Amount
		update.RemainingAmount = 0
		update.AveragePrice = order.price
	}

	return update, wait, nil
}

// settle fills a pending order once its latency elapsed. Callers hold s.mu.
func (s *SimulatorConnection) settle(order *simulatedOrder, now time.Time) {
	if order.status != types.TradeStatusPending {
		return
	}

	if now.Sub(order.placedAt) >= s.config.FillLatency {
		order.status = types.TradeStatusFilled
	}
}

// referencePrice returns the last known price of a symbol. Callers hold s.mu.
func (s *SimulatorConnection) referencePrice(symbol string) float64 {
	if price, ok := s.prices[symbol]; ok {
		return price
	}

	return s.config.DefaultPrice
}

func (s *SimulatorConnection) tick(req types.MarketDataRequest) (types.MarketSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.MarketSnapshot{}, errors.Newf(errors.ErrCodeBackendUnavailable, "backend %s is closed", s.name)
	}

	price := s.referencePrice(req.Symbol)
	if price <= 0 {
		return types.MarketSnapshot{}, errors.Newf(errors.ErrCodeMarketDataFailed, "no market data for %s", req.Symbol)
	}

	// one step of a geometric random walk scaled to a per-tick share of the volatility
	step := s.rng.NormFloat64() * s.config.Volatility * 0.01
	next := price * math.Exp(step)
	s.prices[req.Symbol] = next

	liquidity := s.config.Liquidity
	if req.Type == types.MarketDataOrderBook && req.Depth > 0 {
		liquidity = liquidity * math.Min(1, float64(req.Depth)/20)
	}

	return types.MarketSnapshot{
		Symbol:     req.Symbol,
		Price:      decimal.NewFromFloat(next).Truncate(8).InexactFloat64(),
		Volume:     s.config.Volume,
		Liquidity:  liquidity,
		Spread:     s.config.Spread,
		Volatility: s.config.Volatility,
		Timestamp:  time.Now(),
		Source:     types.SnapshotSourceLive,
	}, nil
}

// adverseFill moves the reference price against the taker by half the spread.
func adverseFill(reference, spread float64, side types.Side) float64 {
	half := decimal.NewFromFloat(spread).Div(decimal.NewFromInt(2))
	factor := decimal.NewFromInt(1).Add(half)

	if !side.IsLong() {
		factor = decimal.NewFromInt(1).Sub(half)
	}

	return decimal.NewFromFloat(reference).Mul(factor).Truncate(8).InexactFloat64()
}

func resultOf(order *simulatedOrder) types.ExecuteResult {
	result := types.ExecuteResult{
		OrderID: order.orderID,
		Status:  order.status,
	}

	if order.status == types.TradeStatusFilled {
		result.ExecutedPrice = order.price
		result.ExecutedAmount = order.request.Amount
	}

	return result
}
