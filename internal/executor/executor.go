// Package executor owns the trade lifecycle: admission prechecks, dispatch to the backend pool,
// status tracking, cancellation, and the history of finalised trades.
package executor

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dispatch/internal/advisory"
	"github.com/rxtech-lab/argo-dispatch/internal/backend"
	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/internal/marketcache"
	"github.com/rxtech-lab/argo-dispatch/internal/portfolio"
	"github.com/rxtech-lab/argo-dispatch/internal/risk"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/internal/wallet"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HistorySink receives every trade that leaves the active map.
type HistorySink interface {
	Write(trade types.Trade) error
}

// Dependencies are the collaborators of an Executor. Wallet and Backend are required.
type Dependencies struct {
	Wallet  wallet.Wallet
	Backend backend.Dispatcher
	// Risk runs the admission pipeline. Nil dispatches proposals at their requested size.
	Risk risk.Assessor
	// Validator is the optional AI validator.
	Validator advisory.Validator
	// Portfolio defaults to the context carried inside each proposal.
	Portfolio portfolio.Provider
	// Cache receives snapshots fetched by RefreshMarketData.
	Cache   *marketcache.Cache
	History HistorySink
	Logger  *logger.Logger
}

type sessionStats struct {
	start             time.Time
	dispatched        int
	rejected          int
	aiErrors          int
	requestedNotional float64
}

// Executor tracks trades from proposal to final state. Every trade is either in the active map
// or in the history list, never both.
type Executor struct {
	config    Config
	wallet    wallet.Wallet
	backend   backend.Dispatcher
	risk      risk.Assessor
	validator advisory.Validator
	gate      *advisory.Gate
	portfolio portfolio.Provider
	cache     *marketcache.Cache
	sink      HistorySink
	logger    *logger.Logger
	now       func() time.Time

	mu           sync.Mutex
	running      bool
	stopped      bool
	active       map[string]*types.Trade
	history      []types.Trade
	historyIndex map[string]int
	session      sessionStats

	stopPoller context.CancelFunc
	pollerDone chan struct{}
}

type Option func(*Executor)

// WithClock overrides the time source used to stamp trades.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

func NewExecutor(config Config, deps Dependencies, opts ...Option) (*Executor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if deps.Wallet == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "executor requires a wallet")
	}

	if deps.Backend == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "executor requires a backend")
	}

	if deps.Portfolio == nil {
		deps.Portfolio = portfolio.ProposalProvider{}
	}

	e := &Executor{
		config:       config,
		wallet:       deps.Wallet,
		backend:      deps.Backend,
		risk:         deps.Risk,
		validator:    deps.Validator,
		gate:         advisory.NewGate(config.Gate),
		portfolio:    deps.Portfolio,
		cache:        deps.Cache,
		sink:         deps.History,
		logger:       deps.Logger.Named("executor"),
		now:          time.Now,
		active:       make(map[string]*types.Trade),
		historyIndex: make(map[string]int),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Start enables Execute. It fails when the wallet has no identity. With a positive PollInterval
// a background poller refreshes active trades until Stop is called or ctx is done.
func (e *Executor) Start(ctx context.Context) error {
	if !e.wallet.IsInitialized() {
		return errors.New(errors.ErrCodeWalletNotInitialized, "wallet is not initialized")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return errors.New(errors.ErrCodeExecutorRunning, "executor is already running")
	}

	if e.stopped {
		return errors.New(errors.ErrCodeExecutorNotRunning, "executor was stopped and cannot be restarted")
	}

	e.running = true
	e.session.start = e.now()

	if e.config.PollInterval > 0 {
		pollCtx, cancel := context.WithCancel(ctx)
		e.stopPoller = cancel
		e.pollerDone = make(chan struct{})

		go e.poll(pollCtx, e.pollerDone)
	}

	e.logger.Info("Executor started",
		zap.String("wallet", e.wallet.GetPublicKey()),
		zap.Duration("poll_interval", e.config.PollInterval),
	)

	return nil
}

// Stop cancels every active trade that has not reached a final state, stops the poller, and
// closes the backend. Remote cancellations run concurrently and their failures are only logged.
func (e *Executor) Stop(ctx context.Context) error {
	e.mu.Lock()

	if !e.running {
		e.mu.Unlock()

		return nil
	}

	e.running = false
	e.stopped = true
	stopPoller, pollerDone := e.stopPoller, e.pollerDone
	e.stopPoller, e.pollerDone = nil, nil

	now := e.now()

	var cancelled []types.Trade

	for _, id := range e.activeIDsLocked() {
		trade := e.active[id]
		if trade.Transition(types.TradeStatusCancelled, now) != nil {
			continue
		}

		e.finalizeLocked(trade)
		cancelled = append(cancelled, *trade)
	}

	e.mu.Unlock()

	if stopPoller != nil {
		stopPoller()
		<-pollerDone
	}

	var g errgroup.Group

	for _, trade := range cancelled {
		e.persist(trade)

		if trade.OrderID == "" {
			continue
		}

		g.Go(func() error {
			return e.cancelRemote(ctx, trade)
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.Warn("Some remote orders could not be cancelled on stop", zap.Error(err))
	}

	e.logger.Info("Executor stopped", zap.Int("cancelled", len(cancelled)))

	if err := e.backend.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeBackendUnavailable, "failed to close execution backends", err)
	}

	return nil
}

// IsRunning reports whether Execute is accepted.
func (e *Executor) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.running
}

// Execute admits and dispatches a proposal. Errors are returned only for the cases that stop a
// trade before it exists: executor not running, invalid proposal, insufficient balance, a hard
// AI rejection, or non-numeric risk input. A risk rejection is returned as a FAILED trade that
// is already in history, and a dispatch failure as a FAILED trade that stays active until the
// next GetStatus or RefreshActive.
func (e *Executor) Execute(ctx context.Context, proposal types.TradeProposal) (types.Trade, error) {
	if !e.IsRunning() {
		return types.Trade{}, errors.New(errors.ErrCodeExecutorNotRunning, "executor is not running")
	}

	proposal = proposal.Clone()
	if err := proposal.Validate(); err != nil {
		return types.Trade{}, err
	}

	if err := e.checkBalance(ctx); err != nil {
		return types.Trade{}, err
	}

	proposal, err := e.consultValidator(ctx, proposal)
	if err != nil {
		return types.Trade{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return types.Trade{}, errors.Wrap(errors.ErrCodeUnknown, "failed to generate trade id", err)
	}

	now := e.now()
	trade := &types.Trade{
		ID:              id.String(),
		Proposal:        proposal,
		Status:          types.TradeStatusPending,
		WalletPublicKey: e.wallet.GetPublicKey(),
		RequestedAmount: proposal.Amount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if e.risk != nil {
		assessment, err := e.assess(ctx, proposal)
		if err != nil {
			return types.Trade{}, err
		}

		trade.Assessment = optional.Some(assessment)

		if !assessment.IsValid {
			return e.reject(trade, assessment), nil
		}

		trade.RequestedAmount = assessment.DynamicPositionSize
	}

	req := proposal.ToExecuteRequest(trade.ID, trade.RequestedAmount)

	e.mu.Lock()

	// Stop may have run while the validator or the risk manager was consulted.
	if !e.running {
		e.mu.Unlock()

		return types.Trade{}, errors.New(errors.ErrCodeExecutorNotRunning, "executor stopped before the trade was dispatched")
	}

	e.active[trade.ID] = trade
	_ = trade.Transition(types.TradeStatusExecuting, e.now())
	e.session.dispatched++
	e.session.requestedNotional += trade.RequestedAmount * proposal.Price
	e.mu.Unlock()

	e.logger.Debug("Dispatching trade",
		zap.String("trade_id", trade.ID),
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.Float64("amount", req.Amount),
	)

	receipt, dispatchErr := e.backend.ExecuteTrade(ctx, req)

	return e.completeDispatch(ctx, trade.ID, receipt, dispatchErr), nil
}

func (e *Executor) checkBalance(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
	defer cancel()

	balance, err := e.wallet.GetBalance(callCtx)
	if err != nil {
		return err
	}

	if balance < e.config.MinBalance {
		return errors.Newf(errors.ErrCodeInsufficientBalance, "balance %.2f is below the minimum of %.2f", balance, e.config.MinBalance)
	}

	return nil
}

// consultValidator returns the proposal to continue with. A validator failure is recorded in the
// proposal metadata and does not stop the trade.
func (e *Executor) consultValidator(ctx context.Context, proposal types.TradeProposal) (types.TradeProposal, error) {
	if e.validator == nil {
		return proposal, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
	defer cancel()

	result, err := e.validator.ValidateTrade(callCtx, proposal)
	if err != nil {
		e.logger.Warn("AI validation failed, continuing without it",
			zap.String("symbol", proposal.Symbol),
			zap.Error(err),
		)

		e.mu.Lock()
		e.session.aiErrors++
		e.mu.Unlock()

		return proposal.WithMetadata(types.MetadataAIValidationError, err.Error()), nil
	}

	if err := e.gate.Check(result); err != nil {
		e.logger.Info("AI validation rejected trade",
			zap.String("symbol", proposal.Symbol),
			zap.Error(err),
		)

		return proposal, err
	}

	return proposal, nil
}

func (e *Executor) assess(ctx context.Context, proposal types.TradeProposal) (types.RiskAssessment, error) {
	account, err := e.portfolio.Portfolio(ctx, proposal)
	if err != nil {
		return types.RiskAssessment{}, errors.Wrap(errors.ErrCodePortfolioUnavailable, "failed to load portfolio", err)
	}

	if e.cache != nil && e.cache.Snapshot(proposal.Symbol, e.now()).IsNone() {
		if _, err := e.RefreshMarketData(ctx, proposal.Symbol); err != nil {
			e.logger.Warn("Failed to refresh market data before assessment",
				zap.String("symbol", proposal.Symbol),
				zap.Error(err),
			)
		}
	}

	return e.risk.Assess(ctx, proposal, optional.None[types.MarketSnapshot](), account)
}

// reject records a trade refused by the risk manager straight into history.
func (e *Executor) reject(trade *types.Trade, assessment types.RiskAssessment) types.Trade {
	_ = trade.Transition(types.TradeStatusFailed, e.now())
	trade.Error = assessment.Reason
	trade.RequestedAmount = 0

	e.mu.Lock()
	e.session.rejected++
	e.finalizeLocked(trade)
	result := *trade
	e.mu.Unlock()

	e.logger.Info("Trade rejected by risk manager",
		zap.String("trade_id", result.ID),
		zap.String("symbol", result.Proposal.Symbol),
		zap.String("reason", assessment.Reason),
	)

	e.persist(result)

	return result
}

func (e *Executor) completeDispatch(ctx context.Context, id string, receipt backend.Receipt, dispatchErr error) types.Trade {
	e.mu.Lock()

	trade, ok := e.active[id]
	if !ok {
		// Cancelled while the order was in flight. The late result is dropped.
		result, _ := e.historyLocked(id)
		e.mu.Unlock()

		if dispatchErr == nil && receipt.Result.OrderID != "" {
			orphan := result
			orphan.Backend = receipt.Backend
			orphan.OrderID = receipt.Result.OrderID

			if err := e.cancelRemote(ctx, orphan); err != nil {
				e.logger.Warn("Failed to cancel order of a trade cancelled in flight",
					zap.String("trade_id", id),
					zap.Error(err),
				)
			}
		}

		return result
	}

	now := e.now()

	if dispatchErr != nil {
		_ = trade.Fail(dispatchErr, now)
		result := *trade
		e.mu.Unlock()

		e.logger.Warn("Trade dispatch failed",
			zap.String("trade_id", id),
			zap.Error(dispatchErr),
		)

		return result
	}

	trade.Backend = receipt.Backend
	trade.OrderID = receipt.Result.OrderID

	status := receipt.Result.Status
	if status == "" {
		status = types.TradeStatusExecuting
	}

	err := trade.ApplyStatusUpdate(types.OrderStatusUpdate{
		OrderID:      receipt.Result.OrderID,
		Status:       status,
		FilledAmount: receipt.Result.ExecutedAmount,
		AveragePrice: receipt.Result.ExecutedPrice,
	}, now)
	if err != nil {
		e.logger.Warn("Ignoring dispatch result", zap.String("trade_id", id), zap.Error(err))
	}

	finalized := trade.IsTerminal()
	if finalized {
		e.finalizeLocked(trade)
	}

	result := *trade
	e.mu.Unlock()

	if finalized {
		e.persist(result)
	}

	e.logger.Info("Trade dispatched",
		zap.String("trade_id", id),
		zap.String("backend", result.Backend),
		zap.String("order_id", result.OrderID),
		zap.String("status", string(result.Status)),
	)

	return result
}

// Cancel cancels an active trade. It returns false when the trade is not active or already in a
// final state. The remote order is cancelled best-effort after the trade moved to history.
func (e *Executor) Cancel(ctx context.Context, id string) bool {
	e.mu.Lock()

	trade, ok := e.active[id]
	if !ok {
		e.mu.Unlock()

		return false
	}

	if err := trade.Transition(types.TradeStatusCancelled, e.now()); err != nil {
		e.mu.Unlock()

		return false
	}

	e.finalizeLocked(trade)
	result := *trade
	e.mu.Unlock()

	e.persist(result)

	if result.OrderID != "" {
		if err := e.cancelRemote(ctx, result); err != nil {
			e.logger.Warn("Failed to cancel remote order",
				zap.String("trade_id", id),
				zap.String("order_id", result.OrderID),
				zap.Error(err),
			)
		}
	}

	e.logger.Info("Trade cancelled", zap.String("trade_id", id))

	return true
}

func (e *Executor) cancelRemote(ctx context.Context, trade types.Trade) error {
	callCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
	defer cancel()

	return e.backend.CancelOrder(callCtx, trade.Backend, trade.Proposal.Symbol, trade.OrderID)
}

// GetStatus returns the latest state of a trade. Active trades with a live order are polled on
// their backend first; a terminal report moves the trade to history. When the poll fails the
// last known state is returned. A trade whose dispatch failed moves to history on its first
// lookup. Trades in history are returned as recorded.
func (e *Executor) GetStatus(ctx context.Context, id string) (types.Trade, bool) {
	e.mu.Lock()

	trade, ok := e.active[id]
	if !ok {
		result, found := e.historyLocked(id)
		e.mu.Unlock()

		return result, found
	}

	if trade.IsTerminal() {
		e.finalizeLocked(trade)
		result := *trade
		e.mu.Unlock()

		e.persist(result)

		return result, true
	}

	known := *trade
	e.mu.Unlock()

	if known.OrderID == "" {
		return known, true
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
	defer cancel()

	update, ok, err := backend.First(e.backend.MonitorOrderStatus(callCtx, known.Backend, known.Proposal.Symbol, known.OrderID))
	if err != nil || !ok {
		e.logger.Debug("Order status unavailable, returning last known state",
			zap.String("trade_id", id),
			zap.Error(err),
		)

		return known, true
	}

	return e.applyUpdate(id, update), true
}

func (e *Executor) applyUpdate(id string, update types.OrderStatusUpdate) types.Trade {
	e.mu.Lock()

	trade, ok := e.active[id]
	if !ok {
		result, _ := e.historyLocked(id)
		e.mu.Unlock()

		return result
	}

	if err := trade.ApplyStatusUpdate(update, e.now()); err != nil {
		e.logger.Warn("Ignoring order status update", zap.String("trade_id", id), zap.Error(err))
	}

	finalized := trade.IsTerminal()
	if finalized {
		e.finalizeLocked(trade)
	}

	result := *trade
	e.mu.Unlock()

	if finalized {
		e.persist(result)
		e.logger.Info("Trade finalized",
			zap.String("trade_id", id),
			zap.String("status", string(result.Status)),
			zap.Float64("executed_amount", result.ExecutedAmount),
			zap.Float64("executed_price", result.ExecutedPrice),
		)
	}

	return result
}

// RefreshActive moves failed dispatches to history and polls every active trade that has a live
// order once.
func (e *Executor) RefreshActive(ctx context.Context) {
	e.mu.Lock()

	var (
		ids     []string
		settled []types.Trade
	)

	for _, id := range e.activeIDsLocked() {
		trade := e.active[id]

		switch {
		case trade.IsTerminal():
			e.finalizeLocked(trade)
			settled = append(settled, *trade)
		case trade.OrderID != "":
			ids = append(ids, id)
		}
	}

	e.mu.Unlock()

	for _, trade := range settled {
		e.persist(trade)
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}

		e.GetStatus(ctx, id)
	}
}

func (e *Executor) poll(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.RefreshActive(ctx)
		}
	}
}

// RefreshMarketData reads one snapshot for symbol from the backend and stores it in the cache.
func (e *Executor) RefreshMarketData(ctx context.Context, symbol string) (types.MarketSnapshot, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
	defer cancel()

	snapshot, ok, err := backend.First(e.backend.GetMarketData(callCtx, types.MarketDataRequest{
		Symbol: symbol,
		Type:   types.MarketDataOrderBook,
		Depth:  e.config.MarketDataDepth,
	}))
	if err != nil {
		return types.MarketSnapshot{}, err
	}

	if !ok {
		return types.MarketSnapshot{}, errors.Newf(errors.ErrCodeMarketDataMissing, "no market data received for %s", symbol)
	}

	if e.cache != nil {
		e.cache.Put(symbol, snapshot, e.config.SnapshotTTL)
	}

	return snapshot, nil
}

// ListActive returns the active trades ordered by id, which is creation order.
func (e *Executor) ListActive() []types.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	trades := make([]types.Trade, 0, len(e.active))
	for _, id := range e.activeIDsLocked() {
		trades = append(trades, *e.active[id])
	}

	return trades
}

// ListHistory returns finalised trades in the order they left the active map.
func (e *Executor) ListHistory() []types.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slices.Clone(e.history)
}

// Stats summarises the session.
func (e *Executor) Stats() types.ExecutorStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := types.ExecutorStats{
		SessionStart: e.session.start,
		LastUpdated:  e.now(),
		Counts: types.TradeCounts{
			Dispatched: e.session.dispatched,
			Rejected:   e.session.rejected,
			Active:     len(e.active),
		},
		Volume: types.TradeVolume{
			RequestedNotional: e.session.requestedNotional,
		},
		AIValidationErrors: e.session.aiErrors,
	}

	count := func(trade types.Trade) {
		switch trade.Status {
		case types.TradeStatusFilled:
			stats.Counts.Filled++
			stats.Volume.ExecutedNotional += trade.ExecutedAmount * trade.ExecutedPrice
		case types.TradeStatusCancelled:
			stats.Counts.Cancelled++
		case types.TradeStatusFailed:
			stats.Counts.Failed++
		}
	}

	for _, trade := range e.history {
		count(trade)
	}

	for _, trade := range e.active {
		count(*trade)
	}

	if stats.Counts.Dispatched > 0 {
		stats.FillRate = float64(stats.Counts.Filled) / float64(stats.Counts.Dispatched)
	}

	return stats
}

func (e *Executor) activeIDsLocked() []string {
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

func (e *Executor) historyLocked(id string) (types.Trade, bool) {
	idx, ok := e.historyIndex[id]
	if !ok {
		return types.Trade{}, false
	}

	return e.history[idx], true
}

// finalizeLocked moves a trade from the active map to history.
func (e *Executor) finalizeLocked(trade *types.Trade) {
	delete(e.active, trade.ID)
	e.historyIndex[trade.ID] = len(e.history)
	e.history = append(e.history, *trade)
}

func (e *Executor) persist(trade types.Trade) {
	if e.sink == nil {
		return
	}

	if err := e.sink.Write(trade); err != nil {
		e.logger.Error("Failed to write trade to history",
			zap.String("trade_id", trade.ID),
			zap.Error(err),
		)
	}
}
