package backend

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SimulatorTestSuite struct {
	suite.Suite
	config SimulatorConfig
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorTestSuite))
}

func (suite *SimulatorTestSuite) SetupTest() {
	suite.config = SimulatorConfig{
		TickInterval: time.Millisecond,
		SeedPrices:   map[string]float64{"SOL/USD": 100},
		Liquidity:    1_000_000,
		Volume:       10_000_000,
		Volatility:   0.3,
		Spread:       0.002,
		Seed:         7,
	}
}

func (suite *SimulatorTestSuite) newSimulator() *SimulatorConnection {
	return NewSimulatorConnection("sim-1", suite.config, logger.NewNopLogger())
}

func marketOrder(symbol string, side types.Side, amount float64) types.ExecuteRequest {
	return types.ExecuteRequest{Symbol: symbol, Side: side, Amount: amount, OrderType: types.OrderTypeMarket}
}

func (suite *SimulatorTestSuite) TestMarketOrdersFillAgainstTheTaker() {
	sim := suite.newSimulator()

	buy, err := sim.ExecuteTrade(context.Background(), marketOrder("SOL/USD", types.SideBuy, 2))
	suite.Require().NoError(err)
	suite.NotEmpty(buy.OrderID)
	suite.Equal(types.TradeStatusFilled, buy.Status)
	suite.Equal(2.0, buy.ExecutedAmount)
	suite.Equal(100.1, buy.ExecutedPrice)

	sell, err := sim.ExecuteTrade(context.Background(), marketOrder("SOL/USD", types.SideSell, 1))
	suite.Require().NoError(err)
	suite.Equal(99.9, sell.ExecutedPrice)
	suite.NotEqual(buy.OrderID, sell.OrderID)
	suite.Equal(2, sim.OrderCount())
}

func (suite *SimulatorTestSuite) TestLimitOrderFillsAtLimitPrice() {
	sim := suite.newSimulator()

	result, err := sim.ExecuteTrade(context.Background(), types.ExecuteRequest{
		Symbol: "SOL/USD", Side: types.SideBuy, Amount: 1, Price: 98, OrderType: types.OrderTypeLimit,
	})
	suite.Require().NoError(err)
	suite.Equal(98.0, result.ExecutedPrice)
}

func (suite *SimulatorTestSuite) TestExecuteTradeRejectsInvalidInput() {
	sim := suite.newSimulator()

	_, err := sim.ExecuteTrade(context.Background(), marketOrder("SOL/USD", types.SideBuy, 0))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = sim.ExecuteTrade(context.Background(), marketOrder("DOGE/USD", types.SideBuy, 1))
	suite.True(errors.HasCode(err, errors.ErrCodeOrderFailed))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sim.ExecuteTrade(ctx, marketOrder("SOL/USD", types.SideBuy, 1))
	suite.True(errors.HasCode(err, errors.ErrCodeBackendTimeout))
}

func (suite *SimulatorTestSuite) TestFailNextAndClose() {
	sim := suite.newSimulator()
	sim.FailNext(1)

	_, err := sim.ExecuteTrade(context.Background(), marketOrder("SOL/USD", types.SideBuy, 1))
	suite.True(errors.HasCode(err, errors.ErrCodeBackendUnavailable))

	_, err = sim.ExecuteTrade(context.Background(), marketOrder("SOL/USD", types.SideBuy, 1))
	suite.NoError(err)

	suite.NoError(sim.Close())

	_, err = sim.ExecuteTrade(context.Background(), marketOrder("SOL/USD", types.SideBuy, 1))
	suite.True(errors.HasCode(err, errors.ErrCodeBackendUnavailable))
}

func (suite *SimulatorTestSuite) TestMonitorOrderStatusUntilFilled() {
	suite.config.FillLatency = 30 * time.Millisecond
	sim := suite.newSimulator()

	result, err := sim.ExecuteTrade(context.Background(), marketOrder("SOL/USD", types.SideBuy, 3))
	suite.Require().NoError(err)
	suite.Equal(types.TradeStatusPending, result.Status)
	suite.Zero(result.ExecutedAmount)

	var statuses []types.TradeStatus

	var last types.OrderStatusUpdate

	for update, err := range sim.MonitorOrderStatus(context.Background(), "SOL/USD", result.OrderID) {
		suite.Require().NoError(err)
		statuses = append(statuses, update.Status)
		last = update
	}

	suite.Equal(types.TradeStatusPending, statuses[0])
	suite.Equal(types.TradeStatusFilled, statuses[len(statuses)-1])
	suite.Equal(3.0, last.FilledAmount)
	suite.Zero(last.RemainingAmount)
	suite.Equal(100.1, last.AveragePrice)
}

func (suite *SimulatorTestSuite) TestMonitorOrderStatusStopsOnContext() {
	suite.config.FillLatency = time.Hour
	sim := suite.newSimulator()

	result, err := sim.ExecuteTrade(context.Background(), marketOrder("SOL/USD", types.SideBuy, 1))
	suite.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var lastErr error

	count := 0

	for _, err := range sim.MonitorOrderStatus(ctx, "SOL/USD", result.OrderID) {
		count++
		lastErr = err
	}

	suite.Equal(2, count)
	suite.True(errors.HasCode(lastErr, errors.ErrCodeBackendTimeout))

	_, _, err = First(sim.MonitorOrderStatus(context.Background(), "SOL/USD", "missing"))
	suite.True(errors.HasCode(err, errors.ErrCodeOrderNotFound))
}

func (suite *SimulatorTestSuite) TestCancelOrder() {
	suite.config.FillLatency = time.Hour
	sim := suite.newSimulator()

	pending, err := sim.ExecuteTrade(context.Background(), marketOrder("SOL/USD", types.SideBuy, 1))
	suite.Require().NoError(err)

	suite.NoError(sim.CancelOrder(context.Background(), "SOL/USD", pending.OrderID))
	suite.NoError(sim.CancelOrder(context.Background(), "SOL/USD", pending.OrderID))

	update, ok, err := First(sim.MonitorOrderStatus(context.Background(), "SOL/USD", pending.OrderID))
	suite.NoError(err)
	suite.True(ok)
	suite.Equal(types.TradeStatusCancelled, update.Status)

	err = sim.CancelOrder(context.Background(), "SOL/USD", "missing")
	suite.True(errors.HasCode(err, errors.ErrCodeOrderNotFound))
}

func (suite *SimulatorTestSuite) TestCancelFilledOrderFails() {
	sim := suite.newSimulator()

	filled, err := sim.ExecuteTrade(context.Background(), marketOrder("SOL/USD", types.SideBuy, 1))
	suite.Require().NoError(err)

	err = sim.CancelOrder(context.Background(), "SOL/USD", filled.OrderID)
	suite.True(errors.HasCode(err, errors.ErrCodeOrderFailed))
}

func (suite *SimulatorTestSuite) TestMarketDataStream() {
	sim := suite.newSimulator()

	var snapshots []types.MarketSnapshot

	for snapshot, err := range sim.GetMarketData(context.Background(), types.MarketDataRequest{Symbol: "SOL/USD", Type: types.MarketDataTicker}) {
		suite.Require().NoError(err)

		snapshots = append(snapshots, snapshot)
		if len(snapshots) == 3 {
			break
		}
	}

	suite.Require().Len(snapshots, 3)

	for _, snapshot := range snapshots {
		suite.Equal("SOL/USD", snapshot.Symbol)
		suite.Positive(snapshot.Price)
		suite.Equal(1_000_000.0, snapshot.Liquidity)
		suite.Equal(0.002, snapshot.Spread)
		suite.Equal(types.SnapshotSourceLive, snapshot.Source)
		suite.False(snapshot.Timestamp.IsZero())
	}

	other := suite.newSimulator()
	first, ok, err := First(other.GetMarketData(context.Background(), types.MarketDataRequest{Symbol: "SOL/USD"}))
	suite.NoError(err)
	suite.True(ok)
	suite.Equal(snapshots[0].Price, first.Price)
}

func (suite *SimulatorTestSuite) TestMarketDataOrderBookDepthAndErrors() {
	sim := suite.newSimulator()

	snapshot, _, err := First(sim.GetMarketData(context.Background(), types.MarketDataRequest{
		Symbol: "SOL/USD", Type: types.MarketDataOrderBook, Depth: 5,
	}))
	suite.NoError(err)
	suite.Equal(250_000.0, snapshot.Liquidity)

	_, _, err = First(sim.GetMarketData(context.Background(), types.MarketDataRequest{Symbol: "DOGE/USD"}))
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFailed))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = First(sim.GetMarketData(ctx, types.MarketDataRequest{Symbol: "SOL/USD"}))
	suite.True(errors.HasCode(err, errors.ErrCodeBackendTimeout))
}

func (suite *SimulatorTestSuite) TestAtomicBatchRollsBack() {
	suite.config.FillLatency = time.Hour
	sim := suite.newSimulator()

	result, err := sim.BatchExecuteTrades(context.Background(), []types.ExecuteRequest{
		marketOrder("SOL/USD", types.SideBuy, 1),
		marketOrder("SOL/USD", types.SideBuy, 2),
		marketOrder("DOGE/USD", types.SideBuy, 3),
		marketOrder("SOL/USD", types.SideBuy, 4),
	}, true)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBatchRolledBack))
	suite.True(result.Atomic)
	suite.True(result.RolledBack)
	suite.Equal(2, result.Succeeded)
	suite.Equal(1, result.Failed)
	suite.Require().Len(result.Results, 3)
	suite.Equal(2, sim.OrderCount())

	for _, item := range result.Results[:2] {
		suite.Equal(types.TradeStatusCancelled, item.Result.Status)
		suite.Empty(item.Error)

		update, _, err := First(sim.MonitorOrderStatus(context.Background(), "SOL/USD", item.Result.OrderID))
		suite.NoError(err)
		suite.Equal(types.TradeStatusCancelled, update.Status)
	}

	suite.NotEmpty(result.Results[2].Error)
}

func (suite *SimulatorTestSuite) TestAtomicBatchCannotUndoFilledOrders() {
	sim := suite.newSimulator()

	result, err := sim.BatchExecuteTrades(context.Background(), []types.ExecuteRequest{
		marketOrder("SOL/USD", types.SideBuy, 1),
		marketOrder("DOGE/USD", types.SideBuy, 1),
	}, true)
	suite.True(errors.HasCode(err, errors.ErrCodeBatchRolledBack))
	suite.True(result.RolledBack)
	suite.Equal(types.TradeStatusFilled, result.Results[0].Result.Status)
	suite.Contains(result.Results[0].Error, "already filled")
}

func (suite *SimulatorTestSuite) TestNonAtomicBatchIsBestEffort() {
	sim := suite.newSimulator()

	result, err := sim.BatchExecuteTrades(context.Background(), []types.ExecuteRequest{
		marketOrder("SOL/USD", types.SideBuy, 1),
		marketOrder("DOGE/USD", types.SideBuy, 1),
		marketOrder("SOL/USD", types.SideSell, 1),
	}, false)
	suite.NoError(err)
	suite.False(result.RolledBack)
	suite.Equal(2, result.Succeeded)
	suite.Equal(1, result.Failed)
	suite.Len(result.Results, 3)

	empty, err := sim.BatchExecuteTrades(context.Background(), nil, true)
	suite.NoError(err)
	suite.Empty(empty.Results)
}
