package backend

import (
	"context"
	stderrors "errors"
	"net"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// mockBinanceClient implements BinanceClient interface for testing
type mockBinanceClient struct {
	createOrderService *mockCreateOrderService
	getOrderService    *mockGetOrderService
	cancelOrderService *mockCancelOrderService
	depthService       *mockDepthService
	statsService       *mockPriceChangeStatsService
}

func newMockBinanceClient() *mockBinanceClient {
	return &mockBinanceClient{
		createOrderService: &mockCreateOrderService{},
		getOrderService:    &mockGetOrderService{},
		cancelOrderService: &mockCancelOrderService{},
		depthService:       &mockDepthService{},
		statsService:       &mockPriceChangeStatsService{},
	}
}

func (m *mockBinanceClient) NewCreateOrderService() CreateOrderService {
	return m.createOrderService
}

func (m *mockBinanceClient) NewGetOrderService() GetOrderService {
	return m.getOrderService
}

func (m *mockBinanceClient) NewCancelOrderService() CancelOrderService {
	return m.cancelOrderService
}

func (m *mockBinanceClient) NewDepthService() DepthService {
	return m.depthService
}

func (m *mockBinanceClient) NewListPriceChangeStatsService() PriceChangeStatsService {
	return m.statsService
}

type mockCreateOrderService struct {
	response      *binance.CreateOrderResponse
	err           error
	symbol        string
	side          binance.SideType
	orderTyp      binance.OrderType
	quantity      string
	price         string
	tif           binance.TimeInForceType
	clientOrderID string
}

func (m *mockCreateOrderService) Symbol(symbol string) CreateOrderService {
	m.symbol = symbol
	return m
}

func (m *mockCreateOrderService) Side(side binance.SideType) CreateOrderService {
	m.side = side
	return m
}

func (m *mockCreateOrderService) Type(orderType binance.OrderType) CreateOrderService {
	m.orderTyp = orderType
	return m
}

func (m *mockCreateOrderService) Quantity(quantity string) CreateOrderService {
	m.quantity = quantity
	return m
}

func (m *mockCreateOrderService) Price(price string) CreateOrderService {
	m.price = price
	return m
}

func (m *mockCreateOrderService) TimeInForce(tif binance.TimeInForceType) CreateOrderService {
	m.tif = tif
	return m
}

func (m *mockCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	m.clientOrderID = id
	return m
}

func (m *mockCreateOrderService) Do(_ context.Context) (*binance.CreateOrderResponse, error) {
	return m.response, m.err
}

// mockGetOrderService returns the configured orders one per call and repeats the last one.
type mockGetOrderService struct {
	orders  []*binance.Order
	err     error
	symbol  string
	orderID int64
	calls   int
}

func (m *mockGetOrderService) Symbol(symbol string) GetOrderService {
	m.symbol = symbol
	return m
}

func (m *mockGetOrderService) OrderID(orderID int64) GetOrderService {
	m.orderID = orderID
	return m
}

func (m *mockGetOrderService) Do(_ context.Context) (*binance.Order, error) {
	if m.err != nil {
		return nil, m.err
	}

	idx := min(m.calls, len(m.orders)-1)
	m.calls++

	return m.orders[idx], nil
}

type mockCancelOrderService struct {
	response *binance.CancelOrderResponse
	err      error
	symbol   string
	orderID  int64
}

func (m *mockCancelOrderService) Symbol(symbol string) CancelOrderService {
	m.symbol = symbol
	return m
}

func (m *mockCancelOrderService) OrderID(orderID int64) CancelOrderService {
	m.orderID = orderID
	return m
}

func (m *mockCancelOrderService) Do(_ context.Context) (*binance.CancelOrderResponse, error) {
	return m.response, m.err
}

type mockDepthService struct {
	response *binance.DepthResponse
	err      error
	symbol   string
	limit    int
}

func (m *mockDepthService) Symbol(symbol string) DepthService {
	m.symbol = symbol
	return m
}

func (m *mockDepthService) Limit(limit int) DepthService {
	m.limit = limit
	return m
}

func (m *mockDepthService) Do(_ context.Context) (*binance.DepthResponse, error) {
	return m.response, m.err
}

type mockPriceChangeStatsService struct {
	stats  []*binance.PriceChangeStats
	err    error
	symbol string
}

func (m *mockPriceChangeStatsService) Symbol(symbol string) PriceChangeStatsService {
	m.symbol = symbol
	return m
}

func (m *mockPriceChangeStatsService) Do(_ context.Context) ([]*binance.PriceChangeStats, error) {
	return m.stats, m.err
}

type BinanceConnectionTestSuite struct {
	suite.Suite
	client *mockBinanceClient
	conn   *BinanceConnection
}

func TestBinanceConnectionSuite(t *testing.T) {
	suite.Run(t, new(BinanceConnectionTestSuite))
}

func (suite *BinanceConnectionTestSuite) SetupTest() {
	suite.client = newMockBinanceClient()
	suite.conn = newBinanceConnectionWithClient("binance-1", suite.client, time.Millisecond, logger.NewNopLogger())
}

func (suite *BinanceConnectionTestSuite) TestBinanceConfigValidate() {
	config := BinanceConfig{ApiKey: "test-api-key", SecretKey: "test-secret-key"}
	suite.NoError(config.Validate())

	empty := BinanceConfig{}
	err := empty.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *BinanceConnectionTestSuite) TestNewBinanceConnection() {
	config := BinanceConfig{ApiKey: "test-api-key", SecretKey: "test-secret-key"}

	conn, err := NewBinanceConnection("https://binance.internal:8443", config, true, logger.NewNopLogger())
	suite.NoError(err)
	suite.Equal("https://binance.internal:8443", conn.Name())

	realClient, ok := conn.client.(*realBinanceClient)
	suite.Require().True(ok)
	suite.Equal("https://binance.internal:8443", realClient.client.BaseURL)

	conn, err = NewBinanceConnection("paper", config, true, logger.NewNopLogger())
	suite.NoError(err)
	suite.Equal(binanceTestnetURL, conn.client.(*realBinanceClient).client.BaseURL)

	_, err = NewBinanceConnection("paper", BinanceConfig{}, true, logger.NewNopLogger())
	suite.Error(err)
}

func (suite *BinanceConnectionTestSuite) TestBinanceSymbol() {
	suite.Equal("SOLUSDT", BinanceSymbol("SOL/USDT"))
	suite.Equal("BTCUSDT", BinanceSymbol("btc-usdt"))
	suite.Equal("ETHUSDT", BinanceSymbol("ETHUSDT"))
}

func (suite *BinanceConnectionTestSuite) TestMapOrderStatus() {
	tests := []struct {
		status   binance.OrderStatusType
		expected types.TradeStatus
	}{
		{binance.OrderStatusTypeNew, types.TradeStatusPending},
		{binance.OrderStatusTypePartiallyFilled, types.TradeStatusExecuting},
		{binance.OrderStatusTypeFilled, types.TradeStatusFilled},
		{binance.OrderStatusTypeCanceled, types.TradeStatusCancelled},
		{binance.OrderStatusTypePendingCancel, types.TradeStatusCancelled},
		{binance.OrderStatusTypeRejected, types.TradeStatusFailed},
		{binance.OrderStatusTypeExpired, types.TradeStatusFailed},
	}

	for _, tt := range tests {
		suite.Run(string(tt.status), func() {
			suite.Equal(tt.expected, mapOrderStatus(tt.status))
		})
	}
}

func (suite *BinanceConnectionTestSuite) TestExecuteTradeMarketBuy() {
	suite.client.createOrderService.response = &binance.CreateOrderResponse{
		OrderID:                  12345,
		Symbol:                   "SOLUSD",
		Status:                   binance.OrderStatusTypeFilled,
		ExecutedQuantity:         "2",
		CummulativeQuoteQuantity: "201",
	}

	result, err := suite.conn.ExecuteTrade(context.Background(), types.ExecuteRequest{
		ClientOrderID: "trade-1",
		Symbol:        "SOL/USD",
		Side:          types.SideBuy,
		Amount:        2,
		OrderType:     types.OrderTypeMarket,
	})
	suite.NoError(err)
	suite.Equal("12345", result.OrderID)
	suite.Equal(types.TradeStatusFilled, result.Status)
	suite.Equal(2.0, result.ExecutedAmount)
	suite.Equal(100.5, result.ExecutedPrice)

	suite.Equal("SOLUSD", suite.client.createOrderService.symbol)
	suite.Equal(binance.SideTypeBuy, suite.client.createOrderService.side)
	suite.Equal(binance.OrderTypeMarket, suite.client.createOrderService.orderTyp)
	suite.Equal("2.00000000", suite.client.createOrderService.quantity)
	suite.Equal("trade-1", suite.client.createOrderService.clientOrderID)
	suite.Empty(suite.client.createOrderService.price)
}

func (suite *BinanceConnectionTestSuite) TestExecuteTradeLimitSell() {
	suite.client.createOrderService.response = &binance.CreateOrderResponse{
		OrderID: 777,
		Status:  binance.OrderStatusTypeNew,
		Price:   "99.5",
	}

	result, err := suite.conn.ExecuteTrade(context.Background(), types.ExecuteRequest{
		Symbol:    "SOL/USD",
		Side:      types.SideSell,
		Amount:    1,
		Price:     99.5,
		OrderType: types.OrderTypeLimit,
	})
	suite.NoError(err)
	suite.Equal(types.TradeStatusPending, result.Status)
	suite.Equal(99.5, result.ExecutedPrice)
	suite.Equal("99.5", suite.client.createOrderService.price)
	suite.Equal(binance.TimeInForceTypeGTC, suite.client.createOrderService.tif)
	suite.Equal(binance.SideTypeSell, suite.client.createOrderService.side)
}

func (suite *BinanceConnectionTestSuite) TestExecuteTradeInvalidInput() {
	_, err := suite.conn.ExecuteTrade(context.Background(), types.ExecuteRequest{
		Symbol: "SOL/USD", Side: "HOLD", Amount: 1, OrderType: types.OrderTypeMarket,
	})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = suite.conn.ExecuteTrade(context.Background(), types.ExecuteRequest{
		Symbol: "SOL/USD", Side: types.SideBuy, Amount: 1, OrderType: "STOP",
	})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = suite.conn.ExecuteTrade(context.Background(), types.ExecuteRequest{
		Symbol: "SOL/USD", Side: types.SideBuy, Amount: 0.000000001, OrderType: types.OrderTypeMarket,
	})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *BinanceConnectionTestSuite) TestExecuteTradeErrorClassification() {
	req := types.ExecuteRequest{Symbol: "SOL/USD", Side: types.SideBuy, Amount: 1, OrderType: types.OrderTypeMarket}

	suite.client.createOrderService.err = &common.APIError{Code: -2010, Message: "Account has insufficient balance"}
	_, err := suite.conn.ExecuteTrade(context.Background(), req)
	suite.True(errors.HasCode(err, errors.ErrCodeOrderFailed))
	suite.False(isTransient(err))

	suite.client.createOrderService.err = &net.OpError{Op: "dial", Net: "tcp", Err: stderrors.New("connection refused")}
	_, err = suite.conn.ExecuteTrade(context.Background(), req)
	suite.True(errors.HasCode(err, errors.ErrCodeBackendUnavailable))
	suite.True(isUnsent(err))

	// The request may have reached the exchange before the connection dropped.
	suite.client.createOrderService.err = stderrors.New("connection reset by peer")
	_, err = suite.conn.ExecuteTrade(context.Background(), req)
	suite.True(errors.HasCode(err, errors.ErrCodeBackendTimeout))
	suite.True(isTransient(err))
	suite.False(isUnsent(err))
}

func (suite *BinanceConnectionTestSuite) TestMonitorOrderStatusUntilFilled() {
	suite.client.getOrderService.orders = []*binance.Order{
		{OrderID: 12345, Status: binance.OrderStatusTypeNew, OrigQuantity: "2", ExecutedQuantity: "0", Price: "100"},
		{OrderID: 12345, Status: binance.OrderStatusTypeNew, OrigQuantity: "2", ExecutedQuantity: "0", Price: "100"},
		{OrderID: 12345, Status: binance.OrderStatusTypePartiallyFilled, OrigQuantity: "2", ExecutedQuantity: "1", CummulativeQuoteQuantity: "100", Price: "100"},
		{OrderID: 12345, Status: binance.OrderStatusTypeFilled, OrigQuantity: "2", ExecutedQuantity: "2", CummulativeQuoteQuantity: "201", Price: "100"},
	}

	var updates []types.OrderStatusUpdate

	for update, err := range suite.conn.MonitorOrderStatus(context.Background(), "SOL/USD", "12345") {
		suite.Require().NoError(err)
		updates = append(updates, update)
	}

	suite.Require().Len(updates, 3)
	suite.Equal(types.TradeStatusPending, updates[0].Status)
	suite.Equal(2.0, updates[0].RemainingAmount)
	suite.Equal(types.TradeStatusExecuting, updates[1].Status)
	suite.Equal(1.0, updates[1].FilledAmount)
	suite.Equal(types.TradeStatusFilled, updates[2].Status)
	suite.Equal(0.0, updates[2].RemainingAmount)
	suite.Equal(100.5, updates[2].AveragePrice)
	suite.Equal("SOLUSD", suite.client.getOrderService.symbol)
	suite.Equal(int64(12345), suite.client.getOrderService.orderID)
}

func (suite *BinanceConnectionTestSuite) TestMonitorOrderStatusErrors() {
	update, ok, err := First(suite.conn.MonitorOrderStatus(context.Background(), "SOL/USD", "not-a-number"))
	suite.True(ok)
	suite.Empty(update.OrderID)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	suite.client.getOrderService.err = stderrors.New("timeout")
	_, ok, err = First(suite.conn.MonitorOrderStatus(context.Background(), "SOL/USD", "1"))
	suite.True(ok)
	suite.True(errors.HasCode(err, errors.ErrCodeBackendUnavailable))
}

func (suite *BinanceConnectionTestSuite) TestCancelOrder() {
	suite.client.cancelOrderService.response = &binance.CancelOrderResponse{OrderID: 12345}

	err := suite.conn.CancelOrder(context.Background(), "SOL/USD", "12345")
	suite.NoError(err)
	suite.Equal("SOLUSD", suite.client.cancelOrderService.symbol)
	suite.Equal(int64(12345), suite.client.cancelOrderService.orderID)

	err = suite.conn.CancelOrder(context.Background(), "SOL/USD", "abc")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	suite.client.cancelOrderService.err = &common.APIError{Code: -2011, Message: "Unknown order sent."}
	err = suite.conn.CancelOrder(context.Background(), "SOL/USD", "12345")
	suite.True(errors.HasCode(err, errors.ErrCodeOrderFailed))
}

func (suite *BinanceConnectionTestSuite) TestGetMarketDataSnapshot() {
	suite.client.statsService.stats = []*binance.PriceChangeStats{
		{Symbol: "SOLUSD", LastPrice: "100", HighPrice: "110", LowPrice: "90", QuoteVolume: "5000000"},
	}
	suite.client.depthService.response = &binance.DepthResponse{
		Bids: []binance.Bid{{Price: "99.9", Quantity: "1000"}, {Price: "99.8", Quantity: "500"}},
		Asks: []binance.Ask{{Price: "100.1", Quantity: "1000"}},
	}

	snapshot, ok, err := First(suite.conn.GetMarketData(context.Background(), types.MarketDataRequest{
		Symbol: "SOL/USD",
		Type:   types.MarketDataOrderBook,
		Depth:  5,
	}))
	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal("SOL/USD", snapshot.Symbol)
	suite.Equal(100.0, snapshot.Price)
	suite.Equal(5_000_000.0, snapshot.Volume)
	suite.InDelta(0.2, snapshot.Volatility, 1e-12)
	suite.InDelta(99.9*1000+99.8*500+100.1*1000, snapshot.Liquidity, 1e-6)
	suite.InDelta(0.2/100, snapshot.Spread, 1e-9)
	suite.Equal(types.SnapshotSourceLive, snapshot.Source)
	suite.Equal(5, suite.client.depthService.limit)
	suite.Equal("SOLUSD", suite.client.depthService.symbol)
}

func (suite *BinanceConnectionTestSuite) TestGetMarketDataErrors() {
	_, _, err := First(suite.conn.GetMarketData(context.Background(), types.MarketDataRequest{Symbol: "SOL/USD"}))
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFailed))

	suite.client.statsService.err = stderrors.New("dns failure")
	_, _, err = First(suite.conn.GetMarketData(context.Background(), types.MarketDataRequest{Symbol: "SOL/USD"}))
	suite.True(errors.HasCode(err, errors.ErrCodeBackendUnavailable))
}

func (suite *BinanceConnectionTestSuite) TestBatchExecuteTradesNonAtomic() {
	suite.client.createOrderService.response = &binance.CreateOrderResponse{OrderID: 1, Status: binance.OrderStatusTypeNew}

	result, err := suite.conn.BatchExecuteTrades(context.Background(), []types.ExecuteRequest{
		{Symbol: "SOL/USD", Side: types.SideBuy, Amount: 1, OrderType: types.OrderTypeMarket},
		{Symbol: "SOL/USD", Side: "HOLD", Amount: 1, OrderType: types.OrderTypeMarket},
	}, false)
	suite.NoError(err)
	suite.Equal(1, result.Succeeded)
	suite.Equal(1, result.Failed)
	suite.False(result.RolledBack)
	suite.NotEmpty(result.Results[1].Error)
}
