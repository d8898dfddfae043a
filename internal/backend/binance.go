package backend

import (
	"context"
	"iter"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// BinanceDecimalPrecision is the quantity precision sent to Binance.
	BinanceDecimalPrecision = 8

	binanceTestnetURL   = "https://testnet.binance.vision"
	defaultDepthLimit   = 20
	defaultPollInterval = time.Second
)

// Service interfaces for mocking the Binance API

type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side binance.SideType) CreateOrderService
	Type(orderType binance.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Price(price string) CreateOrderService
	TimeInForce(tif binance.TimeInForceType) CreateOrderService
	NewClientOrderID(id string) CreateOrderService
	Do(ctx context.Context) (*binance.CreateOrderResponse, error)
}

type GetOrderService interface {
	Symbol(symbol string) GetOrderService
	OrderID(orderID int64) GetOrderService
	Do(ctx context.Context) (*binance.Order, error)
}

type CancelOrderService interface {
	Symbol(symbol string) CancelOrderService
	OrderID(orderID int64) CancelOrderService
	Do(ctx context.Context) (*binance.CancelOrderResponse, error)
}

type DepthService interface {
	Symbol(symbol string) DepthService
	Limit(limit int) DepthService
	Do(ctx context.Context) (*binance.DepthResponse, error)
}

type PriceChangeStatsService interface {
	Symbol(symbol string) PriceChangeStatsService
	Do(ctx context.Context) ([]*binance.PriceChangeStats, error)
}

// BinanceClient abstracts the Binance REST client for testing.
type BinanceClient interface {
	NewCreateOrderService() CreateOrderService
	NewGetOrderService() GetOrderService
	NewCancelOrderService() CancelOrderService
	NewDepthService() DepthService
	NewListPriceChangeStatsService() PriceChangeStatsService
}

type realBinanceClient struct {
	client *binance.Client
}

func (r *realBinanceClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

func (r *realBinanceClient) NewGetOrderService() GetOrderService {
	return &realGetOrderService{service: r.client.NewGetOrderService()}
}

func (r *realBinanceClient) NewCancelOrderService() CancelOrderService {
	return &realCancelOrderService{service: r.client.NewCancelOrderService()}
}

func (r *realBinanceClient) NewDepthService() DepthService {
	return &realDepthService{service: r.client.NewDepthService()}
}

func (r *realBinanceClient) NewListPriceChangeStatsService() PriceChangeStatsService {
	return &realPriceChangeStatsService{service: r.client.NewListPriceChangeStatsService()}
}

type realCreateOrderService struct {
	service *binance.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side binance.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) Type(orderType binance.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) Price(price string) CreateOrderService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOrderService) TimeInForce(tif binance.TimeInForceType) CreateOrderService {
	s.service = s.service.TimeInForce(tif)

	return s
}

func (s *realCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	s.service = s.service.NewClientOrderID(id)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*binance.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realGetOrderService struct {
	service *binance.GetOrderService
}

func (s *realGetOrderService) Symbol(symbol string) GetOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realGetOrderService) OrderID(orderID int64) GetOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realGetOrderService) Do(ctx context.Context) (*binance.Order, error) {
	return s.service.Do(ctx)
}

type realCancelOrderService struct {
	service *binance.CancelOrderService
}

func (s *realCancelOrderService) Symbol(symbol string) CancelOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelOrderService) OrderID(orderID int64) CancelOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realCancelOrderService) Do(ctx context.Context) (*binance.CancelOrderResponse, error) {
	return s.service.Do(ctx)
}

type realDepthService struct {
	service *binance.DepthService
}

func (s *realDepthService) Symbol(symbol string) DepthService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realDepthService) Limit(limit int) DepthService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realDepthService) Do(ctx context.Context) (*binance.DepthResponse, error) {
	return s.service.Do(ctx)
}

type realPriceChangeStatsService struct {
	service *binance.ListPriceChangeStatsService
}

func (s *realPriceChangeStatsService) Symbol(symbol string) PriceChangeStatsService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realPriceChangeStatsService) Do(ctx context.Context) ([]*binance.PriceChangeStats, error) {
	return s.service.Do(ctx)
}

// BinanceConnection is an execution backend on the Binance spot REST API.
type BinanceConnection struct {
	name         string
	client       BinanceClient
	pollInterval time.Duration
	logger       *logger.Logger
}

// NewBinanceConnection creates a connection for one address. An address starting with http is
// used as the REST base URL; any other address only names the connection and the default
// endpoint of the environment is used.
func NewBinanceConnection(address string, config BinanceConfig, useTestnet bool, log *logger.Logger) (*BinanceConnection, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := binance.NewClient(config.ApiKey, config.SecretKey)
	if useTestnet {
		client.BaseURL = binanceTestnetURL
	}

	if strings.HasPrefix(address, "http://") || strings.HasPrefix(address, "https://") {
		client.BaseURL = address
	}

	conn := newBinanceConnectionWithClient(address, &realBinanceClient{client: client}, config.PollInterval, log)

	conn.logger.Info("Binance backend created",
		zap.String("base_url", client.BaseURL),
		zap.Bool("testnet", useTestnet),
	)

	return conn, nil
}

// newBinanceConnectionWithClient is used for testing with mock clients.
func newBinanceConnectionWithClient(name string, client BinanceClient, pollInterval time.Duration, log *logger.Logger) *BinanceConnection {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &BinanceConnection{
		name:         name,
		client:       client,
		pollInterval: pollInterval,
		logger:       log.Named("binance").With(zap.String("backend", name)),
	}
}

func (b *BinanceConnection) Name() string {
	return b.name
}

func (b *BinanceConnection) ExecuteTrade(ctx context.Context, req types.ExecuteRequest) (types.ExecuteResult, error) {
	var side binance.SideType

	switch req.Side {
	case types.SideBuy:
		side = binance.SideTypeBuy
	case types.SideSell:
		side = binance.SideTypeSell
	default:
		return types.ExecuteResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order side: %s", req.Side)
	}

	var orderType binance.OrderType

	switch req.OrderType {
	case types.OrderTypeMarket:
		orderType = binance.OrderTypeMarket
	case types.OrderTypeLimit:
		orderType = binance.OrderTypeLimit
	default:
		return types.ExecuteResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order type: %s", req.OrderType)
	}

	quantity := decimal.NewFromFloat(req.Amount).Truncate(BinanceDecimalPrecision)
	if !quantity.IsPositive() {
		return types.ExecuteResult{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"order quantity %.8f is too small after rounding to %d decimal places", req.Amount, BinanceDecimalPrecision)
	}

	service := b.client.NewCreateOrderService().
		Symbol(BinanceSymbol(req.Symbol)).
		Side(side).
		Type(orderType).
		Quantity(quantity.StringFixed(BinanceDecimalPrecision))

	if req.ClientOrderID != "" {
		service = service.NewClientOrderID(req.ClientOrderID)
	}

	if req.OrderType == types.OrderTypeLimit {
		service = service.
			Price(strconv.FormatFloat(req.Price, 'f', -1, 64)).
			TimeInForce(binance.TimeInForceTypeGTC)
	}

	resp, err := service.Do(ctx)
	if err != nil {
		return types.ExecuteResult{}, classifyPlacementError(ctx, err)
	}

	executed := parseFloat(resp.ExecutedQuantity)
	result := types.ExecuteResult{
		OrderID:        strconv.FormatInt(resp.OrderID, 10),
		Status:         mapOrderStatus(resp.Status),
		ExecutedAmount: executed,
		ExecutedPrice:  averagePrice(resp.CummulativeQuoteQuantity, executed, resp.Price),
	}

	b.logger.Debug("Order placed",
		zap.String("order_id", result.OrderID),
		zap.String("symbol", req.Symbol),
		zap.String("status", string(result.Status)),
	)

	return result, nil
}

func (b *BinanceConnection) GetMarketData(ctx context.Context, req types.MarketDataRequest) iter.Seq2[types.MarketSnapshot, error] {
	return func(yield func(types.MarketSnapshot, error) bool) {
		for {
			snapshot, err := b.snapshot(ctx, req)
			if !yield(snapshot, err) || err != nil {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(b.pollInterval):
			}
		}
	}
}

func (b *BinanceConnection) MonitorOrderStatus(ctx context.Context, symbol string, orderID string) iter.Seq2[types.OrderStatusUpdate, error] {
	return func(yield func(types.OrderStatusUpdate, error) bool) {
		id, err := strconv.ParseInt(orderID, 10, 64)
		if err != nil {
			yield(types.OrderStatusUpdate{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order ID format", err))

			return
		}

		var last types.OrderStatusUpdate

		first := true

		for {
			order, err := b.client.NewGetOrderService().
				Symbol(BinanceSymbol(symbol)).
				OrderID(id).
				Do(ctx)
			if err != nil {
				yield(types.OrderStatusUpdate{}, classifyBinanceError(err, "failed to get order from Binance"))

				return
			}

			update := orderUpdate(order)
			if first || update != last {
				if !yield(update, nil) {
					return
				}
			}

			if update.Status.IsTerminal() {
				return
			}

			first = false
			last = update

			select {
			case <-ctx.Done():
				yield(types.OrderStatusUpdate{}, errors.Wrap(errors.ErrCodeBackendTimeout, "order status stream cancelled", ctx.Err()))

				return
			case <-time.After(b.pollInterval):
			}
		}
	}
}

func (b *BinanceConnection) CancelOrder(ctx context.Context, symbol string, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order ID format", err)
	}

	_, err = b.client.NewCancelOrderService().
		Symbol(BinanceSymbol(symbol)).
		OrderID(id).
		Do(ctx)
	if err != nil {
		return classifyBinanceError(err, "failed to cancel order on Binance")
	}

	return nil
}

func (b *BinanceConnection) BatchExecuteTrades(ctx context.Context, reqs []types.ExecuteRequest, atomic bool) (types.BatchResult, error) {
	return executeBatch(ctx, b, reqs, atomic, b.logger)
}

// Close is a no-op; the REST client holds no persistent connection.
func (b *BinanceConnection) Close() error {
	return nil
}

func (b *BinanceConnection) snapshot(ctx context.Context, req types.MarketDataRequest) (types.MarketSnapshot, error) {
	symbol := BinanceSymbol(req.Symbol)

	stats, err := b.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return types.MarketSnapshot{}, classifyBinanceError(err, "failed to get 24h statistics from Binance")
	}

	if len(stats) == 0 {
		return types.MarketSnapshot{}, errors.Newf(errors.ErrCodeMarketDataFailed, "no 24h statistics for %s", symbol)
	}

	limit := req.Depth
	if limit <= 0 {
		limit = defaultDepthLimit
	}

	depth, err := b.client.NewDepthService().Symbol(symbol).Limit(limit).Do(ctx)
	if err != nil {
		return types.MarketSnapshot{}, classifyBinanceError(err, "failed to get order book from Binance")
	}

	last := parseFloat(stats[0].LastPrice)
	high := parseFloat(stats[0].HighPrice)
	low := parseFloat(stats[0].LowPrice)

	snapshot := types.MarketSnapshot{
		Symbol:    req.Symbol,
		Price:     last,
		Volume:    parseFloat(stats[0].QuoteVolume),
		Timestamp: time.Now(),
		Source:    types.SnapshotSourceLive,
	}

	if last > 0 {
		snapshot.Volatility = (high - low) / last
	}

	var liquidity float64

	for _, bid := range depth.Bids {
		liquidity += parseFloat(bid.Price) * parseFloat(bid.Quantity)
	}

	for _, ask := range depth.Asks {
		liquidity += parseFloat(ask.Price) * parseFloat(ask.Quantity)
	}

	snapshot.Liquidity = liquidity

	if len(depth.Bids) > 0 && len(depth.Asks) > 0 {
		bid := parseFloat(depth.Bids[0].Price)
		ask := parseFloat(depth.Asks[0].Price)

		if mid := (bid + ask) / 2; mid > 0 {
			snapshot.Spread = (ask - bid) / mid
		}
	}

	return snapshot, nil
}

// BinanceSymbol converts "SOL/USDT" style symbols to the exchange form "SOLUSDT".
func BinanceSymbol(symbol string) string {
	return strings.NewReplacer("/", "", "-", "", "_", "", ":", "").Replace(strings.ToUpper(strings.TrimSpace(symbol)))
}

func mapOrderStatus(status binance.OrderStatusType) types.TradeStatus {
	switch status {
	case binance.OrderStatusTypeNew:
		return types.TradeStatusPending
	case binance.OrderStatusTypePartiallyFilled:
		return types.TradeStatusExecuting
	case binance.OrderStatusTypeFilled:
		return types.TradeStatusFilled
	case binance.OrderStatusTypeCanceled, binance.OrderStatusTypePendingCancel:
		return types.TradeStatusCancelled
	case binance.OrderStatusTypeRejected, binance.OrderStatusTypeExpired:
		return types.TradeStatusFailed
	default:
		return types.TradeStatusPending
	}
}

func orderUpdate(order *binance.Order) types.OrderStatusUpdate {
	filled := parseFloat(order.ExecutedQuantity)
	remaining := parseFloat(order.OrigQuantity) - filled

	if remaining < 0 {
		remaining = 0
	}

	return types.OrderStatusUpdate{
		OrderID:         strconv.FormatInt(order.OrderID, 10),
		Status:          mapOrderStatus(order.Status),
		FilledAmount:    filled,
		RemainingAmount: remaining,
		AveragePrice:    averagePrice(order.CummulativeQuoteQuantity, filled, order.Price),
	}
}

// averagePrice derives the fill price from the cumulative quote quantity. Orders without fills
// report their limit price.
func averagePrice(cumulativeQuote string, executed float64, fallback string) float64 {
	if executed > 0 {
		quote := parseFloat(cumulativeQuote)
		if quote > 0 {
			return decimal.NewFromFloat(quote).Div(decimal.NewFromFloat(executed)).Truncate(BinanceDecimalPrecision).InexactFloat64()
		}
	}

	return parseFloat(fallback)
}

// classifyBinanceError keeps exchange rejections permanent and treats everything else as an
// unavailable backend.
func classifyBinanceError(err error, message string) error {
	if common.IsAPIError(err) {
		return errors.Wrap(errors.ErrCodeOrderFailed, message, err)
	}

	return errors.Wrap(errors.ErrCodeBackendUnavailable, message, err)
}

// classifyPlacementError only reports an unavailable backend when the request never left the
// process. Any other transport failure may have placed the order and is reported as a timeout.
func classifyPlacementError(ctx context.Context, err error) error {
	const message = "failed to place order on Binance"

	if common.IsAPIError(err) {
		return errors.Wrap(errors.ErrCodeOrderFailed, message, err)
	}

	var opErr *net.OpError
	if ctx.Err() == nil && errors.As(err, &opErr) && opErr.Op == "dial" {
		return errors.Wrap(errors.ErrCodeBackendUnavailable, message, err)
	}

	return errors.Wrap(errors.ErrCodeBackendTimeout, message+": outcome unknown", err)
}

func parseFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}

	return f
}
