package backend

import (
	"context"
	"iter"

	"github.com/rxtech-lab/argo-dispatch/internal/types"
)

// Connection is one execution backend. Implementations must be safe for concurrent use.
type Connection interface {
	// Name identifies the connection inside a pool. Usually the address it was created from.
	Name() string
	// ExecuteTrade submits a single order.
	ExecuteTrade(ctx context.Context, req types.ExecuteRequest) (types.ExecuteResult, error)
	// GetMarketData streams snapshots for the requested symbol until ctx is done or the
	// consumer stops iterating. A yielded error ends the stream.
	GetMarketData(ctx context.Context, req types.MarketDataRequest) iter.Seq2[types.MarketSnapshot, error]
	// MonitorOrderStatus streams status updates of an order. The stream ends after a terminal
	// status, an error, or when ctx is done.
	MonitorOrderStatus(ctx context.Context, symbol string, orderID string) iter.Seq2[types.OrderStatusUpdate, error]
	// CancelOrder cancels a resting order.
	CancelOrder(ctx context.Context, symbol string, orderID string) error
	// BatchExecuteTrades submits several orders. When atomic is set, a partial failure cancels
	// the orders already placed and the batch reports RolledBack.
	BatchExecuteTrades(ctx context.Context, reqs []types.ExecuteRequest, atomic bool) (types.BatchResult, error)
	// Close releases the connection.
	Close() error
}

// Receipt is the result of a dispatched order together with the backend that accepted it.
type Receipt struct {
	Backend string
	Result  types.ExecuteResult
}

// Dispatcher routes orders to execution backends. Order follow-ups (monitoring, cancellation)
// are addressed to the backend named in the Receipt.
type Dispatcher interface {
	ExecuteTrade(ctx context.Context, req types.ExecuteRequest) (Receipt, error)
	MonitorOrderStatus(ctx context.Context, backend string, symbol string, orderID string) iter.Seq2[types.OrderStatusUpdate, error]
	CancelOrder(ctx context.Context, backend string, symbol string, orderID string) error
	BatchExecuteTrades(ctx context.Context, reqs []types.ExecuteRequest, atomic bool) (types.BatchResult, error)
	GetMarketData(ctx context.Context, req types.MarketDataRequest) iter.Seq2[types.MarketSnapshot, error]
	Close() error
}

// First pulls the first element of a stream. ok is false when the stream ended without yielding.
func First[T any](seq iter.Seq2[T, error]) (value T, ok bool, err error) {
	for v, e := range seq {
		return v, true, e
	}

	return value, false, nil
}
