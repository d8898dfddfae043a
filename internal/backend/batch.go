package backend

import (
	"context"

	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"go.uber.org/zap"
)

type orderPlacer interface {
	ExecuteTrade(ctx context.Context, req types.ExecuteRequest) (types.ExecuteResult, error)
	CancelOrder(ctx context.Context, symbol string, orderID string) error
}

// executeBatch places the orders one after another. Non-atomic batches are best-effort and
// report every failure per item. Atomic batches stop at the first failure and cancel the orders
// placed before it; orders that already filled cannot be undone and keep their error text.
func executeBatch(ctx context.Context, placer orderPlacer, reqs []types.ExecuteRequest, atomic bool, log *logger.Logger) (types.BatchResult, error) {
	result := types.BatchResult{
		Atomic:  atomic,
		Results: make([]types.BatchItemResult, 0, len(reqs)),
	}

	for i, req := range reqs {
		res, err := placer.ExecuteTrade(ctx, req)
		if err == nil {
			result.Results = append(result.Results, types.BatchItemResult{Request: req, Result: res})
			result.Succeeded++

			continue
		}

		result.Results = append(result.Results, types.BatchItemResult{Request: req, Error: err.Error()})
		result.Failed++

		if !atomic {
			continue
		}

		rollback(ctx, placer, result.Results[:i], log)
		result.RolledBack = true

		return result, errors.Wrapf(errors.ErrCodeBatchRolledBack, err, "batch aborted at order %d of %d", i+1, len(reqs))
	}

	return result, nil
}

func rollback(ctx context.Context, placer orderPlacer, placed []types.BatchItemResult, log *logger.Logger) {
	for i := len(placed) - 1; i >= 0; i-- {
		item := &placed[i]

		err := placer.CancelOrder(ctx, item.Request.Symbol, item.Result.OrderID)
		if err != nil {
			item.Error = err.Error()
			log.Warn("Failed to roll back batch order",
				zap.String("order_id", item.Result.OrderID),
				zap.String("symbol", item.Request.Symbol),
				zap.Error(err),
			)

			continue
		}

		item.Result.Status = types.TradeStatusCancelled
	}
}
