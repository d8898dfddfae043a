package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
)

// Trade is a unit of execution tracked by the executor.
type Trade struct {
	// ID is a UUIDv7, so it sorts by creation time and is never reused.
	ID              string        `json:"id"`
	Proposal        TradeProposal `json:"proposal"`
	Status          TradeStatus   `json:"status"`
	WalletPublicKey string        `json:"wallet_public_key"`
	// Backend is the name of the connection the trade was dispatched to.
	Backend string `json:"backend"`
	OrderID string `json:"order_id"`
	// RequestedAmount is the size sent to the backend after risk sizing.
	RequestedAmount float64                         `json:"requested_amount"`
	ExecutedPrice   float64                         `json:"executed_price"`
	ExecutedAmount  float64                         `json:"executed_amount"`
	Assessment      optional.Option[RiskAssessment] `json:"assessment"`
	// Error holds the failure message of a FAILED trade.
	Error       string                     `json:"error"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
	CancelledAt optional.Option[time.Time] `json:"cancelled_at"`
}

// IsTerminal reports whether the trade reached a final status.
func (t Trade) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// Transition moves the trade to next, stamping UpdatedAt (and CancelledAt for cancellations).
func (t *Trade) Transition(next TradeStatus, at time.Time) error {
	if !t.Status.CanTransitionTo(next) {
		return errors.Newf(errors.ErrCodeInvalidTransition, "trade %s cannot move from %s to %s", t.ID, t.Status, next)
	}

	t.Status = next
	t.UpdatedAt = at

	if next == TradeStatusCancelled {
		t.CancelledAt = optional.Some(at)
	}

	return nil
}

// Fail marks the trade FAILED with the error message.
func (t *Trade) Fail(err error, at time.Time) error {
	if transitionErr := t.Transition(TradeStatusFailed, at); transitionErr != nil {
		return transitionErr
	}

	if err != nil {
		t.Error = err.Error()
	}

	return nil
}

// ApplyStatusUpdate copies fill progress from a backend update and transitions when the status
// changed. Updates that would break the state machine are ignored and reported as an error.
func (t *Trade) ApplyStatusUpdate(update OrderStatusUpdate, at time.Time) error {
	status := update.Status
	if status == TradeStatusPending {
		// Backends report accepted but unfilled orders as pending; the trade is already executing.
		status = TradeStatusExecuting
	}

	if status != t.Status {
		if err := t.Transition(status, at); err != nil {
			return err
		}
	}

	if update.FilledAmount > 0 {
		t.ExecutedAmount = update.FilledAmount
	}

	if update.AveragePrice > 0 {
		t.ExecutedPrice = update.AveragePrice
	}

	t.UpdatedAt = at

	return nil
}
