package types

type Side string

type OrderType string

type TradeStatus string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

const (
	TradeStatusPending   TradeStatus = "PENDING"
	TradeStatusExecuting TradeStatus = "EXECUTING"
	TradeStatusFilled    TradeStatus = "FILLED"
	TradeStatusCancelled TradeStatus = "CANCELLED"
	TradeStatusFailed    TradeStatus = "FAILED"
)

// IsLong reports whether the side opens a long exposure.
func (s Side) IsLong() bool {
	return s != SideSell
}

// IsTerminal reports whether no further transition is allowed from the status.
func (s TradeStatus) IsTerminal() bool {
	switch s {
	case TradeStatusFilled, TradeStatusCancelled, TradeStatusFailed:
		return true
	default:
		return false
	}
}

var tradeTransitions = map[TradeStatus][]TradeStatus{
	TradeStatusPending:   {TradeStatusExecuting, TradeStatusCancelled, TradeStatusFailed},
	TradeStatusExecuting: {TradeStatusFilled, TradeStatusCancelled, TradeStatusFailed},
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle step.
// Staying in the same non-terminal status is allowed so partial fill updates can be applied.
func (s TradeStatus) CanTransitionTo(next TradeStatus) bool {
	if s == next {
		return !s.IsTerminal()
	}

	for _, allowed := range tradeTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// ExecuteRequest is a single order sent to an execution backend.
type ExecuteRequest struct {
	// ClientOrderID is the trade ID, echoed back by backends that support client IDs.
	ClientOrderID string            `yaml:"client_order_id" json:"client_order_id"`
	Symbol        string            `yaml:"symbol" json:"symbol" validate:"required"`
	Side          Side              `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Amount        float64           `yaml:"amount" json:"amount" validate:"gt=0"`
	Price         float64           `yaml:"price" json:"price" validate:"gte=0"`
	OrderType     OrderType         `yaml:"order_type" json:"order_type" validate:"required,oneof=MARKET LIMIT"`
	Params        map[string]string `yaml:"params" json:"params"`
}

// ExecuteResult is the backend's answer to ExecuteTrade.
type ExecuteResult struct {
	OrderID        string      `yaml:"order_id" json:"order_id"`
	Status         TradeStatus `yaml:"status" json:"status"`
	ExecutedPrice  float64     `yaml:"executed_price" json:"executed_price"`
	ExecutedAmount float64     `yaml:"executed_amount" json:"executed_amount"`
}

// OrderStatusUpdate is one element of the order status stream.
type OrderStatusUpdate struct {
	OrderID         string      `yaml:"order_id" json:"order_id"`
	Status          TradeStatus `yaml:"status" json:"status"`
	FilledAmount    float64     `yaml:"filled_amount" json:"filled_amount"`
	RemainingAmount float64     `yaml:"remaining_amount" json:"remaining_amount"`
	AveragePrice    float64     `yaml:"average_price" json:"average_price"`
}

// BatchItemResult is the per-order outcome of a batch.
type BatchItemResult struct {
	Request ExecuteRequest `yaml:"request" json:"request"`
	Result  ExecuteResult  `yaml:"result" json:"result"`
	Error   string         `yaml:"error,omitempty" json:"error,omitempty"`
}

// BatchResult summarises a batch execution.
type BatchResult struct {
	Results    []BatchItemResult `yaml:"results" json:"results"`
	Atomic     bool              `yaml:"atomic" json:"atomic"`
	RolledBack bool              `yaml:"rolled_back" json:"rolled_back"`
	Succeeded  int               `yaml:"succeeded" json:"succeeded"`
	Failed     int               `yaml:"failed" json:"failed"`
}
