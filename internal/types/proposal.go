package types

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
)

// MetadataAIValidationError is the proposal metadata key holding a soft AI validator failure.
const MetadataAIValidationError = "ai_validation_error"

// TradeProposal is a caller's intent to trade. It is treated as immutable input; the executor
// works on its own copy.
type TradeProposal struct {
	Symbol    string    `yaml:"symbol" json:"symbol" validate:"required"`
	Side      Side      `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Amount    float64   `yaml:"amount" json:"amount" validate:"gt=0"`
	Price     float64   `yaml:"price" json:"price" validate:"gt=0"`
	OrderType OrderType `yaml:"order_type" json:"order_type" validate:"required,oneof=MARKET LIMIT"`
	// Leverage of zero means unleveraged (1x).
	Leverage float64 `yaml:"leverage" json:"leverage" validate:"gte=0"`
	// SlippageTolerance is a fraction of price. Zero means the configured maximum applies.
	SlippageTolerance float64            `yaml:"slippage_tolerance" json:"slippage_tolerance" validate:"gte=0,lt=1"`
	AccountSize       float64            `yaml:"account_size" json:"account_size" validate:"gte=0"`
	ExistingPositions []ExistingPosition `yaml:"existing_positions" json:"existing_positions" validate:"dive"`
	IsMemeCoin        bool               `yaml:"is_meme_coin" json:"is_meme_coin"`
	// MarketAlignment in [0,1] as reported by an upstream signal. None means fully aligned.
	// YAML decoding goes through ProposalFile because options are slice-backed.
	MarketAlignment optional.Option[float64] `yaml:"-" json:"market_alignment"`
	Metadata        map[string]string        `yaml:"metadata" json:"metadata"`
}

// Validate validates the TradeProposal struct.
func (p *TradeProposal) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidProposal, "invalid trade proposal", err)
	}

	if p.MarketAlignment.IsSome() {
		alignment := p.MarketAlignment.Unwrap()
		if alignment < 0 || alignment > 1 {
			return errors.Newf(errors.ErrCodeInvalidProposal, "market alignment %.4f out of range [0,1]", alignment)
		}
	}

	return nil
}

// EffectiveLeverage returns the leverage with the zero value mapped to 1x.
func (p TradeProposal) EffectiveLeverage() float64 {
	if p.Leverage == 0 {
		return 1
	}

	return p.Leverage
}

// Notional is amount times price.
func (p TradeProposal) Notional() float64 {
	return p.Amount * p.Price
}

// Clone returns a copy that does not share the metadata map or the positions slice.
func (p TradeProposal) Clone() TradeProposal {
	clone := p

	if p.Metadata != nil {
		clone.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			clone.Metadata[k] = v
		}
	}

	if p.ExistingPositions != nil {
		clone.ExistingPositions = append([]ExistingPosition(nil), p.ExistingPositions...)
	}

	return clone
}

// WithMetadata returns a copy of the proposal with the key set.
func (p TradeProposal) WithMetadata(key, value string) TradeProposal {
	clone := p.Clone()
	if clone.Metadata == nil {
		clone.Metadata = make(map[string]string)
	}

	clone.Metadata[key] = value

	return clone
}

// ToExecuteRequest builds the backend request for the given amount.
func (p TradeProposal) ToExecuteRequest(clientOrderID string, amount float64) ExecuteRequest {
	params := map[string]string{}
	if p.Leverage > 1 {
		params["leverage"] = formatFloat(p.Leverage)
	}

	if p.SlippageTolerance > 0 {
		params["slippage_tolerance"] = formatFloat(p.SlippageTolerance)
	}

	return ExecuteRequest{
		ClientOrderID: clientOrderID,
		Symbol:        p.Symbol,
		Side:          p.Side,
		Amount:        amount,
		Price:         p.Price,
		OrderType:     p.OrderType,
		Params:        params,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
