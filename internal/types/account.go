package types

// ExistingPosition is portfolio context used for correlation and margin checks.
type ExistingPosition struct {
	Symbol        string  `yaml:"symbol" json:"symbol" validate:"required"`
	Amount        float64 `yaml:"amount" json:"amount"`
	EntryPrice    float64 `yaml:"entry_price" json:"entry_price" validate:"gte=0"`
	CurrentPrice  float64 `yaml:"current_price" json:"current_price" validate:"gte=0"`
	Leverage      float64 `yaml:"leverage" json:"leverage" validate:"gte=0"`
	MarginUsed    float64 `yaml:"margin_used" json:"margin_used" validate:"gte=0"`
	UnrealizedPnL float64 `yaml:"unrealized_pnl" json:"unrealized_pnl"`
}

// Notional is the absolute exposure of the position at its current price, falling back to the
// entry price when no mark is available.
func (p ExistingPosition) Notional() float64 {
	price := p.CurrentPrice
	if price == 0 {
		price = p.EntryPrice
	}

	amount := p.Amount
	if amount < 0 {
		amount = -amount
	}

	return amount * price
}

// Portfolio is the account context supplied for one assessment.
type Portfolio struct {
	AccountSize float64            `yaml:"account_size" json:"account_size"`
	Positions   []ExistingPosition `yaml:"positions" json:"positions"`
}

// TotalMarginUsed sums margin across positions.
func (p Portfolio) TotalMarginUsed() float64 {
	total := 0.0
	for _, pos := range p.Positions {
		total += pos.MarginUsed
	}

	return total
}

// TotalUnrealizedPnL sums unrealized PnL across positions.
func (p Portfolio) TotalUnrealizedPnL() float64 {
	total := 0.0
	for _, pos := range p.Positions {
		total += pos.UnrealizedPnL
	}

	return total
}

// PortfolioFromProposal builds the portfolio context carried inside a proposal.
func PortfolioFromProposal(p TradeProposal) Portfolio {
	return Portfolio{
		AccountSize: p.AccountSize,
		Positions:   p.ExistingPositions,
	}
}
