package types

import "time"

// MarginRequirements compares the margin a trade needs with what the account has left.
type MarginRequirements struct {
	Required  float64 `yaml:"required" json:"required"`
	Available float64 `yaml:"available" json:"available"`
}

// RateLimitInfo echoes the limiter state for the assessed symbol.
type RateLimitInfo struct {
	IsLimited bool      `yaml:"is_limited" json:"is_limited"`
	Remaining int       `yaml:"remaining" json:"remaining"`
	ResetAt   time.Time `yaml:"reset_at" json:"reset_at"`
}

// RiskAssessment is the admission decision plus sizing result for one proposal.
type RiskAssessment struct {
	IsValid    bool    `yaml:"is_valid" json:"is_valid"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
	RiskLevel  float64 `yaml:"risk_level" json:"risk_level"`
	MaxLoss    float64 `yaml:"max_loss" json:"max_loss"`
	// PositionSize is the risk budget ceiling for the trade.
	PositionSize float64 `yaml:"position_size" json:"position_size"`
	// DynamicPositionSize is the admitted size after every scale factor. Never above PositionSize.
	DynamicPositionSize float64 `yaml:"dynamic_position_size" json:"dynamic_position_size"`
	StopLossLevel       float64 `yaml:"stop_loss_level" json:"stop_loss_level"`
	// TakeProfitLevels ascend for BUY and descend for SELL.
	TakeProfitLevels   []float64          `yaml:"take_profit_levels" json:"take_profit_levels"`
	TrailingStopLevel  float64            `yaml:"trailing_stop_level" json:"trailing_stop_level"`
	MarketImpact       float64            `yaml:"market_impact" json:"market_impact"`
	ExpectedSlippage   float64            `yaml:"expected_slippage" json:"expected_slippage"`
	RiskRewardRatio    float64            `yaml:"risk_reward_ratio" json:"risk_reward_ratio"`
	MarginRequirements MarginRequirements `yaml:"margin_requirements" json:"margin_requirements"`
	CorrelationFactor  float64            `yaml:"correlation_factor" json:"correlation_factor"`
	LiquidityScore     float64            `yaml:"liquidity_score" json:"liquidity_score"`
	Recommendations    []string           `yaml:"recommendations" json:"recommendations"`
	Reason             string             `yaml:"reason" json:"reason"`
	RateLimitInfo      RateLimitInfo      `yaml:"rate_limit_info" json:"rate_limit_info"`
	// ScaleFactors lists every multiplicative reduction applied, keyed by stage.
	ScaleFactors map[string]float64 `yaml:"scale_factors" json:"scale_factors"`
}

// Rejected reports whether the assessment denied admission.
func (r RiskAssessment) Rejected() bool {
	return !r.IsValid
}
