package risk

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
)

// RateLimitConfig throttles assessments per symbol.
type RateLimitConfig struct {
	MaxRequests int           `yaml:"max_requests" json:"max_requests" jsonschema:"title=Max Requests,default=10" validate:"gt=0"`
	Window      time.Duration `yaml:"window" json:"window" jsonschema:"title=Window,description=Sliding window length" validate:"gt=0"`
}

// Config holds every threshold used by the assessment pipeline. Fractions are expressed in
// [0,1] (0.02 means 2%).
type Config struct {
	// RiskPerTrade is the share of the account a single trade may allocate.
	RiskPerTrade float64 `yaml:"risk_per_trade" json:"risk_per_trade" jsonschema:"title=Risk Per Trade,default=0.02" validate:"gt=0,lte=1"`
	MaxLeverage  float64 `yaml:"max_leverage" json:"max_leverage" jsonschema:"title=Max Leverage,default=10" validate:"gte=1"`
	// MemeLeverageMultiplier widens the leverage tolerance for meme coins.
	MemeLeverageMultiplier float64 `yaml:"meme_leverage_multiplier" json:"meme_leverage_multiplier" validate:"gte=1"`
	// MemeAllocationCap caps meme coin allocation relative to the normal maximum.
	MemeAllocationCap float64 `yaml:"meme_allocation_cap" json:"meme_allocation_cap" validate:"gt=0,lte=1"`

	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// StaleAfter flags a snapshot as stale; HardStaleCutoff rejects it.
	StaleAfter             time.Duration `yaml:"stale_after" json:"stale_after" validate:"gt=0"`
	HardStaleCutoff        time.Duration `yaml:"hard_stale_cutoff" json:"hard_stale_cutoff" validate:"gtfield=StaleAfter"`
	StaleConfidencePenalty float64       `yaml:"stale_confidence_penalty" json:"stale_confidence_penalty" validate:"gte=0,lte=1"`

	VolatilityThreshold float64 `yaml:"volatility_threshold" json:"volatility_threshold" validate:"gt=0"`
	MinLiquidity        float64 `yaml:"min_liquidity" json:"min_liquidity" validate:"gte=0"`
	// LiquidityComfort is the liquidity at which the liquidity score reaches 1.
	LiquidityComfort float64 `yaml:"liquidity_comfort" json:"liquidity_comfort" validate:"gtefield=MinLiquidity"`

	MaxSlippage            float64 `yaml:"max_slippage" json:"max_slippage" validate:"gt=0,lt=1"`
	ImpactRejectMultiple   float64 `yaml:"impact_reject_multiple" json:"impact_reject_multiple" validate:"gte=1"`
	SlippageRejectMultiple float64 `yaml:"slippage_reject_multiple" json:"slippage_reject_multiple" validate:"gte=1"`
	MemeImpactMultiplier   float64 `yaml:"meme_impact_multiplier" json:"meme_impact_multiplier" validate:"gte=1"`
	// MaxParticipation is the share of traded volume above which impact and reward are penalised.
	MaxParticipation float64 `yaml:"max_participation" json:"max_participation" validate:"gt=0,lte=1"`

	BaseStopLoss float64 `yaml:"base_stop_loss" json:"base_stop_loss" validate:"gt=0,lt=1"`
	MaxStopLoss  float64 `yaml:"max_stop_loss" json:"max_stop_loss" validate:"gtfield=BaseStopLoss,lt=1"`
	// ShortStopMultiplier and ShortTakeProfitMultiplier make the ladder asymmetric for SELL.
	ShortStopMultiplier       float64   `yaml:"short_stop_multiplier" json:"short_stop_multiplier" validate:"gt=0"`
	ShortTakeProfitMultiplier float64   `yaml:"short_take_profit_multiplier" json:"short_take_profit_multiplier" validate:"gt=0"`
	TakeProfitMultipliers     []float64 `yaml:"take_profit_multipliers" json:"take_profit_multipliers" validate:"len=3,dive,gt=0"`
	TakeProfitWeights         []float64 `yaml:"take_profit_weights" json:"take_profit_weights" validate:"len=3,dive,gte=0"`
	TrailingStopRatio         float64   `yaml:"trailing_stop_ratio" json:"trailing_stop_ratio" validate:"gt=0,lt=1"`
	MinRiskReward             float64   `yaml:"min_risk_reward" json:"min_risk_reward" validate:"gt=0"`

	MarginScaleThreshold  float64 `yaml:"margin_scale_threshold" json:"margin_scale_threshold" validate:"gt=0,lt=1"`
	MarginRejectThreshold float64 `yaml:"margin_reject_threshold" json:"margin_reject_threshold" validate:"gtfield=MarginScaleThreshold,lte=1"`

	DrawdownScaleThreshold float64 `yaml:"drawdown_scale_threshold" json:"drawdown_scale_threshold" validate:"gt=0,lt=1"`
	MaxDrawdown            float64 `yaml:"max_drawdown" json:"max_drawdown" validate:"gt=0,lt=1"`
	DrawdownRejectMultiple float64 `yaml:"drawdown_reject_multiple" json:"drawdown_reject_multiple" validate:"gte=1"`

	CorrelationScaleThreshold  float64 `yaml:"correlation_scale_threshold" json:"correlation_scale_threshold" validate:"gte=0,lte=1"`
	CorrelationHighThreshold   float64 `yaml:"correlation_high_threshold" json:"correlation_high_threshold" validate:"gtefield=CorrelationScaleThreshold,lte=1"`
	CorrelationRejectThreshold float64 `yaml:"correlation_reject_threshold" json:"correlation_reject_threshold" validate:"gtefield=CorrelationHighThreshold,lte=1"`
	CorrelationHeavyScale      float64 `yaml:"correlation_heavy_scale" json:"correlation_heavy_scale" validate:"gt=0,lte=1"`
	DefaultCorrelation         float64 `yaml:"default_correlation" json:"default_correlation" validate:"gte=0,lte=1"`

	// MinScale floors the individual margin and drawdown reductions.
	MinScale float64 `yaml:"min_scale" json:"min_scale" validate:"gt=0,lte=1"`
}

// DefaultConfig returns the thresholds the pipeline ships with.
func DefaultConfig() Config {
	return Config{
		RiskPerTrade:           0.02,
		MaxLeverage:            10,
		MemeLeverageMultiplier: 2,
		MemeAllocationCap:      0.5,
		RateLimit: RateLimitConfig{
			MaxRequests: 10,
			Window:      60 * time.Second,
		},
		StaleAfter:                 30 * time.Second,
		HardStaleCutoff:            300 * time.Second,
		StaleConfidencePenalty:     0.2,
		VolatilityThreshold:        1.0,
		MinLiquidity:               100_000,
		LiquidityComfort:           500_000,
		MaxSlippage:                0.01,
		ImpactRejectMultiple:       2,
		SlippageRejectMultiple:     3,
		MemeImpactMultiplier:       1.5,
		MaxParticipation:           0.01,
		BaseStopLoss:               0.02,
		MaxStopLoss:                0.2,
		ShortStopMultiplier:        1.25,
		ShortTakeProfitMultiplier:  0.8,
		TakeProfitMultipliers:      []float64{1.5, 2.5, 4.0},
		TakeProfitWeights:          []float64{0.5, 0.3, 0.2},
		TrailingStopRatio:          0.75,
		MinRiskReward:              1.5,
		MarginScaleThreshold:       0.70,
		MarginRejectThreshold:      0.85,
		DrawdownScaleThreshold:     0.05,
		MaxDrawdown:                0.20,
		DrawdownRejectMultiple:     1.5,
		CorrelationScaleThreshold:  0.5,
		CorrelationHighThreshold:   0.8,
		CorrelationRejectThreshold: 0.9,
		CorrelationHeavyScale:      0.5,
		DefaultCorrelation:         0.3,
		MinScale:                   0.25,
	}
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid risk configuration", err)
	}

	for i := 1; i < len(c.TakeProfitMultipliers); i++ {
		if c.TakeProfitMultipliers[i] <= c.TakeProfitMultipliers[i-1] {
			return errors.New(errors.ErrCodeInvalidConfiguration, "take profit multipliers must be strictly ascending")
		}
	}

	last := c.TakeProfitMultipliers[len(c.TakeProfitMultipliers)-1]
	if c.MaxStopLoss*last*c.ShortTakeProfitMultiplier >= 1 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "short take profit ladder would reach a non-positive price")
	}

	return nil
}
