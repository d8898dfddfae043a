package risk

import (
	"fmt"
	"math"
)

// computeRiskReward derives the stop loss, the take profit ladder and the trailing stop, and
// checks the risk/reward ratio against a threshold that tightens with volatility, weak market
// alignment, thin liquidity and wide spreads.
func (m *Manager) computeRiskReward(e *evaluation) {
	cfg := m.config
	r := &e.result
	price := e.proposal.Price
	volatility := e.market.Volatility
	short := !e.proposal.Side.IsLong()

	stopPct := cfg.BaseStopLoss * (1 + volatility)
	if short {
		stopPct *= cfg.ShortStopMultiplier
	}

	stopPct = math.Min(stopPct, cfg.MaxStopLoss)
	e.stopPct = stopPct

	takeProfitScale := 1.0
	if short {
		takeProfitScale = cfg.ShortTakeProfitMultiplier
	}

	levels := make([]float64, len(cfg.TakeProfitMultipliers))
	expectedReturn := 0.0
	totalWeight := 0.0

	for i, multiplier := range cfg.TakeProfitMultipliers {
		pct := stopPct * multiplier * takeProfitScale

		if short {
			levels[i] = price * (1 - pct)
		} else {
			levels[i] = price * (1 + pct)
		}

		if i < len(cfg.TakeProfitWeights) {
			expectedReturn += cfg.TakeProfitWeights[i] * pct
			totalWeight += cfg.TakeProfitWeights[i]
		}
	}

	if totalWeight > 0 {
		expectedReturn /= totalWeight
	}

	trailingPct := stopPct * cfg.TrailingStopRatio

	if short {
		r.StopLossLevel = price * (1 + stopPct)
		r.TrailingStopLevel = price * (1 + trailingPct)
	} else {
		r.StopLossLevel = price * (1 - stopPct)
		r.TrailingStopLevel = price * (1 - trailingPct)
	}

	r.TakeProfitLevels = levels

	volumeAdjustment := 1.0
	if e.participation > cfg.MaxParticipation {
		volumeAdjustment = math.Max(0.5, cfg.MaxParticipation/e.participation)
	}

	liquidityAdjustment := 0.5 + 0.5*r.LiquidityScore

	volatilityAdjustment := 1.0
	if volatility > cfg.VolatilityThreshold {
		volatilityAdjustment = cfg.VolatilityThreshold / volatility
	}

	ratio := expectedReturn / stopPct * volumeAdjustment * liquidityAdjustment * volatilityAdjustment
	r.RiskRewardRatio = ratio

	alignment := e.proposal.MarketAlignment.TakeOr(1)
	threshold := cfg.MinRiskReward * (1 + 0.25*volatility) /
		math.Max(alignment, 0.1) /
		math.Max(r.LiquidityScore, 0.1) *
		(1 + 10*e.market.Spread)

	if ratio < threshold/2 {
		e.reject(
			fmt.Sprintf("risk/reward ratio %.2f below minimum %.2f", ratio, threshold),
			"wait for better market alignment or a tighter spread",
		)

		return
	}

	if ratio < threshold {
		e.scale("risk_reward", ratio/threshold)
		e.recommend("risk/reward ratio %.2f below target %.2f; position reduced", ratio, threshold)
	}
}
