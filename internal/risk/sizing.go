package risk

import (
	"fmt"
	"math"
)

// sizePosition sets the risk budget and records the reductions driven by market and portfolio
// conditions.
func (m *Manager) sizePosition(e *evaluation) {
	cfg := m.config
	p := e.proposal
	r := &e.result

	budget := e.account * cfg.RiskPerTrade / e.leverage
	if p.IsMemeCoin {
		budget *= cfg.MemeAllocationCap
	}

	r.PositionSize = budget
	e.baseSize = math.Min(p.Amount, budget)

	if p.Amount > budget {
		e.recommend("requested amount %.8g capped to the risk budget %.8g", p.Amount, budget)
	}

	if p.IsMemeCoin {
		e.recommend("meme coin allocation capped at %.0f%% of the normal maximum", cfg.MemeAllocationCap*100)
	}

	volatility := e.market.Volatility
	if volatility > cfg.VolatilityThreshold {
		excess := volatility - cfg.VolatilityThreshold
		e.scale("volatility", 1/(1+excess))
		e.recommend("volatility %.2f above threshold %.2f; position reduced", volatility, cfg.VolatilityThreshold)
	}

	liquidity := e.market.Liquidity
	if liquidity < cfg.MinLiquidity {
		e.reject(
			fmt.Sprintf("insufficient liquidity: %.0f below minimum %.0f", liquidity, cfg.MinLiquidity),
			"trade a more liquid market or wait for liquidity to recover",
		)

		return
	}

	r.LiquidityScore = 1
	if cfg.LiquidityComfort > 0 {
		r.LiquidityScore = math.Min(1, liquidity/cfg.LiquidityComfort)
	}

	if r.LiquidityScore < 1 {
		e.scale("liquidity", r.LiquidityScore)
		e.recommend("liquidity %.0f below comfortable level %.0f; position reduced", liquidity, cfg.LiquidityComfort)
	}

	e.maxSlippage = cfg.MaxSlippage
	if p.SlippageTolerance > 0 && p.SlippageTolerance < e.maxSlippage {
		e.maxSlippage = p.SlippageTolerance
	}

	spreadBudget := e.maxSlippage / 2
	if spread := e.market.Spread; spread > spreadBudget {
		e.scale("spread", spreadBudget/spread)
		e.recommend("spread %.4f%% exceeds half the slippage budget; position reduced", spread*100)
	}

	e.marginUtilisation = e.portfolio.TotalMarginUsed() / e.account
	if e.marginUtilisation > cfg.MarginScaleThreshold {
		span := cfg.MarginRejectThreshold - cfg.MarginScaleThreshold
		progress := (e.marginUtilisation - cfg.MarginScaleThreshold) / span
		e.scale("margin", math.Max(cfg.MinScale, 1-progress*(1-cfg.MinScale)))
		e.recommend("margin utilisation %.1f%% above %.0f%%; position reduced", e.marginUtilisation*100, cfg.MarginScaleThreshold*100)
	}

	e.drawdown = e.portfolio.TotalUnrealizedPnL() / e.account
	if e.drawdown < -cfg.DrawdownScaleThreshold {
		e.scale("drawdown", math.Max(cfg.MinScale, 1+e.drawdown))
		e.recommend("unrealized drawdown %.1f%%; position reduced", e.drawdown*100)
	}

	r.CorrelationFactor = m.portfolioCorrelation(p.Symbol, e.portfolio.Positions)
	e.peakCorrelation = m.peakCorrelation(p.Symbol, e.portfolio.Positions)
	if r.CorrelationFactor > cfg.CorrelationScaleThreshold {
		e.scale("correlation", 1-r.CorrelationFactor*0.5)
		e.recommend("correlation %.2f with existing positions; position reduced", r.CorrelationFactor)
	}
}
