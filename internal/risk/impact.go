package risk

import "fmt"

// estimateImpact models the price impact and slippage of the currently sized order.
func (m *Manager) estimateImpact(e *evaluation) {
	cfg := m.config
	r := &e.result

	notional := e.currentSize() * e.proposal.Price
	volume := e.market.Volume
	liquidity := e.market.Liquidity

	e.participation = 1
	if volume > 0 {
		e.participation = notional / volume
	}

	volumeAdjustment := 1 + e.participation/cfg.MaxParticipation
	volatilityAdjustment := 1 + e.market.Volatility

	impact := 1.0
	if liquidity > 0 {
		impact = notional / liquidity * volumeAdjustment * volatilityAdjustment
	}

	slippage := impact + e.market.Spread/2

	if e.proposal.IsMemeCoin {
		impact *= cfg.MemeImpactMultiplier
		slippage *= cfg.MemeImpactMultiplier
	}

	r.MarketImpact = impact
	r.ExpectedSlippage = slippage

	if impact > cfg.ImpactRejectMultiple*e.maxSlippage {
		e.reject(
			fmt.Sprintf("market impact %.4f%% exceeds limit %.4f%%", impact*100, cfg.ImpactRejectMultiple*e.maxSlippage*100),
			"split the order or reduce its size",
		)

		return
	}

	if slippage > cfg.SlippageRejectMultiple*e.maxSlippage {
		e.reject(
			fmt.Sprintf("expected slippage %.4f%% exceeds limit %.4f%%", slippage*100, cfg.SlippageRejectMultiple*e.maxSlippage*100),
			"use a limit order or reduce the order size",
		)

		return
	}

	if impact > e.maxSlippage {
		e.scale("impact", e.maxSlippage/impact)
		e.recommend("market impact %.4f%% above budget; position reduced", impact*100)
	}

	if slippage > e.maxSlippage {
		e.scale("slippage", e.maxSlippage/slippage)
		e.recommend("expected slippage %.4f%% above budget; position reduced", slippage*100)
	}
}
