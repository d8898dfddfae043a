package risk

import "fmt"

func (m *Manager) checkMarginAndDrawdown(e *evaluation) {
	cfg := m.config
	r := &e.result

	if e.marginUtilisation > cfg.MarginRejectThreshold {
		e.reject(
			fmt.Sprintf("margin utilisation %.1f%% exceeds %.0f%%", e.marginUtilisation*100, cfg.MarginRejectThreshold*100),
			"close or reduce existing positions",
		)

		return
	}

	loss := -e.drawdown
	hardLimit := cfg.MaxDrawdown * cfg.DrawdownRejectMultiple

	if loss > hardLimit {
		e.reject(
			fmt.Sprintf("portfolio drawdown %.1f%% exceeds hard limit %.1f%%", loss*100, hardLimit*100),
			"stop opening positions until the drawdown recovers",
		)

		return
	}

	if loss > cfg.MaxDrawdown {
		e.scale("max_drawdown", cfg.MaxDrawdown/loss)
		e.recommend("portfolio drawdown %.1f%% above maximum %.0f%%; position reduced", loss*100, cfg.MaxDrawdown*100)
	}

	required := e.currentSize() * e.proposal.Price / e.leverage
	available := e.account - e.portfolio.TotalMarginUsed()

	r.MarginRequirements.Required = required
	r.MarginRequirements.Available = available

	if required > available {
		e.reject(
			fmt.Sprintf("insufficient margin: required %.2f, available %.2f", required, available),
			"reduce the order size or add funds",
		)
	}
}

// checkCorrelation rejects or heavily scales on the single most correlated position, so a large
// unrelated holding cannot dilute it.
func (m *Manager) checkCorrelation(e *evaluation) {
	cfg := m.config
	c := e.peakCorrelation

	if c > cfg.CorrelationRejectThreshold {
		e.reject(
			fmt.Sprintf("correlation %.2f with an existing position exceeds %.2f", c, cfg.CorrelationRejectThreshold),
			"diversify away from correlated positions",
		)

		return
	}

	if c > cfg.CorrelationHighThreshold {
		e.scale("correlation_heavy", cfg.CorrelationHeavyScale)
		e.recommend("high correlation %.2f with an existing position; position heavily reduced", c)
	}
}
