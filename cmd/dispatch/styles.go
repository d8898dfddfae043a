package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true)

	LabelStyle = lipgloss.NewStyle().Faint(true).Width(22)

	AcceptedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))

	RejectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	PendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func row(label string, value any) string {
	return LabelStyle.Render(label) + fmt.Sprint(value)
}

// RenderAssessment formats an assessment for the terminal.
func RenderAssessment(proposal types.TradeProposal, assessment types.RiskAssessment) string {
	var b strings.Builder

	verdict := AcceptedStyle.Render("ADMITTED")
	if assessment.Rejected() {
		verdict = RejectedStyle.Render("REJECTED")
	}

	fmt.Fprintf(&b, "%s %s %s %g @ %g\n", TitleStyle.Render(proposal.Symbol), verdict, proposal.Side, proposal.Amount, proposal.Price)

	if assessment.Reason != "" {
		b.WriteString(row("reason", assessment.Reason) + "\n")
	}

	b.WriteString(row("confidence", fmt.Sprintf("%.2f", assessment.Confidence)) + "\n")
	b.WriteString(row("risk level", fmt.Sprintf("%.2f", assessment.RiskLevel)) + "\n")
	b.WriteString(row("position size", fmt.Sprintf("%.6f", assessment.PositionSize)) + "\n")
	b.WriteString(row("dynamic size", fmt.Sprintf("%.6f", assessment.DynamicPositionSize)) + "\n")
	b.WriteString(row("stop loss", fmt.Sprintf("%.4f", assessment.StopLossLevel)) + "\n")
	b.WriteString(row("take profit", formatLevels(assessment.TakeProfitLevels)) + "\n")
	b.WriteString(row("trailing stop", fmt.Sprintf("%.4f", assessment.TrailingStopLevel)) + "\n")
	b.WriteString(row("market impact", fmt.Sprintf("%.4f", assessment.MarketImpact)) + "\n")
	b.WriteString(row("expected slippage", fmt.Sprintf("%.4f", assessment.ExpectedSlippage)) + "\n")
	b.WriteString(row("risk/reward", fmt.Sprintf("%.2f", assessment.RiskRewardRatio)) + "\n")
	b.WriteString(row("liquidity score", fmt.Sprintf("%.2f", assessment.LiquidityScore)) + "\n")

	for _, recommendation := range assessment.Recommendations {
		b.WriteString(row("recommendation", recommendation) + "\n")
	}

	return b.String()
}

// RenderTrade formats a trade as a single status line.
func RenderTrade(trade types.Trade) string {
	status := string(trade.Status)

	switch trade.Status {
	case types.TradeStatusFilled:
		status = AcceptedStyle.Render(status)
	case types.TradeStatusFailed, types.TradeStatusCancelled:
		status = RejectedStyle.Render(status)
	default:
		status = PendingStyle.Render(status)
	}

	line := fmt.Sprintf("%s %s %s %s requested=%g", trade.ID, TitleStyle.Render(trade.Proposal.Symbol), trade.Proposal.Side, status, trade.RequestedAmount)

	if trade.Backend != "" {
		line += fmt.Sprintf(" backend=%s order=%s", trade.Backend, trade.OrderID)
	}

	if trade.ExecutedAmount > 0 {
		line += fmt.Sprintf(" executed=%g@%g", trade.ExecutedAmount, trade.ExecutedPrice)
	}

	if trade.Error != "" {
		line += " error=" + trade.Error
	}

	return line
}

func formatLevels(levels []float64) string {
	parts := make([]string, 0, len(levels))
	for _, level := range levels {
		parts = append(parts, fmt.Sprintf("%.4f", level))
	}

	return strings.Join(parts, ", ")
}
