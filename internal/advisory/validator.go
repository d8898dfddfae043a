// Package advisory adapts the external AI trade validator. Its opinion is advisory: an explicit
// rejection or a violated gate threshold aborts a trade, while a failing validator does not.
package advisory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
)

// Validator returns an AI opinion on a proposal.
type Validator interface {
	ValidateTrade(ctx context.Context, proposal types.TradeProposal) (types.AIValidation, error)
}

// GateConfig holds the hard thresholds enforced on top of the validator's own verdict.
type GateConfig struct {
	MaxRiskLevel  float64 `yaml:"max_risk_level" json:"max_risk_level" jsonschema:"title=Max Risk Level,minimum=0,maximum=1" validate:"gte=0,lte=1"`
	MaxLoss       float64 `yaml:"max_loss" json:"max_loss" jsonschema:"title=Max Loss,description=Largest loss the validator may estimate" validate:"gte=0"`
	MinAlignment  float64 `yaml:"min_alignment" json:"min_alignment" jsonschema:"title=Min Market Alignment,minimum=0,maximum=1" validate:"gte=0,lte=1"`
	MinRiskReward float64 `yaml:"min_risk_reward" json:"min_risk_reward" jsonschema:"title=Min Risk/Reward,minimum=0" validate:"gte=0"`
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxRiskLevel:  0.8,
		MaxLoss:       1000,
		MinAlignment:  0.6,
		MinRiskReward: 1.5,
	}
}

// Gate applies GateConfig to validator results.
type Gate struct {
	config GateConfig
}

func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Violations lists every threshold the result breaks. An explicit invalid verdict is listed first.
func (g *Gate) Violations(result types.AIValidation) []string {
	var violations []string

	if !result.IsValid {
		reason := result.Reason
		if reason == "" {
			reason = "validator marked the trade invalid"
		}

		violations = append(violations, reason)
	}

	if result.RiskAssessment.RiskLevel > g.config.MaxRiskLevel {
		violations = append(violations, fmt.Sprintf("risk level %.2f above %.2f", result.RiskAssessment.RiskLevel, g.config.MaxRiskLevel))
	}

	if result.RiskAssessment.MaxLoss > g.config.MaxLoss {
		violations = append(violations, fmt.Sprintf("max loss %.2f above %.2f", result.RiskAssessment.MaxLoss, g.config.MaxLoss))
	}

	if result.ValidationMetrics.MarketConditionsAlignment < g.config.MinAlignment {
		violations = append(violations, fmt.Sprintf("market alignment %.2f below %.2f", result.ValidationMetrics.MarketConditionsAlignment, g.config.MinAlignment))
	}

	if result.ValidationMetrics.RiskRewardRatio < g.config.MinRiskReward {
		violations = append(violations, fmt.Sprintf("risk/reward %.2f below %.2f", result.ValidationMetrics.RiskRewardRatio, g.config.MinRiskReward))
	}

	return violations
}

// Check returns ErrCodeAIRejected when the result breaks any threshold.
func (g *Gate) Check(result types.AIValidation) error {
	violations := g.Violations(result)
	if len(violations) == 0 {
		return nil
	}

	return errors.Newf(errors.ErrCodeAIRejected, "AI validation rejected trade: %s", strings.Join(violations, "; "))
}
