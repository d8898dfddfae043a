package types

// AIRiskAssessment is the risk part of an AI validator opinion.
type AIRiskAssessment struct {
	RiskLevel float64 `yaml:"risk_level" json:"riskLevel"`
	MaxLoss   float64 `yaml:"max_loss" json:"maxLoss"`
}

// AIValidationMetrics carries the market fit scores of an AI validator opinion.
type AIValidationMetrics struct {
	MarketConditionsAlignment float64 `yaml:"market_conditions_alignment" json:"marketConditionsAlignment"`
	RiskRewardRatio           float64 `yaml:"risk_reward_ratio" json:"riskRewardRatio"`
}

// AIValidation is the structured opinion returned by the advisory AI validator.
type AIValidation struct {
	IsValid           bool                `yaml:"is_valid" json:"isValid"`
	RiskAssessment    AIRiskAssessment    `yaml:"risk_assessment" json:"riskAssessment"`
	ValidationMetrics AIValidationMetrics `yaml:"validation_metrics" json:"validationMetrics"`
	Recommendations   []string            `yaml:"recommendations" json:"recommendations"`
	Confidence        float64             `yaml:"confidence" json:"confidence"`
	Reason            string              `yaml:"reason" json:"reason"`
}
