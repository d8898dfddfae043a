package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// HTTPConfig configures the remote AI validator endpoint.
type HTTPConfig struct {
	Endpoint string        `yaml:"endpoint" json:"endpoint" jsonschema:"title=Endpoint,description=URL receiving POSTed proposals" validate:"omitempty,url"`
	APIKey   string        `yaml:"api_key" json:"api_key" jsonschema:"title=API Key"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" jsonschema:"title=Timeout" validate:"gte=0"`
}

// HTTPValidator posts proposals to a remote validator and reads the opinion from the JSON
// response. The opinion may be the whole body or nested under "validation".
type HTTPValidator struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *logger.Logger
}

func NewHTTPValidator(config HTTPConfig, log *logger.Logger) *HTTPValidator {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPValidator{
		endpoint: config.Endpoint,
		apiKey:   config.APIKey,
		client:   &http.Client{Timeout: timeout},
		logger:   log.Named("advisory"),
	}
}

type validationRequest struct {
	Symbol            string                   `json:"symbol"`
	Side              types.Side               `json:"side"`
	Amount            float64                  `json:"amount"`
	Price             float64                  `json:"price"`
	OrderType         types.OrderType          `json:"orderType"`
	Leverage          float64                  `json:"leverage"`
	SlippageTolerance float64                  `json:"slippageTolerance"`
	AccountSize       float64                  `json:"accountSize"`
	IsMemeCoin        bool                     `json:"isMemeCoin"`
	ExistingPositions []types.ExistingPosition `json:"existingPositions"`
}

func (v *HTTPValidator) ValidateTrade(ctx context.Context, proposal types.TradeProposal) (types.AIValidation, error) {
	body, err := json.Marshal(validationRequest{
		Symbol:            proposal.Symbol,
		Side:              proposal.Side,
		Amount:            proposal.Amount,
		Price:             proposal.Price,
		OrderType:         proposal.OrderType,
		Leverage:          proposal.EffectiveLeverage(),
		SlippageTolerance: proposal.SlippageTolerance,
		AccountSize:       proposal.AccountSize,
		IsMemeCoin:        proposal.IsMemeCoin,
		ExistingPositions: proposal.ExistingPositions,
	})
	if err != nil {
		return types.AIValidation{}, errors.Wrap(errors.ErrCodeAIUnavailable, "failed to encode validation request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return types.AIValidation{}, errors.Wrap(errors.ErrCodeAIUnavailable, "failed to build validation request", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if v.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.apiKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return types.AIValidation{}, errors.Wrap(errors.ErrCodeAIUnavailable, "AI validator request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.AIValidation{}, errors.Wrap(errors.ErrCodeAIUnavailable, "failed to read AI validator response", err)
	}

	if resp.StatusCode/100 != 2 {
		msg := strings.TrimSpace(gjson.GetBytes(raw, "error.message").String())
		if msg == "" {
			msg = resp.Status
		}

		return types.AIValidation{}, errors.Newf(errors.ErrCodeAIUnavailable, "AI validator returned %d: %s", resp.StatusCode, msg)
	}

	result, err := parseValidation(raw)
	if err != nil {
		return types.AIValidation{}, err
	}

	v.logger.Debug("AI validation received",
		zap.String("symbol", proposal.Symbol),
		zap.Bool("is_valid", result.IsValid),
		zap.Float64("risk_level", result.RiskAssessment.RiskLevel),
		zap.Float64("confidence", result.Confidence),
	)

	return result, nil
}

func parseValidation(raw []byte) (types.AIValidation, error) {
	if !gjson.ValidBytes(raw) {
		return types.AIValidation{}, errors.New(errors.ErrCodeAIUnavailable, "AI validator response is not valid JSON")
	}

	parsed := gjson.ParseBytes(raw)
	if nested := parsed.Get("validation"); nested.IsObject() {
		parsed = nested
	}

	if !parsed.IsObject() {
		return types.AIValidation{}, errors.New(errors.ErrCodeAIUnavailable, "AI validator response must be a JSON object")
	}

	isValid := parsed.Get("isValid")
	if !isValid.Exists() {
		return types.AIValidation{}, errors.New(errors.ErrCodeAIUnavailable, "AI validator response has no isValid field")
	}

	result := types.AIValidation{
		IsValid: isValid.Bool(),
		RiskAssessment: types.AIRiskAssessment{
			RiskLevel: parsed.Get("riskAssessment.riskLevel").Float(),
			MaxLoss:   parsed.Get("riskAssessment.maxLoss").Float(),
		},
		ValidationMetrics: types.AIValidationMetrics{
			MarketConditionsAlignment: parsed.Get("validationMetrics.marketConditionsAlignment").Float(),
			RiskRewardRatio:           parsed.Get("validationMetrics.riskRewardRatio").Float(),
		},
		Confidence: parsed.Get("confidence").Float(),
		Reason:     parsed.Get("reason").String(),
	}

	for _, rec := range parsed.Get("recommendations").Array() {
		result.Recommendations = append(result.Recommendations, rec.String())
	}

	return result, nil
}
