package risk

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/internal/marketcache"
	"github.com/rxtech-lab/argo-dispatch/internal/ratelimit"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Assessor decides whether a proposal may execute and at what size.
type Assessor interface {
	// Assess never returns an error for a business rejection. Rejections come back as an
	// assessment with IsValid=false and a Reason. An error means the input was not numeric.
	Assess(ctx context.Context, proposal types.TradeProposal, snapshot optional.Option[types.MarketSnapshot], portfolio types.Portfolio) (types.RiskAssessment, error)
}

// Manager runs the ordered admission pipeline. It is safe for concurrent use; the only state
// it touches is the shared snapshot cache and rate limiter.
type Manager struct {
	config  Config
	cache   *marketcache.Cache
	limiter *ratelimit.Limiter
	logger  *logger.Logger
	now     func() time.Time
}

type Option func(*Manager)

// WithClock overrides the time source used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a risk manager. A nil cache disables the cache fallback for proposals
// assessed without a snapshot; a nil limiter gets a private one.
func NewManager(config Config, cache *marketcache.Cache, limiter *ratelimit.Limiter, log *logger.Logger, opts ...Option) *Manager {
	if limiter == nil {
		limiter = ratelimit.NewLimiter()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	m := &Manager{
		config:  config,
		cache:   cache,
		limiter: limiter,
		logger:  log.Named("risk"),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Config returns the thresholds in use.
func (m *Manager) Config() Config {
	return m.config
}

type stage struct {
	name string
	run  func(*evaluation)
}

func (m *Manager) pipeline() []stage {
	return []stage{
		{"validation", m.validateBasics},
		{"rate_limit", m.checkRateLimit},
		{"freshness", m.checkFreshness},
		{"sizing", m.sizePosition},
		{"impact", m.estimateImpact},
		{"risk_reward", m.computeRiskReward},
		{"margin", m.checkMarginAndDrawdown},
		{"correlation", m.checkCorrelation},
	}
}

// Assess implements Assessor.
func (m *Manager) Assess(ctx context.Context, proposal types.TradeProposal, snapshot optional.Option[types.MarketSnapshot], portfolio types.Portfolio) (types.RiskAssessment, error) {
	now := m.now()

	if snapshot.IsNone() && m.cache != nil {
		snapshot = m.cache.Snapshot(proposal.Symbol, now)
	}

	if err := checkNumeric(proposal, snapshot, portfolio); err != nil {
		return types.RiskAssessment{}, err
	}

	e := newEvaluation(proposal, snapshot, portfolio, now)

	for _, s := range m.pipeline() {
		if err := ctx.Err(); err != nil {
			return types.RiskAssessment{}, errors.Wrap(errors.ErrCodeInvalidParameter, "assessment cancelled", err)
		}

		s.run(e)

		if e.rejected {
			m.logger.Debug("Proposal rejected",
				zap.String("symbol", proposal.Symbol),
				zap.String("stage", s.name),
				zap.String("reason", e.result.Reason),
			)

			return e.rejection(), nil
		}
	}

	m.assemble(e)

	if e.rejected {
		return e.rejection(), nil
	}

	m.logger.Debug("Proposal admitted",
		zap.String("symbol", proposal.Symbol),
		zap.Float64("requested", proposal.Amount),
		zap.Float64("dynamic_position_size", e.result.DynamicPositionSize),
		zap.Float64("risk_level", e.result.RiskLevel),
	)

	return e.result, nil
}

// evaluation carries the intermediate state of one Assess call through the stages.
type evaluation struct {
	proposal  types.TradeProposal
	snapshot  optional.Option[types.MarketSnapshot]
	market    types.MarketSnapshot
	portfolio types.Portfolio
	now       time.Time

	leverage          float64
	account           float64
	baseSize          float64
	maxSlippage       float64
	participation     float64
	marginUtilisation float64
	drawdown          float64
	// peakCorrelation is the largest pairwise correlation with any single position.
	peakCorrelation float64
	stopPct         float64
	stale           bool

	result   types.RiskAssessment
	rejected bool
}

func newEvaluation(proposal types.TradeProposal, snapshot optional.Option[types.MarketSnapshot], portfolio types.Portfolio, now time.Time) *evaluation {
	if portfolio.AccountSize <= 0 {
		portfolio.AccountSize = proposal.AccountSize
	}

	if len(portfolio.Positions) == 0 {
		portfolio.Positions = proposal.ExistingPositions
	}

	e := &evaluation{
		proposal:  proposal,
		snapshot:  snapshot,
		portfolio: portfolio,
		now:       now,
		leverage:  proposal.EffectiveLeverage(),
		account:   portfolio.AccountSize,
		result: types.RiskAssessment{
			ScaleFactors: map[string]float64{},
		},
	}

	if snapshot.IsSome() {
		e.market = snapshot.Unwrap()
	}

	return e
}

func (e *evaluation) reject(reason string, recommendation string) {
	e.rejected = true
	e.result.Reason = reason

	if recommendation != "" {
		e.result.Recommendations = append(e.result.Recommendations, recommendation)
	}
}

func (e *evaluation) recommend(format string, args ...any) {
	e.result.Recommendations = append(e.result.Recommendations, fmt.Sprintf(format, args...))
}

// scale records a multiplicative reduction for a stage. Factors of 1 or more are ignored.
func (e *evaluation) scale(name string, factor float64) {
	if factor >= 1 {
		return
	}

	if factor < 0 {
		factor = 0
	}

	if existing, ok := e.result.ScaleFactors[name]; ok {
		factor *= existing
	}

	e.result.ScaleFactors[name] = factor
}

// scaleProduct multiplies the factors in key order so repeated calls are bit-for-bit stable.
func (e *evaluation) scaleProduct() float64 {
	product := 1.0
	for _, name := range slices.Sorted(maps.Keys(e.result.ScaleFactors)) {
		product *= e.result.ScaleFactors[name]
	}

	return product
}

// currentSize is the base size after every reduction recorded so far.
func (e *evaluation) currentSize() float64 {
	return e.baseSize * e.scaleProduct()
}

func (e *evaluation) rejection() types.RiskAssessment {
	r := e.result
	r.IsValid = false
	r.Confidence = 0
	r.RiskLevel = 1
	r.MaxLoss = 0
	r.PositionSize = 0
	r.DynamicPositionSize = 0
	r.StopLossLevel = 0
	r.TakeProfitLevels = nil
	r.TrailingStopLevel = 0

	return r
}

func (m *Manager) validateBasics(e *evaluation) {
	p := e.proposal

	switch {
	case p.Amount <= 0:
		e.reject(fmt.Sprintf("invalid amount %v: must be positive", p.Amount), "")
	case p.Price <= 0:
		e.reject(fmt.Sprintf("invalid price %v: must be positive", p.Price), "")
	case e.account <= 0:
		e.reject("account size must be positive", "provide the account size with the proposal or portfolio")
	case e.leverage < 1:
		e.reject(fmt.Sprintf("invalid leverage %v: must be at least 1x", p.Leverage), "")
	default:
		maxLeverage := m.config.MaxLeverage
		if p.IsMemeCoin {
			maxLeverage *= m.config.MemeLeverageMultiplier
		}

		if e.leverage > maxLeverage {
			e.reject(
				fmt.Sprintf("leverage %.2fx exceeds maximum %.2fx", e.leverage, maxLeverage),
				fmt.Sprintf("reduce leverage to %.2fx or less", maxLeverage),
			)
		}
	}
}

func (m *Manager) checkRateLimit(e *evaluation) {
	res := m.limiter.Check(e.proposal.Symbol, m.config.RateLimit.MaxRequests, m.config.RateLimit.Window)

	e.result.RateLimitInfo = types.RateLimitInfo{
		IsLimited: res.IsLimited,
		Remaining: res.Remaining,
		ResetAt:   res.ResetAt,
	}

	if res.IsLimited {
		e.reject(
			fmt.Sprintf("rate limit exceeded for %s", e.proposal.Symbol),
			fmt.Sprintf("retry after %s", res.ResetAt.Format(time.RFC3339)),
		)
	}
}

func (m *Manager) checkFreshness(e *evaluation) {
	if e.snapshot.IsNone() {
		e.reject(
			fmt.Sprintf("no fresh market data available for %s", e.proposal.Symbol),
			"refresh market data before assessing",
		)

		return
	}

	age := e.market.Age(e.now)

	if age > m.config.HardStaleCutoff {
		e.reject(
			fmt.Sprintf("market data for %s is stale: older than %s", e.proposal.Symbol, m.config.HardStaleCutoff),
			"refresh market data before assessing",
		)

		return
	}

	if age > m.config.StaleAfter {
		e.stale = true
		e.recommend("market data is stale (%s old); refresh before executing", age.Truncate(time.Second))
	}
}

// assemble combines the scale factors into the final size and derives the summary signals.
func (m *Manager) assemble(e *evaluation) {
	r := &e.result
	price := e.proposal.Price

	dynamic := truncate(e.currentSize())
	if dynamic > r.PositionSize {
		dynamic = truncate(r.PositionSize)
	}

	if dynamic <= 0 {
		e.reject("position size rounds to zero after risk scaling", "increase account size or reduce constraints")

		return
	}

	r.DynamicPositionSize = dynamic
	r.MaxLoss = dynamic * price * e.stopPct

	signals := []float64{
		e.market.Volatility / (2 * m.config.VolatilityThreshold),
		r.MarketImpact / (m.config.ImpactRejectMultiple * e.maxSlippage),
		r.ExpectedSlippage / (m.config.SlippageRejectMultiple * e.maxSlippage),
		e.peakCorrelation,
		1 - r.LiquidityScore,
	}

	level := 0.0
	for _, s := range signals {
		level = math.Max(level, s)
	}

	r.RiskLevel = clamp(level, 0, 1)

	confidence := 1 - 0.5*r.RiskLevel
	if e.stale {
		confidence -= m.config.StaleConfidencePenalty
	}

	r.Confidence = clamp(confidence, 0, 1)

	product := e.scaleProduct()
	if product < 1 {
		e.recommend("position scaled to %.2f%% of the requested size", product*100)
	}

	r.IsValid = true
}

func checkNumeric(p types.TradeProposal, snapshot optional.Option[types.MarketSnapshot], portfolio types.Portfolio) error {
	values := map[string]float64{
		"amount":             p.Amount,
		"price":              p.Price,
		"leverage":           p.Leverage,
		"account_size":       p.AccountSize,
		"slippage_tolerance": p.SlippageTolerance,
		"portfolio.account":  portfolio.AccountSize,
	}

	if p.MarketAlignment.IsSome() {
		values["market_alignment"] = p.MarketAlignment.Unwrap()
	}

	if snapshot.IsSome() {
		s := snapshot.Unwrap()
		values["snapshot.price"] = s.Price
		values["snapshot.volume"] = s.Volume
		values["snapshot.liquidity"] = s.Liquidity
		values["snapshot.spread"] = s.Spread
		values["snapshot.volatility"] = s.Volatility
	}

	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf(errors.ErrCodeInvalidNumeric, "%s is not a finite number", name)
		}
	}

	positions := append(append([]types.ExistingPosition(nil), p.ExistingPositions...), portfolio.Positions...)
	for _, pos := range positions {
		for _, v := range []float64{pos.Amount, pos.EntryPrice, pos.CurrentPrice, pos.MarginUsed, pos.UnrealizedPnL} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Newf(errors.ErrCodeInvalidNumeric, "position %s has a non-finite value", pos.Symbol)
			}
		}
	}

	return nil
}

// truncate rounds down to 8 decimal places.
func truncate(v float64) float64 {
	return decimal.NewFromFloat(v).Truncate(8).InexactFloat64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
