package risk

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/internal/marketcache"
	"github.com/rxtech-lab/argo-dispatch/internal/ratelimit"
	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ManagerTestSuite struct {
	suite.Suite
	now     time.Time
	cache   *marketcache.Cache
	manager *Manager
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func (suite *ManagerTestSuite) SetupTest() {
	suite.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.cache = marketcache.NewCacheWithClock(30*time.Second, suite.clock)
	suite.manager = suite.newManager(DefaultConfig())
}

func (suite *ManagerTestSuite) clock() time.Time {
	return suite.now
}

func (suite *ManagerTestSuite) newManager(cfg Config) *Manager {
	return NewManager(cfg, suite.cache, ratelimit.NewLimiterWithClock(suite.clock), logger.NewNopLogger(), WithClock(suite.clock))
}

func (suite *ManagerTestSuite) proposal() types.TradeProposal {
	return types.TradeProposal{
		Symbol:      "SOL/USD",
		Side:        types.SideBuy,
		Amount:      0.1,
		Price:       100,
		OrderType:   types.OrderTypeMarket,
		Leverage:    1,
		AccountSize: 100_000,
	}
}

func (suite *ManagerTestSuite) snapshot() types.MarketSnapshot {
	return types.MarketSnapshot{
		Symbol:     "SOL/USD",
		Price:      100,
		Volume:     10_000,
		Liquidity:  1_000_000,
		Volatility: 0.8,
		Timestamp:  suite.now,
		Source:     types.SnapshotSourceLive,
	}
}

func (suite *ManagerTestSuite) assess(p types.TradeProposal, s types.MarketSnapshot) types.RiskAssessment {
	result, err := suite.manager.Assess(context.Background(), p, optional.Some(s), types.Portfolio{})
	suite.Require().NoError(err)

	return result
}

func (suite *ManagerTestSuite) TestScenarioOneAdmitsUnscaled() {
	result := suite.assess(suite.proposal(), suite.snapshot())

	suite.True(result.IsValid, result.Reason)
	suite.Equal(0.1, result.DynamicPositionSize)
	suite.Equal(2_000.0, result.PositionSize)
	suite.Empty(result.ScaleFactors)

	suite.Require().Len(result.TakeProfitLevels, 3)
	suite.Greater(result.TakeProfitLevels[0], 100.0)
	suite.Greater(result.TakeProfitLevels[1], result.TakeProfitLevels[0])
	suite.Greater(result.TakeProfitLevels[2], result.TakeProfitLevels[1])
	suite.Less(result.TrailingStopLevel, result.TakeProfitLevels[0])
	suite.Less(result.StopLossLevel, 100.0)
	suite.InDelta(105.4, result.TakeProfitLevels[0], 1e-9)
	suite.InDelta(97.3, result.TrailingStopLevel, 1e-9)

	suite.False(result.RateLimitInfo.IsLimited)
	suite.Equal(9, result.RateLimitInfo.Remaining)
	suite.Equal(1.0, result.LiquidityScore)
	suite.InDelta(0.1*100*0.036, result.MaxLoss, 1e-9)
	suite.GreaterOrEqual(result.RiskRewardRatio, 1.8)
	suite.Greater(result.Confidence, 0.0)
}

func (suite *ManagerTestSuite) TestScenarioTwoLowLiquidityRejected() {
	snapshot := suite.snapshot()
	snapshot.Liquidity = 50_000

	result := suite.assess(suite.proposal(), snapshot)

	suite.False(result.IsValid)
	suite.Contains(result.Reason, "liquidity")
	suite.Equal(0.0, result.DynamicPositionSize)
	suite.Equal(0.0, result.PositionSize)
	suite.Nil(result.TakeProfitLevels)
	suite.Equal(0.0, result.TrailingStopLevel)
}

func (suite *ManagerTestSuite) TestNonPositiveAmountOrPriceRejected() {
	tests := []struct {
		name   string
		amount float64
		price  float64
	}{
		{"zero amount", 0, 100},
		{"negative amount", -1, 100},
		{"zero price", 1, 0},
		{"negative price", 1, -5},
		{"both zero", 0, 0},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			p := suite.proposal()
			p.Amount = tt.amount
			p.Price = tt.price

			result := suite.assess(p, suite.snapshot())
			suite.False(result.IsValid)
			suite.Equal(0.0, result.PositionSize)
			suite.Equal(0.0, result.DynamicPositionSize)
			suite.NotEmpty(result.Reason)
		})
	}
}

func (suite *ManagerTestSuite) TestDynamicSizeNeverExceedsBudget() {
	cfg := DefaultConfig()
	cfg.RateLimit.MaxRequests = 10_000
	suite.manager = suite.newManager(cfg)

	for _, amount := range []float64{0.1, 10, 1_000, 5_000} {
		for _, leverage := range []float64{1, 2, 5, 10} {
			for _, volatility := range []float64{0.2, 0.8, 1.5, 3} {
				for _, meme := range []bool{false, true} {
					p := suite.proposal()
					p.Amount = amount
					p.Leverage = leverage
					p.IsMemeCoin = meme

					s := suite.snapshot()
					s.Volatility = volatility
					s.Volume = 1e9

					result := suite.assess(p, s)
					ceiling := p.AccountSize * cfg.RiskPerTrade / leverage

					suite.LessOrEqual(result.DynamicPositionSize, result.PositionSize)
					suite.LessOrEqual(result.PositionSize, ceiling+1e-9)

					if !result.IsValid {
						suite.Equal(0.0, result.PositionSize)
						suite.Nil(result.TakeProfitLevels)
					}
				}
			}
		}
	}
}

func (suite *ManagerTestSuite) TestHighCorrelationScalesHeavily() {
	p := suite.proposal()
	p.Symbol = "ETH/USD"
	p.ExistingPositions = []types.ExistingPosition{
		{Symbol: "BTC/USD", Amount: 1, CurrentPrice: 50_000},
	}

	s := suite.snapshot()
	s.Symbol = "ETH/USD"

	result := suite.assess(p, s)

	suite.Require().True(result.IsValid, result.Reason)
	suite.InDelta(0.85, result.CorrelationFactor, 1e-9)
	suite.Equal(DefaultConfig().CorrelationHeavyScale, result.ScaleFactors["correlation_heavy"])
	suite.InDelta(0.575, result.ScaleFactors["correlation"], 1e-9)
	suite.LessOrEqual(result.DynamicPositionSize, p.Amount*DefaultConfig().CorrelationHeavyScale)
	suite.InDelta(0.02875, result.DynamicPositionSize, 1e-7)
}

func (suite *ManagerTestSuite) TestSameAssetCorrelationRejected() {
	p := suite.proposal()
	p.ExistingPositions = []types.ExistingPosition{
		{Symbol: "SOLUSDT", Amount: 10, CurrentPrice: 100},
	}

	result := suite.assess(p, suite.snapshot())

	suite.False(result.IsValid)
	suite.Contains(result.Reason, "correlation")
}

func (suite *ManagerTestSuite) TestLargeUncorrelatedPositionDoesNotDiluteSameAsset() {
	p := suite.proposal()
	p.ExistingPositions = []types.ExistingPosition{
		{Symbol: "SOLUSDT", Amount: 10, CurrentPrice: 100},
		{Symbol: "XRPUSDT", Amount: 2_000_000, CurrentPrice: 0.5},
	}

	result := suite.assess(p, suite.snapshot())

	suite.Less(result.CorrelationFactor, DefaultConfig().CorrelationScaleThreshold)
	suite.False(result.IsValid)
	suite.Contains(result.Reason, "correlation")
	suite.Equal(0.0, result.DynamicPositionSize)
}

func (suite *ManagerTestSuite) TestLargeUncorrelatedPositionDoesNotDiluteHighCorrelation() {
	p := suite.proposal()
	p.Symbol = "ETH/USD"
	p.ExistingPositions = []types.ExistingPosition{
		{Symbol: "BTC/USD", Amount: 0.02, CurrentPrice: 50_000},
		{Symbol: "XRPUSDT", Amount: 2_000_000, CurrentPrice: 0.5},
	}

	s := suite.snapshot()
	s.Symbol = "ETH/USD"

	result := suite.assess(p, s)

	suite.Require().True(result.IsValid, result.Reason)
	suite.Equal(DefaultConfig().CorrelationHeavyScale, result.ScaleFactors["correlation_heavy"])
	suite.LessOrEqual(result.DynamicPositionSize, p.Amount*DefaultConfig().CorrelationHeavyScale)
	suite.GreaterOrEqual(result.RiskLevel, 0.85)
}

func (suite *ManagerTestSuite) TestRateLimitRejects() {
	cfg := DefaultConfig()
	cfg.RateLimit.MaxRequests = 2
	suite.manager = suite.newManager(cfg)

	first := suite.assess(suite.proposal(), suite.snapshot())
	suite.True(first.IsValid)
	suite.Equal(1, first.RateLimitInfo.Remaining)

	suite.True(suite.assess(suite.proposal(), suite.snapshot()).IsValid)

	third := suite.assess(suite.proposal(), suite.snapshot())
	suite.False(third.IsValid)
	suite.Contains(third.Reason, "rate limit")
	suite.True(third.RateLimitInfo.IsLimited)
	suite.Equal(suite.now.Add(cfg.RateLimit.Window), third.RateLimitInfo.ResetAt)

	suite.now = suite.now.Add(cfg.RateLimit.Window + time.Second)

	s := suite.snapshot()
	s.Timestamp = suite.now
	suite.True(suite.assess(suite.proposal(), s).IsValid)
}

func (suite *ManagerTestSuite) TestStaleSnapshotFlagged() {
	s := suite.snapshot()
	s.Timestamp = suite.now.Add(-time.Minute)

	result := suite.assess(suite.proposal(), s)
	suite.True(result.IsValid)
	suite.Require().NotEmpty(result.Recommendations)
	suite.Contains(result.Recommendations[0], "stale")

	fresh := suite.assess(suite.proposal(), suite.snapshot())
	suite.Less(result.Confidence, fresh.Confidence)
}

func (suite *ManagerTestSuite) TestHardStaleCutoffRejects() {
	s := suite.snapshot()
	s.Timestamp = suite.now.Add(-10 * time.Minute)

	result := suite.assess(suite.proposal(), s)
	suite.False(result.IsValid)
	suite.Contains(result.Reason, "stale")
}

func (suite *ManagerTestSuite) TestMissingSnapshotReadsCache() {
	suite.cache.Put("SOL/USD", suite.snapshot(), 0)

	result, err := suite.manager.Assess(context.Background(), suite.proposal(), optional.None[types.MarketSnapshot](), types.Portfolio{})
	suite.Require().NoError(err)
	suite.True(result.IsValid, result.Reason)
	suite.Equal(0.1, result.DynamicPositionSize)

	p := suite.proposal()
	p.Symbol = "BTC/USD"

	result, err = suite.manager.Assess(context.Background(), p, optional.None[types.MarketSnapshot](), types.Portfolio{})
	suite.Require().NoError(err)
	suite.False(result.IsValid)
	suite.Contains(result.Reason, "market data")
}

func (suite *ManagerTestSuite) TestExpiredCacheEntryTreatedAsAbsent() {
	suite.cache.Put("SOL/USD", suite.snapshot(), 10*time.Second)
	suite.now = suite.now.Add(20 * time.Second)

	result, err := suite.manager.Assess(context.Background(), suite.proposal(), optional.None[types.MarketSnapshot](), types.Portfolio{})
	suite.Require().NoError(err)
	suite.False(result.IsValid)
	suite.Contains(result.Reason, "no fresh market data")
}

func (suite *ManagerTestSuite) TestLeverageLimits() {
	p := suite.proposal()
	p.Leverage = 15

	result := suite.assess(p, suite.snapshot())
	suite.False(result.IsValid)
	suite.Contains(result.Reason, "leverage")

	p.IsMemeCoin = true
	result = suite.assess(p, suite.snapshot())
	suite.True(result.IsValid, result.Reason)
	suite.InDelta(100_000*0.02/15*0.5, result.PositionSize, 1e-9)

	p.Leverage = 25
	suite.False(suite.assess(p, suite.snapshot()).IsValid)

	p.Leverage = 0.5
	suite.False(suite.assess(p, suite.snapshot()).IsValid)
}

func (suite *ManagerTestSuite) TestShortLadderDescends() {
	p := suite.proposal()
	p.Side = types.SideSell

	result := suite.assess(p, suite.snapshot())

	suite.Require().True(result.IsValid, result.Reason)
	suite.Require().Len(result.TakeProfitLevels, 3)
	suite.Less(result.TakeProfitLevels[0], 100.0)
	suite.Less(result.TakeProfitLevels[1], result.TakeProfitLevels[0])
	suite.Less(result.TakeProfitLevels[2], result.TakeProfitLevels[1])
	suite.Greater(result.StopLossLevel, 100.0)
	suite.Greater(result.TrailingStopLevel, result.TakeProfitLevels[0])
	suite.InDelta(104.5, result.StopLossLevel, 1e-9)
}

func (suite *ManagerTestSuite) TestMarginUtilisationRejects() {
	p := suite.proposal()
	portfolio := types.Portfolio{
		AccountSize: 100_000,
		Positions: []types.ExistingPosition{
			{Symbol: "XRP/USD", Amount: 1_000, CurrentPrice: 1, MarginUsed: 90_000},
		},
	}

	result, err := suite.manager.Assess(context.Background(), p, optional.Some(suite.snapshot()), portfolio)
	suite.Require().NoError(err)
	suite.False(result.IsValid)
	suite.Contains(result.Reason, "margin")
}

func (suite *ManagerTestSuite) TestMarginUtilisationScales() {
	portfolio := types.Portfolio{
		AccountSize: 100_000,
		Positions: []types.ExistingPosition{
			{Symbol: "XRP/USD", Amount: 1_000, CurrentPrice: 1, MarginUsed: 77_500},
		},
	}

	result, err := suite.manager.Assess(context.Background(), suite.proposal(), optional.Some(suite.snapshot()), portfolio)
	suite.Require().NoError(err)
	suite.Require().True(result.IsValid, result.Reason)
	suite.InDelta(0.625, result.ScaleFactors["margin"], 1e-9)
	suite.InDelta(22_500.0, result.MarginRequirements.Available, 1e-9)
}

func (suite *ManagerTestSuite) TestDrawdownScalesAndRejects() {
	portfolio := types.Portfolio{
		AccountSize: 100_000,
		Positions: []types.ExistingPosition{
			{Symbol: "XRP/USD", UnrealizedPnL: -25_000},
		},
	}

	result, err := suite.manager.Assess(context.Background(), suite.proposal(), optional.Some(suite.snapshot()), portfolio)
	suite.Require().NoError(err)
	suite.Require().True(result.IsValid, result.Reason)
	suite.InDelta(0.75, result.ScaleFactors["drawdown"], 1e-9)
	suite.InDelta(0.8, result.ScaleFactors["max_drawdown"], 1e-9)
	suite.InDelta(0.06, result.DynamicPositionSize, 1e-7)

	portfolio.Positions[0].UnrealizedPnL = -35_000

	result, err = suite.manager.Assess(context.Background(), suite.proposal(), optional.Some(suite.snapshot()), portfolio)
	suite.Require().NoError(err)
	suite.False(result.IsValid)
	suite.Contains(result.Reason, "drawdown")
}

func (suite *ManagerTestSuite) TestImpactRejects() {
	p := suite.proposal()
	p.Amount = 1_500
	p.AccountSize = 10_000_000

	result := suite.assess(p, suite.snapshot())
	suite.False(result.IsValid)
	suite.Contains(result.Reason, "market impact")
	suite.Greater(result.MarketImpact, 0.02)
}

func (suite *ManagerTestSuite) TestImpactScales() {
	p := suite.proposal()
	p.Amount = 150
	p.AccountSize = 1_000_000

	s := suite.snapshot()
	s.Volume = 1e15
	s.Volatility = 0

	result := suite.assess(p, s)
	suite.Require().True(result.IsValid, result.Reason)
	suite.InDelta(2.0/3.0, result.ScaleFactors["impact"], 1e-6)
	suite.InDelta(2.0/3.0, result.ScaleFactors["slippage"], 1e-6)
	suite.InDelta(150*4.0/9.0, result.DynamicPositionSize, 1e-5)
}

func (suite *ManagerTestSuite) TestSpreadAndVolatilityScale() {
	s := suite.snapshot()
	s.Spread = 0.01
	s.Volatility = 1.5
	s.Volume = 1e9

	p := suite.proposal()
	p.MarketAlignment = optional.Some(1.0)

	result := suite.assess(p, s)
	suite.InDelta(0.5, result.ScaleFactors["spread"], 1e-9)
	suite.InDelta(1/1.5, result.ScaleFactors["volatility"], 1e-9)
}

func (suite *ManagerTestSuite) TestLowAlignmentRejects() {
	p := suite.proposal()
	p.MarketAlignment = optional.Some(0.2)

	result := suite.assess(p, suite.snapshot())
	suite.False(result.IsValid)
	suite.Contains(result.Reason, "risk/reward")
}

func (suite *ManagerTestSuite) TestNonFiniteInputIsAnError() {
	p := suite.proposal()
	p.Amount = math.NaN()

	_, err := suite.manager.Assess(context.Background(), p, optional.Some(suite.snapshot()), types.Portfolio{})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidNumeric))

	s := suite.snapshot()
	s.Liquidity = math.Inf(1)

	_, err = suite.manager.Assess(context.Background(), suite.proposal(), optional.Some(s), types.Portfolio{})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidNumeric))
}

func (suite *ManagerTestSuite) TestDeterministicForSameInputs() {
	cfg := DefaultConfig()
	cfg.RateLimit.MaxRequests = 100
	suite.manager = suite.newManager(cfg)

	p := suite.proposal()
	p.ExistingPositions = []types.ExistingPosition{{Symbol: "BTC/USD", Amount: 1, CurrentPrice: 50_000, UnrealizedPnL: -8_000}}

	first := suite.assess(p, suite.snapshot())
	for i := 0; i < 10; i++ {
		again := suite.assess(p, suite.snapshot())
		suite.Equal(first.DynamicPositionSize, again.DynamicPositionSize)
		suite.Equal(first.Recommendations, again.Recommendations)
	}
}
