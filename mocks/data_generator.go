package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-dispatch/internal/types"
)

// DataGenerator generates market snapshots and trade proposals for tests and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how snapshots are generated.
type GeneratorConfig struct {
	Symbol    string
	StartTime time.Time
	// Interval is the time between two snapshots.
	Interval     time.Duration
	Count        int
	InitialPrice float64
	// Volatility is the per-step standard deviation of the price (0.01 = 1%).
	Volatility float64
	// Trend is the total drift spread over the series.
	Trend float64
	// LiquidityBase and VolumeBase are the averages around which liquidity and volume vary.
	LiquidityBase float64
	VolumeBase    float64
	// Variance in [0,1] of liquidity and volume around their base.
	Variance float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:        "SOL/USD",
		StartTime:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:      time.Second,
		Count:         1000,
		InitialPrice:  100.0,
		Volatility:    0.002,
		Trend:         0.0,
		LiquidityBase: 1_000_000,
		VolumeBase:    10_000,
		Variance:      0.3,
	}
}

// Snapshots creates a series of snapshots whose price follows a geometric Brownian motion.
func (g *DataGenerator) Snapshots(config GeneratorConfig) []types.MarketSnapshot {
	data := make([]types.MarketSnapshot, config.Count)
	price := config.InitialPrice
	at := config.StartTime

	for i := range config.Count {
		// Box-Muller transform for a standard normal draw
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		next := price * (1 + config.Volatility*z + config.Trend/float64(config.Count))
		if next <= 0 {
			next = price * 0.99
		}

		data[i] = types.MarketSnapshot{
			Symbol:     config.Symbol,
			Price:      roundToDecimals(next, 4),
			Volume:     roundToDecimals(g.vary(config.VolumeBase, config.Variance), 2),
			Liquidity:  roundToDecimals(g.vary(config.LiquidityBase, config.Variance), 2),
			Spread:     roundToDecimals(0.0005+g.rng.Float64()*0.002, 6),
			Volatility: roundToDecimals(0.2+g.rng.Float64()*1.8, 4),
			Timestamp:  at,
			Source:     types.SnapshotSourceLive,
		}

		price = next
		at = at.Add(config.Interval)
	}

	return data
}

// Proposal creates a proposal priced against the snapshot with a random side, size and leverage.
func (g *DataGenerator) Proposal(snapshot types.MarketSnapshot, accountSize float64) types.TradeProposal {
	side := types.SideBuy
	if g.rng.Intn(2) == 1 {
		side = types.SideSell
	}

	orderType := types.OrderTypeMarket
	if g.rng.Intn(4) == 0 {
		orderType = types.OrderTypeLimit
	}

	// Notional between 0.01% and 20% of the account
	notional := accountSize * (0.0001 + g.rng.Float64()*0.2)

	return types.TradeProposal{
		Symbol:      snapshot.Symbol,
		Side:        side,
		Amount:      roundToDecimals(notional/snapshot.Price, 6),
		Price:       snapshot.Price,
		OrderType:   orderType,
		Leverage:    float64(1 + g.rng.Intn(10)),
		AccountSize: accountSize,
		IsMemeCoin:  g.rng.Intn(5) == 0,
	}
}

// Proposals pairs each snapshot with a generated proposal.
func (g *DataGenerator) Proposals(snapshots []types.MarketSnapshot, accountSize float64) []types.TradeProposal {
	proposals := make([]types.TradeProposal, 0, len(snapshots))
	for _, snapshot := range snapshots {
		proposals = append(proposals, g.Proposal(snapshot, accountSize))
	}

	return proposals
}

// SnapshotsMultiSymbol generates a series for every symbol, varying the starting price and
// volatility slightly per symbol.
func (g *DataGenerator) SnapshotsMultiSymbol(symbols []string, baseConfig GeneratorConfig) []types.MarketSnapshot {
	var all []types.MarketSnapshot

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		all = append(all, g.Snapshots(config)...)
	}

	return all
}

func (g *DataGenerator) vary(base, variance float64) float64 {
	value := base * (1.0 + (g.rng.Float64()*2-1)*variance)
	if value < 0 {
		return base * 0.1
	}

	return value
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
