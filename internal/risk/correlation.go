package risk

import (
	"strings"

	"github.com/rxtech-lab/argo-dispatch/internal/types"
)

type pair struct {
	a string
	b string
}

func newPair(a, b string) pair {
	if a > b {
		a, b = b, a
	}

	return pair{a: a, b: b}
}

// correlationTable holds the static pairwise correlations of the majors cluster and the meme
// cluster. Pairs not listed fall back to Config.DefaultCorrelation.
var correlationTable = map[pair]float64{
	newPair("BTC", "ETH"):   0.85,
	newPair("BTC", "SOL"):   0.75,
	newPair("ETH", "SOL"):   0.80,
	newPair("BTC", "BNB"):   0.70,
	newPair("ETH", "BNB"):   0.70,
	newPair("SOL", "BNB"):   0.65,
	newPair("DOGE", "SHIB"): 0.80,
	newPair("DOGE", "PEPE"): 0.75,
	newPair("SHIB", "PEPE"): 0.85,
}

var quoteSuffixes = []string{"USDT", "USDC", "BUSD", "USD"}

// BaseAsset extracts the base asset of a symbol: "SOL/USD", "SOL-USDT" and "SOLUSDT" all map to SOL.
func BaseAsset(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))

	if i := strings.IndexAny(s, "/-_:"); i > 0 {
		return s[:i]
	}

	for _, suffix := range quoteSuffixes {
		if len(s) > len(suffix) && strings.HasSuffix(s, suffix) {
			return strings.TrimSuffix(s, suffix)
		}
	}

	return s
}

// Correlation returns the static correlation between two symbols. The same base asset is
// perfectly correlated.
func (m *Manager) Correlation(a, b string) float64 {
	baseA, baseB := BaseAsset(a), BaseAsset(b)
	if baseA == baseB {
		return 1
	}

	if c, ok := correlationTable[newPair(baseA, baseB)]; ok {
		return c
	}

	return m.config.DefaultCorrelation
}

// portfolioCorrelation is the exposure-weighted mean correlation of symbol against the
// positions. Positions without a notional are weighted equally.
func (m *Manager) portfolioCorrelation(symbol string, positions []types.ExistingPosition) float64 {
	if len(positions) == 0 {
		return 0
	}

	weighted := 0.0
	totalWeight := 0.0
	plain := 0.0

	for _, pos := range positions {
		c := m.Correlation(symbol, pos.Symbol)
		plain += c

		weight := pos.Notional()
		weighted += c * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return plain / float64(len(positions))
	}

	return weighted / totalWeight
}

// peakCorrelation is the highest correlation of symbol with any single position.
func (m *Manager) peakCorrelation(symbol string, positions []types.ExistingPosition) float64 {
	peak := 0.0
	for _, pos := range positions {
		peak = max(peak, m.Correlation(symbol, pos.Symbol))
	}

	return peak
}
