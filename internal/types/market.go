package types

import "time"

type SnapshotSource string

const (
	SnapshotSourceLive  SnapshotSource = "live"
	SnapshotSourceCache SnapshotSource = "cache"
)

// MarketSnapshot is the point-in-time market state of one symbol.
type MarketSnapshot struct {
	Symbol    string  `yaml:"symbol" json:"symbol"`
	Price     float64 `yaml:"price" json:"price"`
	Volume    float64 `yaml:"volume" json:"volume"`
	Liquidity float64 `yaml:"liquidity" json:"liquidity"`
	// Spread is a fraction of price, e.g. 0.001 for 10 bps.
	Spread     float64        `yaml:"spread" json:"spread"`
	Volatility float64        `yaml:"volatility" json:"volatility"`
	Timestamp  time.Time      `yaml:"timestamp" json:"timestamp"`
	Source     SnapshotSource `yaml:"source" json:"source"`
}

// Age returns how old the snapshot is relative to now. A zero timestamp is infinitely old.
func (m MarketSnapshot) Age(now time.Time) time.Duration {
	if m.Timestamp.IsZero() {
		return time.Duration(1<<63 - 1)
	}

	age := now.Sub(m.Timestamp)
	if age < 0 {
		return 0
	}

	return age
}

// IsStale reports whether the snapshot is older than ttl.
func (m MarketSnapshot) IsStale(now time.Time, ttl time.Duration) bool {
	return m.Age(now) > ttl
}

type MarketDataType string

const (
	MarketDataTicker    MarketDataType = "ticker"
	MarketDataOrderBook MarketDataType = "orderbook"
)

// MarketDataRequest selects a market data subscription.
type MarketDataRequest struct {
	Symbol string         `yaml:"symbol" json:"symbol"`
	Type   MarketDataType `yaml:"type" json:"type"`
	// Depth is the number of order book levels used to estimate liquidity.
	Depth int `yaml:"depth" json:"depth"`
}
