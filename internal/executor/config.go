package executor

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-dispatch/internal/advisory"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
)

// Config controls admission prechecks and trade tracking.
type Config struct {
	// MinBalance is the wallet balance below which Execute refuses to run.
	MinBalance float64 `yaml:"min_balance" json:"min_balance" jsonschema:"title=Minimum Balance,description=Wallet balance required before any trade is dispatched,minimum=0" validate:"gte=0"`
	// CallTimeout bounds wallet, validator, and status calls made by the executor. Backend
	// dispatch carries the pool's own deadline.
	CallTimeout time.Duration `yaml:"call_timeout" json:"call_timeout" jsonschema:"title=Call Timeout" validate:"gt=0"`
	// PollInterval is how often the background poller refreshes active trades. Zero disables it.
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval" jsonschema:"title=Poll Interval" validate:"gte=0"`
	// MarketDataDepth is the order book depth requested by RefreshMarketData.
	MarketDataDepth int `yaml:"market_data_depth" json:"market_data_depth" jsonschema:"title=Market Data Depth,minimum=1" validate:"gte=1"`
	// SnapshotTTL is how long refreshed snapshots stay fresh in the cache.
	SnapshotTTL time.Duration       `yaml:"snapshot_ttl" json:"snapshot_ttl" jsonschema:"title=Snapshot TTL" validate:"gt=0"`
	Gate        advisory.GateConfig `yaml:"gate" json:"gate" jsonschema:"title=AI Gate"`
}

func DefaultConfig() Config {
	return Config{
		MinBalance:      10,
		CallTimeout:     10 * time.Second,
		PollInterval:    0,
		MarketDataDepth: 20,
		SnapshotTTL:     30 * time.Second,
		Gate:            advisory.DefaultGateConfig(),
	}
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid executor config", err)
	}

	return nil
}
