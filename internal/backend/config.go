package backend

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
)

type RetryConfig struct {
	MaxRetries      int           `yaml:"max_retries" json:"max_retries" jsonschema:"title=Max Retries,description=Retries after the first attempt,minimum=0" validate:"gte=0"`
	InitialInterval time.Duration `yaml:"initial_interval" json:"initial_interval" jsonschema:"title=Initial Interval,description=Delay before the first retry" validate:"gte=0"`
	MaxInterval     time.Duration `yaml:"max_interval" json:"max_interval" jsonschema:"title=Max Interval,description=Upper bound of the retry delay" validate:"gte=0"`
	Multiplier      float64       `yaml:"multiplier" json:"multiplier" jsonschema:"title=Multiplier,description=Growth factor of the retry delay,minimum=1" validate:"gte=1"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled,description=Skip backends after consecutive failures"`
	FailureThreshold int           `yaml:"failure_threshold" json:"failure_threshold" jsonschema:"title=Failure Threshold,minimum=1" validate:"gte=0"`
	OpenTimeout      time.Duration `yaml:"open_timeout" json:"open_timeout" jsonschema:"title=Open Timeout,description=Time a tripped backend is skipped before a trial call" validate:"gte=0"`
}

// Config configures the backend pool and the connections it creates.
type Config struct {
	Provider       ProviderType         `yaml:"provider" json:"provider" jsonschema:"title=Provider,enum=simulator,enum=binance-paper,enum=binance-live" validate:"required"`
	Addresses      []string             `yaml:"addresses" json:"addresses" jsonschema:"title=Addresses,description=One connection is opened per address" validate:"required,min=1,dive,required"`
	CallTimeout    time.Duration        `yaml:"call_timeout" json:"call_timeout" jsonschema:"title=Call Timeout,description=Deadline of a single backend call" validate:"gt=0"`
	Retry          RetryConfig          `yaml:"retry" json:"retry"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" json:"circuit_breaker"`
	Simulator      SimulatorConfig      `yaml:"simulator" json:"simulator"`
	Binance        BinanceConfig        `yaml:"binance" json:"binance" validate:"-"`
}

func DefaultConfig() Config {
	return Config{
		Provider:    ProviderSimulator,
		Addresses:   []string{"sim-1"},
		CallTimeout: 10 * time.Second,
		Retry: RetryConfig{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2.0,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		},
		Simulator: DefaultSimulatorConfig(),
		Binance: BinanceConfig{
			PollInterval: time.Second,
		},
	}
}

// Validate checks the pool settings. Binance credentials are only checked for Binance providers.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backend configuration", err)
	}

	if _, err := GetProviderInfo(string(c.Provider)); err != nil {
		return err
	}

	if c.CircuitBreaker.Enabled && c.CircuitBreaker.FailureThreshold < 1 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "circuit breaker failure threshold must be at least 1")
	}

	if c.Provider == ProviderBinancePaper || c.Provider == ProviderBinanceLive {
		return c.Binance.Validate()
	}

	return nil
}
