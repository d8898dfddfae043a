// Package config loads the dispatch configuration from YAML.
package config

import (
	"encoding/json"
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-dispatch/internal/advisory"
	"github.com/rxtech-lab/argo-dispatch/internal/backend"
	"github.com/rxtech-lab/argo-dispatch/internal/executor"
	"github.com/rxtech-lab/argo-dispatch/internal/marketcache"
	"github.com/rxtech-lab/argo-dispatch/internal/risk"
	"github.com/rxtech-lab/argo-dispatch/internal/version"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	EnvBinanceAPIKey    = "BINANCE_API_KEY"
	EnvBinanceSecretKey = "BINANCE_SECRET_KEY"
)

type WalletProvider string

const (
	WalletStatic  WalletProvider = "static"
	WalletBinance WalletProvider = "binance"
)

// CacheConfig configures the market snapshot cache.
type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl" jsonschema:"title=Default TTL,description=Freshness of snapshots stored without an explicit ttl" validate:"gt=0"`
}

// HistoryConfig configures the DuckDB trade history sink.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled"`
	// OutputPath is the parquet file the history is loaded from and flushed to. Empty keeps the
	// history in memory.
	OutputPath string `yaml:"output_path" json:"output_path" jsonschema:"title=Output Path"`
}

// AdvisoryConfig enables the remote AI validator. The gate thresholds live in the executor section.
type AdvisoryConfig struct {
	Enabled bool                `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled"`
	HTTP    advisory.HTTPConfig `yaml:"http" json:"http" jsonschema:"title=HTTP Validator"`
}

// WalletConfig selects the identity and balance source. The binance wallet reuses the keys of
// the backend.binance section.
type WalletConfig struct {
	Provider  WalletProvider `yaml:"provider" json:"provider" jsonschema:"title=Provider,enum=static,enum=binance" validate:"required,oneof=static binance"`
	PublicKey string         `yaml:"public_key" json:"public_key" jsonschema:"title=Public Key"`
	Balance   float64        `yaml:"balance" json:"balance" jsonschema:"title=Balance,description=Balance of the static wallet,minimum=0" validate:"gte=0"`
	Asset     string         `yaml:"asset" json:"asset" jsonschema:"title=Asset,description=Quote asset read from the Binance account,default=USDT"`
	BaseURL   string         `yaml:"base_url" json:"base_url" jsonschema:"title=Base URL" validate:"omitempty,url"`
	Testnet   bool           `yaml:"testnet" json:"testnet" jsonschema:"title=Testnet"`
}

// Config is the root configuration document.
type Config struct {
	// Version is the argo-dispatch release the file was written for. Empty skips the check.
	Version  string          `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version"`
	LogLevel string          `yaml:"log_level" json:"log_level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error" validate:"omitempty,oneof=debug info warn error"`
	Risk     risk.Config     `yaml:"risk" json:"risk" jsonschema:"title=Risk"`
	Executor executor.Config `yaml:"executor" json:"executor" jsonschema:"title=Executor"`
	Backend  backend.Config  `yaml:"backend" json:"backend" jsonschema:"title=Backend"`
	Cache    CacheConfig     `yaml:"cache" json:"cache" jsonschema:"title=Cache"`
	History  HistoryConfig   `yaml:"history" json:"history" jsonschema:"title=History"`
	Advisory AdvisoryConfig  `yaml:"advisory" json:"advisory" jsonschema:"title=Advisory"`
	Wallet   WalletConfig    `yaml:"wallet" json:"wallet" jsonschema:"title=Wallet"`
}

// Default returns a configuration that runs against the in-process simulator.
func Default() Config {
	return Config{
		LogLevel: "info",
		Risk:     risk.DefaultConfig(),
		Executor: executor.DefaultConfig(),
		Backend:  backend.DefaultConfig(),
		Cache:    CacheConfig{DefaultTTL: marketcache.DefaultTTL},
		History:  HistoryConfig{Enabled: false},
		Advisory: AdvisoryConfig{Enabled: false},
		Wallet: WalletConfig{
			Provider:  WalletStatic,
			PublicKey: "simulator",
			Balance:   100_000,
			Asset:     "USDT",
		},
	}
}

// Parse decodes a YAML document over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads and parses the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return Parse(data)
}

// ApplyEnv fills Binance credentials missing from the file from BINANCE_API_KEY and
// BINANCE_SECRET_KEY.
func (c *Config) ApplyEnv() {
	if c.Backend.Binance.ApiKey == "" {
		c.Backend.Binance.ApiKey = os.Getenv(EnvBinanceAPIKey)
	}

	if c.Backend.Binance.SecretKey == "" {
		c.Backend.Binance.SecretKey = os.Getenv(EnvBinanceSecretKey)
	}
}

// Validate validates the Config struct and every section.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := version.CheckConfigCompatibility(version.GetVersion(), c.Version); err != nil {
		return err
	}

	if err := c.Risk.Validate(); err != nil {
		return err
	}

	if err := c.Executor.Validate(); err != nil {
		return err
	}

	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if c.Advisory.Enabled && c.Advisory.HTTP.Endpoint == "" {
		return errors.New(errors.ErrCodeInvalidConfiguration, "advisory.http.endpoint is required when the validator is enabled")
	}

	if c.Wallet.Provider == WalletBinance && c.Backend.Binance.ApiKey == "" {
		return errors.New(errors.ErrCodeInvalidConfiguration, "the binance wallet requires backend.binance.api_key")
	}

	return nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to encode config", err)
	}

	return data, nil
}

// GenerateSchema builds the JSON schema of the config document.
func GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{
					Type:        "string",
					Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
					Description: "Go duration such as 500ms or 1m30s",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "argo-dispatch-config"
	schema.Description = "Configuration schema for the trade dispatch core"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON returns the indented JSON schema.
func GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to encode config schema", err)
	}

	return string(schemaBytes), nil
}
