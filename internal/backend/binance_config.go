package backend

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
)

// BinanceConfig contains the credentials shared by every Binance connection of a pool.
type BinanceConfig struct {
	ApiKey    string `yaml:"api_key" json:"apiKey" jsonschema:"title=API Key,description=Binance API key" validate:"required"`
	SecretKey string `yaml:"secret_key" json:"secretKey" jsonschema:"title=Secret Key,description=Binance API secret key" validate:"required"`
	// PollInterval is the delay between two order status polls.
	PollInterval time.Duration `yaml:"poll_interval" json:"pollInterval" jsonschema:"title=Poll Interval,description=Delay between order status polls" validate:"gte=0"`
}

// Validate validates the BinanceConfig struct.
func (c *BinanceConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance backend config", err)
	}

	return nil
}
