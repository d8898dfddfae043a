package backend

import (
	"github.com/rxtech-lab/argo-dispatch/internal/logger"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
)

type ProviderType string

const (
	// ProviderSimulator is the in-process execution backend.
	ProviderSimulator ProviderType = "simulator"
	// ProviderBinancePaper routes orders to the Binance spot testnet.
	ProviderBinancePaper ProviderType = "binance-paper"
	// ProviderBinanceLive routes orders to Binance spot with real funds.
	ProviderBinanceLive ProviderType = "binance-live"
)

type ProviderInfo struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	IsPaperTrading bool   `json:"isPaperTrading"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderSimulator: {
		Name:           string(ProviderSimulator),
		DisplayName:    "Simulator",
		Description:    "In-process execution backend with simulated fills and market data",
		IsPaperTrading: true,
	},
	ProviderBinancePaper: {
		Name:           string(ProviderBinancePaper),
		DisplayName:    "Binance Testnet",
		Description:    "Binance testnet for paper trading cryptocurrency without real funds",
		IsPaperTrading: true,
	},
	ProviderBinanceLive: {
		Name:           string(ProviderBinanceLive),
		DisplayName:    "Binance Live",
		Description:    "Binance live environment for real-funds cryptocurrency trading",
		IsPaperTrading: false,
	},
}

// GetSupportedProviders lists the registered provider names.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	return providers
}

// GetProviderInfo returns metadata for a specific execution provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported execution provider: %s", providerName)
	}

	return info, nil
}

// Factory creates one connection per pool address.
type Factory func(address string) (Connection, error)

// NewConnection creates a connection of the given provider type for one address.
func NewConnection(providerType ProviderType, address string, config Config, log *logger.Logger) (Connection, error) {
	switch providerType {
	case ProviderSimulator:
		return NewSimulatorConnection(address, config.Simulator, log), nil

	case ProviderBinancePaper, ProviderBinanceLive:
		conn, err := NewBinanceConnection(address, config.Binance, providerType == ProviderBinancePaper, log)
		if err != nil {
			return nil, err
		}

		return conn, nil

	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported execution provider: %s", providerType)
	}
}

// NewFactory binds the configured provider type into a Factory.
func NewFactory(config Config, log *logger.Logger) (Factory, error) {
	if _, err := GetProviderInfo(string(config.Provider)); err != nil {
		return nil, err
	}

	return func(address string) (Connection, error) {
		return NewConnection(config.Provider, address, config, log)
	}, nil
}
