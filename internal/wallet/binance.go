package wallet

import (
	"context"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
)

const binanceTestnetURL = "https://testnet.binance.vision"

// GetAccountService interface for getting account info.
type GetAccountService interface {
	Do(ctx context.Context) (*binance.Account, error)
}

// AccountClient abstracts the Binance account endpoint for testing.
type AccountClient interface {
	NewGetAccountService() GetAccountService
}

type realAccountClient struct {
	client *binance.Client
}

func (r *realAccountClient) NewGetAccountService() GetAccountService {
	return &realGetAccountService{service: r.client.NewGetAccountService()}
}

type realGetAccountService struct {
	service *binance.GetAccountService
}

func (s *realGetAccountService) Do(ctx context.Context) (*binance.Account, error) {
	return s.service.Do(ctx)
}

// BinanceWallet reads the free balance of one asset from a Binance spot account. The API key
// is the wallet's public identity.
type BinanceWallet struct {
	client AccountClient
	apiKey string
	asset  string
}

// NewBinanceWallet creates a wallet on the Binance account of the given keys. baseURL overrides
// the environment endpoint when set.
func NewBinanceWallet(apiKey, secretKey, asset, baseURL string, useTestnet bool) *BinanceWallet {
	client := binance.NewClient(apiKey, secretKey)
	if useTestnet {
		client.BaseURL = binanceTestnetURL
	}

	if baseURL != "" {
		client.BaseURL = baseURL
	}

	return newBinanceWalletWithClient(&realAccountClient{client: client}, apiKey, asset)
}

// newBinanceWalletWithClient is used for testing with mock clients.
func newBinanceWalletWithClient(client AccountClient, apiKey, asset string) *BinanceWallet {
	if asset == "" {
		asset = "USDT"
	}

	return &BinanceWallet{
		client: client,
		apiKey: apiKey,
		asset:  strings.ToUpper(asset),
	}
}

func (w *BinanceWallet) IsInitialized() bool {
	return w.client != nil && w.apiKey != ""
}

func (w *BinanceWallet) GetBalance(ctx context.Context) (float64, error) {
	if !w.IsInitialized() {
		return 0, errors.New(errors.ErrCodeWalletNotInitialized, "binance wallet is not initialized")
	}

	account, err := w.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeWalletUnavailable, "failed to get account info from Binance", err)
	}

	for _, balance := range account.Balances {
		if balance.Asset != w.asset {
			continue
		}

		free, err := strconv.ParseFloat(balance.Free, 64)
		if err != nil {
			return 0, errors.Wrapf(errors.ErrCodeWalletUnavailable, err, "invalid %s balance %q", w.asset, balance.Free)
		}

		return free, nil
	}

	return 0, nil
}

func (w *BinanceWallet) GetPublicKey() string {
	return w.apiKey
}
