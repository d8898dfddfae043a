package wallet

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type mockAccountClient struct {
	service *mockGetAccountService
}

func (m *mockAccountClient) NewGetAccountService() GetAccountService {
	return m.service
}

type mockGetAccountService struct {
	account *binance.Account
	err     error
}

func (m *mockGetAccountService) Do(_ context.Context) (*binance.Account, error) {
	return m.account, m.err
}

type WalletTestSuite struct {
	suite.Suite
}

func TestWalletSuite(t *testing.T) {
	suite.Run(t, new(WalletTestSuite))
}

func (suite *WalletTestSuite) TestStaticWallet() {
	w := NewStaticWallet("pk-1", 500)
	suite.True(w.IsInitialized())
	suite.Equal("pk-1", w.GetPublicKey())

	balance, err := w.GetBalance(context.Background())
	suite.NoError(err)
	suite.Equal(500.0, balance)

	w.SetBalance(20)
	balance, _ = w.GetBalance(context.Background())
	suite.Equal(20.0, balance)
}

func (suite *WalletTestSuite) TestStaticWalletWithoutIdentity() {
	w := NewStaticWallet("", 500)
	suite.False(w.IsInitialized())

	_, err := w.GetBalance(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeWalletNotInitialized))
}

func (suite *WalletTestSuite) TestStaticWalletConcurrentAccess() {
	w := NewStaticWallet("pk-1", 0)

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(2)

		go func() {
			defer wg.Done()
			w.SetBalance(float64(i))
		}()

		go func() {
			defer wg.Done()
			_, _ = w.GetBalance(context.Background())
		}()
	}

	wg.Wait()
}

func (suite *WalletTestSuite) TestBinanceWalletBalance() {
	client := &mockAccountClient{service: &mockGetAccountService{
		account: &binance.Account{Balances: []binance.Balance{
			{Asset: "BTC", Free: "0.5", Locked: "0"},
			{Asset: "USDT", Free: "1234.56", Locked: "10"},
		}},
	}}

	w := newBinanceWalletWithClient(client, "api-key", "usdt")
	suite.True(w.IsInitialized())
	suite.Equal("api-key", w.GetPublicKey())

	balance, err := w.GetBalance(context.Background())
	suite.NoError(err)
	suite.Equal(1234.56, balance)
}

func (suite *WalletTestSuite) TestBinanceWalletMissingAssetIsZero() {
	client := &mockAccountClient{service: &mockGetAccountService{account: &binance.Account{}}}

	balance, err := newBinanceWalletWithClient(client, "api-key", "").GetBalance(context.Background())
	suite.NoError(err)
	suite.Zero(balance)
}

func (suite *WalletTestSuite) TestBinanceWalletErrors() {
	client := &mockAccountClient{service: &mockGetAccountService{err: stderrors.New("timeout")}}

	_, err := newBinanceWalletWithClient(client, "api-key", "USDT").GetBalance(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeWalletUnavailable))

	client.service = &mockGetAccountService{account: &binance.Account{Balances: []binance.Balance{{Asset: "USDT", Free: "abc"}}}}
	_, err = newBinanceWalletWithClient(client, "api-key", "USDT").GetBalance(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeWalletUnavailable))

	uninitialized := newBinanceWalletWithClient(client, "", "USDT")
	suite.False(uninitialized.IsInitialized())

	_, err = uninitialized.GetBalance(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeWalletNotInitialized))
}

func (suite *WalletTestSuite) TestNewBinanceWallet() {
	w := NewBinanceWallet("api-key", "secret", "USDT", "", true)
	suite.True(w.IsInitialized())

	real, ok := w.client.(*realAccountClient)
	suite.Require().True(ok)
	suite.Equal(binanceTestnetURL, real.client.BaseURL)

	w = NewBinanceWallet("api-key", "secret", "USDT", "http://localhost:9000", false)
	suite.Equal("http://localhost:9000", w.client.(*realAccountClient).client.BaseURL)
}
