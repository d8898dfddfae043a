// Package wallet provides the identity and balance source consulted before a trade is dispatched.
package wallet

import (
	"context"
	"sync"

	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
)

// Wallet is the identity and balance source of the executor.
type Wallet interface {
	IsInitialized() bool
	// GetBalance returns the available balance in the quote currency.
	GetBalance(ctx context.Context) (float64, error)
	GetPublicKey() string
}

// StaticWallet is an in-memory wallet with a fixed identity and an adjustable balance.
type StaticWallet struct {
	mu        sync.RWMutex
	publicKey string
	balance   float64
}

func NewStaticWallet(publicKey string, balance float64) *StaticWallet {
	return &StaticWallet{
		publicKey: publicKey,
		balance:   balance,
	}
}

// IsInitialized reports whether the wallet has an identity.
func (w *StaticWallet) IsInitialized() bool {
	return w.publicKey != ""
}

func (w *StaticWallet) GetBalance(_ context.Context) (float64, error) {
	if !w.IsInitialized() {
		return 0, errors.New(errors.ErrCodeWalletNotInitialized, "wallet is not initialized")
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.balance, nil
}

func (w *StaticWallet) GetPublicKey() string {
	return w.publicKey
}

func (w *StaticWallet) SetBalance(balance float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.balance = balance
}
