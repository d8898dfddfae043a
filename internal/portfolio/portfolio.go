// Package portfolio supplies the account context the risk manager checks a proposal against.
package portfolio

import (
	"context"
	"sync"

	"github.com/rxtech-lab/argo-dispatch/internal/types"
)

// Provider returns the portfolio a proposal should be assessed against.
type Provider interface {
	Portfolio(ctx context.Context, proposal types.TradeProposal) (types.Portfolio, error)
}

// ProposalProvider uses the account size and positions carried inside the proposal.
type ProposalProvider struct{}

func (ProposalProvider) Portfolio(_ context.Context, proposal types.TradeProposal) (types.Portfolio, error) {
	return types.PortfolioFromProposal(proposal), nil
}

// StaticProvider holds a portfolio set by the caller. Positions in the proposal are appended
// after the held ones, and the proposal's account size wins when it is set.
type StaticProvider struct {
	mu        sync.RWMutex
	portfolio types.Portfolio
}

func NewStaticProvider(portfolio types.Portfolio) *StaticProvider {
	return &StaticProvider{portfolio: portfolio}
}

func (p *StaticProvider) Portfolio(_ context.Context, proposal types.TradeProposal) (types.Portfolio, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := types.Portfolio{
		AccountSize: p.portfolio.AccountSize,
		Positions:   make([]types.ExistingPosition, 0, len(p.portfolio.Positions)+len(proposal.ExistingPositions)),
	}

	if proposal.AccountSize > 0 {
		result.AccountSize = proposal.AccountSize
	}

	result.Positions = append(result.Positions, p.portfolio.Positions...)
	result.Positions = append(result.Positions, proposal.ExistingPositions...)

	return result, nil
}

// Set replaces the held portfolio.
func (p *StaticProvider) Set(portfolio types.Portfolio) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.portfolio = portfolio
}
