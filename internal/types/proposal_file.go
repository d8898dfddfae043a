package types

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ProposalFile is the YAML document form of a proposal together with the market snapshot it was
// priced against.
type ProposalFile struct {
	Proposal        TradeProposal   `yaml:"proposal"`
	MarketAlignment *float64        `yaml:"market_alignment"`
	Snapshot        *MarketSnapshot `yaml:"snapshot"`
}

// ParseProposalFile decodes a YAML proposal document.
func ParseProposalFile(data []byte) (TradeProposal, optional.Option[MarketSnapshot], error) {
	var file ProposalFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return TradeProposal{}, optional.None[MarketSnapshot](), errors.Wrap(errors.ErrCodeInvalidProposal, "failed to parse proposal file", err)
	}

	proposal := file.Proposal
	if file.MarketAlignment != nil {
		proposal.MarketAlignment = optional.Some(*file.MarketAlignment)
	}

	if proposal.Symbol == "" {
		return TradeProposal{}, optional.None[MarketSnapshot](), errors.New(errors.ErrCodeMissingParameter, "proposal.symbol is required")
	}

	snapshot := optional.None[MarketSnapshot]()
	if file.Snapshot != nil {
		s := *file.Snapshot
		if s.Symbol == "" {
			s.Symbol = proposal.Symbol
		}

		snapshot = optional.Some(s)
	}

	return proposal, snapshot, nil
}
