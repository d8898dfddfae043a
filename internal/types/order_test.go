package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTradeStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   TradeStatus
		terminal bool
	}{
		{TradeStatusPending, false},
		{TradeStatusExecuting, false},
		{TradeStatusFilled, true},
		{TradeStatusCancelled, true},
		{TradeStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestTradeStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    TradeStatus
		to      TradeStatus
		allowed bool
	}{
		{"pending to executing", TradeStatusPending, TradeStatusExecuting, true},
		{"pending to cancelled", TradeStatusPending, TradeStatusCancelled, true},
		{"pending to failed", TradeStatusPending, TradeStatusFailed, true},
		{"pending to filled", TradeStatusPending, TradeStatusFilled, false},
		{"executing to filled", TradeStatusExecuting, TradeStatusFilled, true},
		{"executing to cancelled", TradeStatusExecuting, TradeStatusCancelled, true},
		{"executing to executing", TradeStatusExecuting, TradeStatusExecuting, true},
		{"executing to pending", TradeStatusExecuting, TradeStatusPending, false},
		{"filled to cancelled", TradeStatusFilled, TradeStatusCancelled, false},
		{"cancelled to executing", TradeStatusCancelled, TradeStatusExecuting, false},
		{"failed to failed", TradeStatusFailed, TradeStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSideIsLong(t *testing.T) {
	assert.True(t, SideBuy.IsLong())
	assert.False(t, SideSell.IsLong())
}
