package types

import (
	"os"
	"time"

	"github.com/rxtech-lab/argo-dispatch/pkg/errors"
	"gopkg.in/yaml.v3"
)

type TradeCounts struct {
	// Count of trades accepted by the risk gate and dispatched.
	Dispatched int `yaml:"dispatched" json:"dispatched"`
	// Count of trades rejected by the risk gate.
	Rejected  int `yaml:"rejected" json:"rejected"`
	Filled    int `yaml:"filled" json:"filled"`
	Cancelled int `yaml:"cancelled" json:"cancelled"`
	Failed    int `yaml:"failed" json:"failed"`
	// Trades currently held in the active map.
	Active int `yaml:"active" json:"active"`
}

type TradeVolume struct {
	// Requested notional of dispatched trades (risk-sized amount times price).
	RequestedNotional float64 `yaml:"requested_notional" json:"requested_notional"`
	// Executed notional of filled trades.
	ExecutedNotional float64 `yaml:"executed_notional" json:"executed_notional"`
}

// ExecutorStats is a point-in-time summary of the executor's session.
type ExecutorStats struct {
	SessionStart time.Time   `yaml:"session_start" json:"session_start"`
	LastUpdated  time.Time   `yaml:"last_updated" json:"last_updated"`
	Counts       TradeCounts `yaml:"counts" json:"counts"`
	Volume       TradeVolume `yaml:"volume" json:"volume"`
	// FillRate is filled over dispatched, zero before any dispatch.
	FillRate float64 `yaml:"fill_rate" json:"fill_rate"`
	// AIValidationErrors counts soft validator failures that did not block execution.
	AIValidationErrors int `yaml:"ai_validation_errors" json:"ai_validation_errors"`
}

// WriteExecutorStats writes executor statistics to a YAML file.
func WriteExecutorStats(path string, stats ExecutorStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return errors.Wrap(errors.ErrCodeHistoryWriteFailed, "failed to marshal executor stats to YAML", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeHistoryWriteFailed, "failed to write executor stats to file", err)
	}

	return nil
}

// ReadExecutorStats reads executor statistics from a YAML file.
func ReadExecutorStats(path string) (ExecutorStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ExecutorStats{}, errors.Wrap(errors.ErrCodeHistoryQueryFailed, "failed to read executor stats file", err)
	}

	var stats ExecutorStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return ExecutorStats{}, errors.Wrap(errors.ErrCodeHistoryQueryFailed, "failed to unmarshal executor stats", err)
	}

	return stats, nil
}
