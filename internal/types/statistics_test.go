package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type StatisticsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "statistics_test")
	suite.NoError(err)
	suite.tempDir = tempDir
}

func (suite *StatisticsTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *StatisticsTestSuite) TestWriteAndReadExecutorStats() {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	stats := ExecutorStats{
		SessionStart: start,
		LastUpdated:  start.Add(time.Hour),
		Counts: TradeCounts{
			Dispatched: 10,
			Rejected:   3,
			Filled:     6,
			Cancelled:  2,
			Failed:     2,
		},
		Volume: TradeVolume{
			RequestedNotional: 12_500,
			ExecutedNotional:  7_400,
		},
		FillRate:           0.6,
		AIValidationErrors: 1,
	}

	filePath := filepath.Join(suite.tempDir, "stats.yaml")
	suite.Require().NoError(WriteExecutorStats(filePath, stats))

	read, err := ReadExecutorStats(filePath)
	suite.Require().NoError(err)
	suite.Equal(10, read.Counts.Dispatched)
	suite.Equal(3, read.Counts.Rejected)
	suite.Equal(0.6, read.FillRate)
	suite.Equal(7_400.0, read.Volume.ExecutedNotional)
	suite.True(start.Equal(read.SessionStart))
}

func (suite *StatisticsTestSuite) TestReadExecutorStatsMissingFile() {
	_, err := ReadExecutorStats(filepath.Join(suite.tempDir, "missing.yaml"))
	suite.Error(err)
}

func (suite *StatisticsTestSuite) TestWriteExecutorStatsBadPath() {
	err := WriteExecutorStats(filepath.Join(suite.tempDir, "nope", "stats.yaml"), ExecutorStats{})
	suite.Error(err)
}
