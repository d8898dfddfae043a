package marketcache

import (
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-dispatch/internal/types"
	"github.com/stretchr/testify/suite"
)

// CacheTestSuite is a test suite for the market snapshot cache
type CacheTestSuite struct {
	suite.Suite
	now   time.Time
	cache *Cache
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func (suite *CacheTestSuite) SetupTest() {
	suite.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.cache = NewCacheWithClock(10*time.Second, func() time.Time { return suite.now })
}

func (suite *CacheTestSuite) snapshot(price float64) types.MarketSnapshot {
	return types.MarketSnapshot{
		Price:     price,
		Volume:    10_000,
		Liquidity: 1_000_000,
		Timestamp: suite.now,
		Source:    types.SnapshotSourceLive,
	}
}

func (suite *CacheTestSuite) TestPutAndGet() {
	suite.cache.Put("SOL/USD", suite.snapshot(100), time.Minute)

	entry, ok := suite.cache.Get("SOL/USD")
	suite.Require().True(ok)
	suite.Equal("SOL/USD", entry.Snapshot.Symbol)
	suite.Equal(100.0, entry.Snapshot.Price)
	suite.Equal(time.Minute, entry.TTL)
	suite.Equal(suite.now, entry.StoredAt)

	_, ok = suite.cache.Get("BTC/USD")
	suite.False(ok)
}

func (suite *CacheTestSuite) TestDefaultTTL() {
	suite.cache.Put("SOL/USD", suite.snapshot(100), 0)

	entry, ok := suite.cache.Get("SOL/USD")
	suite.Require().True(ok)
	suite.Equal(10*time.Second, entry.TTL)
}

func (suite *CacheTestSuite) TestSnapshotTreatsExpiredAsAbsent() {
	suite.cache.Put("SOL/USD", suite.snapshot(100), 5*time.Second)

	fresh := suite.cache.Snapshot("SOL/USD", suite.now.Add(5*time.Second))
	suite.Require().True(fresh.IsSome())
	suite.Equal(types.SnapshotSourceCache, fresh.Unwrap().Source)

	stale := suite.cache.Snapshot("SOL/USD", suite.now.Add(6*time.Second))
	suite.True(stale.IsNone())

	// the cache never evicts on read
	suite.Equal(1, suite.cache.Len())
}

func (suite *CacheTestSuite) TestLastWriterWins() {
	suite.cache.Put("SOL/USD", suite.snapshot(100), time.Minute)
	suite.cache.Put("SOL/USD", suite.snapshot(105), time.Minute)

	entry, _ := suite.cache.Get("SOL/USD")
	suite.Equal(105.0, entry.Snapshot.Price)
	suite.Equal(1, suite.cache.Len())
}

func (suite *CacheTestSuite) TestPrune() {
	suite.cache.Put("SOL/USD", suite.snapshot(100), 5*time.Second)
	suite.cache.Put("BTC/USD", suite.snapshot(50_000), time.Minute)

	removed := suite.cache.Prune(suite.now.Add(30 * time.Second))
	suite.Equal(1, removed)
	suite.Equal(1, suite.cache.Len())

	_, ok := suite.cache.Get("BTC/USD")
	suite.True(ok)

	suite.cache.Reset()
	suite.Equal(0, suite.cache.Len())
}

func (suite *CacheTestSuite) TestConcurrentAccess() {
	cache := NewCache(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func(i int) {
			defer wg.Done()
			cache.Put("SOL/USD", types.MarketSnapshot{Price: float64(i)}, 0)
		}(i)

		go func() {
			defer wg.Done()
			cache.Snapshot("SOL/USD", time.Now())
		}()
	}

	wg.Wait()
	suite.Equal(1, cache.Len())
}
