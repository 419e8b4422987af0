package ratelimitcounter

import (
	"context"
	"recoverme/internal/core/domain/logging"
	ratelimiter "recoverme/internal/core/domain/rate_limiter"
	"recoverme/internal/db"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/suite"
)

var NOW time.Time = time.Date(2020, 6, 6, 15, 30, 30, 0, time.UTC)

type testSuite struct {
	suite.Suite
	pool    *pgxpool.Pool
	now     time.Time
	limiter *PgxRateLimiter
}

func (suite *testSuite) SetupSuite() {
	suite.pool = db.CreateTestPool()
	suite.limiter = NewPgxRateLimiter(suite.pool, logging.NewFakeLogger(), func() time.Time { return suite.now })
}

func (suite *testSuite) TearDownSuite() {
	suite.pool.Close()
}

func (suite *testSuite) SetupTest() {
	suite.now = NOW
}

func (suite *testSuite) TearDownTest() {
	db.TruncateTables(suite.pool)
}

func TestPgxRateLimiter(t *testing.T) {
	db.SkipWithoutTestDB(t)
	suite.Run(t, new(testSuite))
}

func (suite *testSuite) TestFixedWindow() {
	ctx := context.Background()
	key := ratelimiter.NewKey(ratelimiter.ScopeEmail, "alice@example.com")
	limit := ratelimiter.Limit{Value: 2, Window: 5 * time.Minute}

	assert := suite.Require()
	assert.True(suite.limiter.CheckLimit(ctx, key, limit).IsAllowed)
	assert.True(suite.limiter.CheckLimit(ctx, key, limit).IsAllowed)
	assert.False(suite.limiter.CheckLimit(ctx, key, limit).IsAllowed)

	suite.now = NOW.Add(5 * time.Minute)
	assert.True(suite.limiter.CheckLimit(ctx, key, limit).IsAllowed)
}

func (suite *testSuite) TestConcurrentIncrements() {
	key := ratelimiter.NewKey(ratelimiter.ScopeIP, "203.0.113.7")
	limit := ratelimiter.Limit{Value: 5, Window: time.Minute}

	var (
		wg      sync.WaitGroup
		lock    sync.Mutex
		allowed int
	)
	wg.Add(20)
	for i := 0; i < 20; i++ {
		go func() {
			defer wg.Done()
			if suite.limiter.CheckLimit(context.Background(), key, limit).IsAllowed {
				lock.Lock()
				allowed++
				lock.Unlock()
			}
		}()
	}
	wg.Wait()

	suite.Require().Equal(5, allowed)
}

func (suite *testSuite) TestDeleteStaleBefore() {
	ctx := context.Background()
	limit := ratelimiter.Limit{Value: 5, Window: time.Minute}
	suite.limiter.CheckLimit(ctx, ratelimiter.NewKey(ratelimiter.ScopeIP, "a"), limit)
	suite.now = NOW.Add(time.Hour)
	suite.limiter.CheckLimit(ctx, ratelimiter.NewKey(ratelimiter.ScopeIP, "b"), limit)

	deleted, err := suite.limiter.DeleteStaleBefore(ctx, suite.now.Add(-time.Minute))

	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), deleted)
}
