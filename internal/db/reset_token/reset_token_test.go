package resettoken

import (
	"context"
	c "recoverme/internal/core/domain/common"
	resettoken "recoverme/internal/core/domain/reset_token"
	"recoverme/internal/core/domain/user"
	"recoverme/internal/db"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/suite"
)

const EMAIL = "test@test.test"

var NOW time.Time = time.Date(2020, 6, 6, 15, 30, 30, 0, time.UTC)

type testSuite struct {
	suite.Suite
	pool   *pgxpool.Pool
	repo   *PgxResetTokenRepository
	userID user.ID
}

func (suite *testSuite) SetupSuite() {
	suite.pool = db.CreateTestPool()
	suite.repo = NewPgxRepository(suite.pool)
}

func (suite *testSuite) TearDownSuite() {
	suite.pool.Close()
}

func (suite *testSuite) SetupTest() {
	suite.userID = user.ID(db.CreateTestUser(suite.pool, EMAIL, "test-password-hash"))
}

func (suite *testSuite) TearDownTest() {
	db.TruncateTables(suite.pool)
}

func TestPgxResetTokenRepository(t *testing.T) {
	db.SkipWithoutTestDB(t)
	suite.Run(t, new(testSuite))
}

func (suite *testSuite) create(hash string, expiresAt time.Time) resettoken.Token {
	token, err := suite.repo.Create(context.Background(), resettoken.CreateInput{
		ID:         uuid.New(),
		OwnerID:    suite.userID,
		OwnerEmail: c.Email(EMAIL),
		Hash:       resettoken.Hash(hash),
		CreatedAt:  NOW,
		ExpiresAt:  expiresAt,
	})
	suite.Require().Nil(err)
	return token
}

func (suite *testSuite) TestCreateAndGet() {
	created := suite.create("hash-1", NOW.Add(30*time.Minute))

	token, err := suite.repo.GetByHashForUpdate(context.Background(), resettoken.Hash("hash-1"))

	assert := suite.Require()
	assert.Nil(err)
	assert.Equal(created, token)
	assert.Equal(resettoken.Issued, token.State)
	assert.Equal(suite.userID, token.OwnerID)
	assert.Equal(NOW.Add(30*time.Minute), token.ExpiresAt)
	assert.False(token.ConsumedAt.IsPresent)
	assert.False(token.SupersededAt.IsPresent)
}

func (suite *testSuite) TestGetUnknownHash() {
	_, err := suite.repo.GetByHashForUpdate(context.Background(), resettoken.Hash("unknown"))

	suite.Require().ErrorIs(err, resettoken.ErrTokenDoesNotExist)
}

func (suite *testSuite) TestOnlyOneIssuedTokenPerOwner() {
	suite.create("hash-1", NOW.Add(30*time.Minute))

	_, err := suite.repo.Create(context.Background(), resettoken.CreateInput{
		ID:         uuid.New(),
		OwnerID:    suite.userID,
		OwnerEmail: c.Email(EMAIL),
		Hash:       resettoken.Hash("hash-2"),
		CreatedAt:  NOW,
		ExpiresAt:  NOW.Add(30 * time.Minute),
	})

	suite.Require().NotNil(err)
}

func (suite *testSuite) TestSupersedeIssued() {
	ctx := context.Background()
	suite.create("hash-1", NOW.Add(30*time.Minute))

	count, err := suite.repo.SupersedeIssued(ctx, suite.userID, NOW.Add(time.Minute))
	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), count)

	suite.create("hash-2", NOW.Add(31*time.Minute))

	old, err := suite.repo.GetByHashForUpdate(ctx, resettoken.Hash("hash-1"))
	assert := suite.Require()
	assert.Nil(err)
	assert.Equal(resettoken.Superseded, old.State)
	assert.Equal(c.NewOptional(NOW.Add(time.Minute), true), old.SupersededAt)
}

func (suite *testSuite) TestConsume() {
	ctx := context.Background()
	token := suite.create("hash-1", NOW.Add(30*time.Minute))

	err := suite.repo.Consume(ctx, token.ID, NOW.Add(time.Minute))
	suite.Require().Nil(err)

	consumed, err := suite.repo.GetByHashForUpdate(ctx, token.Hash)
	suite.Require().Nil(err)
	suite.Require().Equal(resettoken.Consumed, consumed.State)
	suite.Require().Equal(c.NewOptional(NOW.Add(time.Minute), true), consumed.ConsumedAt)

	err = suite.repo.Consume(ctx, token.ID, NOW.Add(2*time.Minute))
	suite.Require().ErrorIs(err, resettoken.ErrTokenDoesNotExist)
}

func (suite *testSuite) TestDeleteExpiredBefore() {
	ctx := context.Background()
	suite.create("hash-1", NOW.Add(-8*24*time.Hour))
	_, err := suite.repo.SupersedeIssued(ctx, suite.userID, NOW)
	suite.Require().Nil(err)
	suite.create("hash-2", NOW.Add(30*time.Minute))

	deleted, err := suite.repo.DeleteExpiredBefore(ctx, NOW.Add(-7*24*time.Hour))

	assert := suite.Require()
	assert.Nil(err)
	assert.Equal(int64(1), deleted)
	_, err = suite.repo.GetByHashForUpdate(ctx, resettoken.Hash("hash-2"))
	assert.Nil(err)
}
