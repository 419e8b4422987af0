package constantlatency

import (
	"context"
	"fmt"
	"recoverme/internal/core/domain/logging"
	"recoverme/internal/core/services"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type fakeClock struct {
	now    time.Time
	waited []time.Duration
	lock   sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *fakeClock) Since(start time.Time) time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now.Sub(start)
}

func (c *fakeClock) Wait(ctx context.Context, d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.waited = append(c.waited, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

type stubService struct {
	clock    *fakeClock
	duration time.Duration
	err      error
}

func (s *stubService) Run(ctx context.Context, input string) (string, error) {
	s.clock.advance(s.duration)
	return "result:" + input, s.err
}

type sleepingService struct {
	duration time.Duration
}

func (s *sleepingService) Run(ctx context.Context, input string) (string, error) {
	time.Sleep(s.duration)
	return input, nil
}

const TARGET = 500 * time.Millisecond

type testSuite struct {
	suite.Suite
	Logger *logging.FakeLogger
	Clock  *fakeClock
	Inner  *stubService
	Svc    services.Service[string, string]
}

func (s *testSuite) SetupTest() {
	s.Logger = logging.NewFakeLogger()
	s.Clock = &fakeClock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.Inner = &stubService{clock: s.Clock}
	s.Svc = NewWithClock[string, string](s.Logger, s.Clock, TARGET, s.Inner)
}

func TestConstantLatency(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (s *testSuite) TestFastRunIsPadded() {
	s.Inner.duration = 120 * time.Millisecond
	start := s.Clock.Now()

	result, err := s.Svc.Run(context.Background(), "a")

	assert := s.Require()
	assert.Nil(err)
	assert.Equal("result:a", result)
	assert.Equal([]time.Duration{380 * time.Millisecond}, s.Clock.waited)
	assert.Equal(TARGET, s.Clock.Since(start))
}

func (s *testSuite) TestErrorsArePaddedToo() {
	s.Inner.duration = 10 * time.Millisecond
	s.Inner.err = fmt.Errorf("boom")
	start := s.Clock.Now()

	_, err := s.Svc.Run(context.Background(), "a")

	assert := s.Require()
	assert.EqualError(err, "boom")
	assert.Equal(TARGET, s.Clock.Since(start))
}

func (s *testSuite) TestOverrunIsLoggedAndNotPadded() {
	s.Inner.duration = 700 * time.Millisecond

	_, err := s.Svc.Run(context.Background(), "a")

	assert := s.Require()
	assert.Nil(err)
	assert.Empty(s.Clock.waited)
	assert.Equal(1, s.Logger.CountLevel(logging.WARNING))
}

func (s *testSuite) TestExactTargetWaitsZero() {
	s.Inner.duration = TARGET

	s.Svc.Run(context.Background(), "a")

	s.Require().Equal([]time.Duration{0}, s.Clock.waited)
	s.Require().Equal(0, s.Logger.CountLevel(logging.WARNING))
}

func (s *testSuite) TestNegativeTargetPanics() {
	s.Require().Panics(func() {
		NewWithClock[string, string](s.Logger, s.Clock, -time.Second, s.Inner)
	})
}

func (s *testSuite) TestRealClockPadsConcurrentRequests() {
	target := 100 * time.Millisecond
	svc := New[string, string](s.Logger, target, &sleepingService{duration: 5 * time.Millisecond})

	var wg sync.WaitGroup
	start := time.Now()
	for ix := 0; ix < 5; ix++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			begin := time.Now()
			svc.Run(context.Background(), "a")
			s.GreaterOrEqual(time.Since(begin), target)
		}()
	}
	wg.Wait()

	// Requests wait on their own timers, not one after another.
	s.Require().Less(time.Since(start), 5*target)
}

func (s *testSuite) TestRealClockStopsWaitingOnCancel() {
	svc := New[string, string](s.Logger, 10*time.Second, &sleepingService{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	svc.Run(ctx, "a")

	s.Require().Less(time.Since(start), 5*time.Second)
}
