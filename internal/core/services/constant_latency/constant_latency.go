package constantlatency

import (
	"context"
	e "recoverme/internal/core/domain/errors"
	"recoverme/internal/core/domain/logging"
	"recoverme/internal/core/services"
	"time"
)

// Clock measures elapsed time and waits. Implementations must use a
// monotonic source, wall clock adjustments would leak through the padding.
type Clock interface {
	Now() time.Time
	Since(start time.Time) time.Duration
	Wait(ctx context.Context, d time.Duration)
}

type monotonicClock struct{}

func (monotonicClock) Now() time.Time {
	return time.Now()
}

func (monotonicClock) Since(start time.Time) time.Duration {
	return time.Since(start)
}

func (monotonicClock) Wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

type serviceWithConstantLatency[T any, S any] struct {
	log    logging.Logger
	clock  Clock
	target time.Duration
	inner  services.Service[T, S]
}

// New pads every run of inner, successful or not, up to target.
func New[T any, S any](
	log logging.Logger,
	target time.Duration,
	inner services.Service[T, S],
) services.Service[T, S] {
	return NewWithClock(log, monotonicClock{}, target, inner)
}

func NewWithClock[T any, S any](
	log logging.Logger,
	clock Clock,
	target time.Duration,
	inner services.Service[T, S],
) services.Service[T, S] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if clock == nil {
		panic(e.NewNilArgumentError("clock"))
	}
	if inner == nil {
		panic(e.NewNilArgumentError("inner"))
	}
	if target < 0 {
		panic(e.NewInvalidArgumentError("target", "must not be negative"))
	}
	return &serviceWithConstantLatency[T, S]{
		log:    log,
		clock:  clock,
		target: target,
		inner:  inner,
	}
}

func (s *serviceWithConstantLatency[T, S]) Run(ctx context.Context, input T) (result S, err error) {
	start := s.clock.Now()
	result, err = s.inner.Run(ctx, input)

	elapsed := s.clock.Since(start)
	if elapsed > s.target {
		s.log.Warning(
			ctx,
			"Latency target exceeded.",
			logging.Entry("target", s.target),
			logging.Entry("elapsed", elapsed),
		)
		return result, err
	}

	s.clock.Wait(ctx, s.target-elapsed)
	return result, err
}
