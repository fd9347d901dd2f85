package use_cases

import (
	"context"
	"time"
)

type Clock interface {
	NowUTC() time.Time
}

type systemClock struct{}

func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) NowUTC() time.Time {
	return time.Now().UTC()
}

func resolveNow(clock Clock, requested time.Time) time.Time {
	if !requested.IsZero() {
		return requested.UTC()
	}
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.NowUTC()
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
