package scanner

import (
	"context"
	"time"
)

// Clock abstracts the loop's scheduling so the state machine stays
// scheduler-agnostic: production uses wall-clock timers, tests drive
// the cooldown by hand.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is cancelled, whichever is first.
	Sleep(ctx context.Context, d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
