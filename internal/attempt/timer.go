package attempt

import (
	"context"
	"sync"
	"time"

	"quiz-feed-service/internal/domain"
)

type finisher interface {
	Status() Status
	Finish() (domain.AttemptResult, error)
}

// Timer counts a quiz time limit down and finishes the session at zero.
type Timer struct {
	session finisher

	mu        sync.Mutex
	remaining int
	stopped   bool
	expired   bool
}

// NewTimer returns nil when the quiz has no time limit.
func NewTimer(limitSeconds int, session finisher) *Timer {
	if limitSeconds <= 0 {
		return nil
	}
	return &Timer{session: session, remaining: limitSeconds}
}

// Remaining returns the seconds left on the clock.
func (t *Timer) Remaining() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Expired reports whether the timer ran out and forced the finish.
func (t *Timer) Expired() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expired
}

// Tick counts one second. It returns the remaining seconds and whether the
// timer keeps running. A completed session stops the timer without a decrement.
func (t *Timer) Tick() (int, bool) {
	remaining, running, fire := t.step()
	if fire {
		_, _ = t.session.Finish()
	}
	return remaining, running
}

func (t *Timer) step() (remaining int, running, fire bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return t.remaining, false, false
	}
	switch t.session.Status() {
	case NotStarted:
		return t.remaining, true, false
	case Completed:
		t.stopped = true
		return t.remaining, false, false
	}

	t.remaining--
	if t.remaining > 0 {
		return t.remaining, true, false
	}
	t.remaining = 0
	t.stopped = true
	t.expired = true
	return 0, false, true
}

// Run ticks every interval until the timer stops or ctx is done. onTick sees
// every decrement, including the final zero that finished the session.
func (t *Timer) Run(ctx context.Context, interval time.Duration, onTick func(remaining int)) {
	if t == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining, running := t.Tick()
			if !running {
				if t.Expired() && onTick != nil {
					onTick(0)
				}
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
		}
	}
}
