package glitchreveal

import (
	"context"
	"log/slog"
	"time"
)

// Clock abstracts wall time so the sequencer can run on virtual time.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// scheduler runs every timer of one experience on the calling goroutine.
// Repeating timers only fire from inside sleep, so nothing touches the
// stage concurrently with the script.
type scheduler struct {
	clock     Clock
	repeaters []*repeater
}

// repeater is a periodic callback acquired with every and released with stop.
type repeater struct {
	interval time.Duration
	next     time.Time
	fn       func()
	stopped  bool
}

func (r *repeater) stop() {
	r.stopped = true
}

func newScheduler(clock Clock) *scheduler {
	return &scheduler{clock: clock}
}

// every registers fn to run each interval, first after one interval.
func (s *scheduler) every(interval time.Duration, fn func()) *repeater {
	if interval <= 0 {
		interval = time.Millisecond
	}
	r := &repeater{interval: interval, next: s.clock.Now().Add(interval), fn: fn}
	s.repeaters = append(s.repeaters, r)
	return r
}

// active returns the number of live repeaters.
func (s *scheduler) active() int {
	s.prune()
	return len(s.repeaters)
}

func (s *scheduler) prune() {
	live := s.repeaters[:0]
	for _, r := range s.repeaters {
		if !r.stopped {
			live = append(live, r)
		}
	}
	clear(s.repeaters[len(live):])
	s.repeaters = live
}

// sleep yields for d, firing due repeaters along the way. It returns
// ctx.Err() if ctx ends first.
func (s *scheduler) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := s.clock.Now().Add(d)
	for {
		s.prune()
		now := s.clock.Now()
		if !now.Before(deadline) {
			return nil
		}

		wake := deadline
		for _, r := range s.repeaters {
			if r.next.Before(wake) {
				wake = r.next
			}
		}

		if wake.After(now) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.clock.After(wake.Sub(now)):
			}
		}

		now = s.clock.Now()
		// Index loop: fn may register new repeaters.
		for i := 0; i < len(s.repeaters); i++ {
			r := s.repeaters[i]
			if r.stopped || now.Before(r.next) {
				continue
			}
			r.fn()
			r.next = r.next.Add(r.interval)
			if r.next.Before(now) {
				r.next = now.Add(r.interval)
			}
		}
	}
}
