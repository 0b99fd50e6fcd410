package layout

import (
	"sync"
	"time"
)

// Scheduler coalesces layout requests. A request arms a single timer; further
// requests while it is armed are absorbed into it.
type Scheduler struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	pending bool
}

// NewScheduler returns a scheduler that runs fn delay after the first of a
// burst of requests. fn runs on the timer goroutine.
func NewScheduler(delay time.Duration, fn func()) *Scheduler {
	return &Scheduler{delay: delay, fn: fn}
}

// Schedule arms the timer unless it is already armed. It reports whether a
// new run was scheduled.
func (s *Scheduler) Schedule() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		return false
	}
	s.pending = true
	s.timer = time.AfterFunc(s.delay, s.fire)
	return true
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.timer = nil
	s.mu.Unlock()

	s.fn()
}

// Cancel disarms a pending run. It reports whether one was pending.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending {
		return false
	}
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return true
}

// Pending reports whether a run is armed.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}
