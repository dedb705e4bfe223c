package loop

import (
	"sync"
	"time"
)

// Scheduler requests a single future callback, like a browser's animation
// frame request. The returned cancel func is safe to call more than once
// and after the callback ran.
type Scheduler interface {
	Request(fn func(now time.Time)) (cancel func())
}

// TickerScheduler fires callbacks at a fixed frame interval.
type TickerScheduler struct {
	Interval time.Duration
}

// NewTickerScheduler returns a scheduler for the given frames per second.
// Non-positive fps falls back to 30.
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = 30
	}
	return &TickerScheduler{Interval: time.Second / time.Duration(fps)}
}

func (s *TickerScheduler) Request(fn func(time.Time)) func() {
	t := time.AfterFunc(s.Interval, func() { fn(time.Now()) })
	return func() { t.Stop() }
}

// ManualScheduler queues callbacks until Step runs them. It drives
// offscreen rendering and tests.
type ManualScheduler struct {
	mu      sync.Mutex
	nextID  int
	pending map[int]func(time.Time)
	order   []int
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[int]func(time.Time))}
}

func (s *ManualScheduler) Request(fn func(time.Time)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.pending[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}
}

// Step runs every callback queued before the call and returns how many
// ran. Callbacks requested while stepping wait for the next Step.
func (s *ManualScheduler) Step(now time.Time) int {
	s.mu.Lock()
	order := s.order
	s.order = nil
	fns := make([]func(time.Time), 0, len(order))
	for _, id := range order {
		if fn, ok := s.pending[id]; ok {
			fns = append(fns, fn)
			delete(s.pending, id)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(now)
	}
	return len(fns)
}

// Pending reports the number of queued callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
