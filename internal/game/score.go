package game

import "sync"

// Score is the running, never-negative point total.
type Score struct {
	mu        sync.Mutex
	total     int
	listeners []func(total int)
}

// NewScore creates a score starting at initial (clamped to zero).
func NewScore(initial int) *Score {
	if initial < 0 {
		initial = 0
	}
	return &Score{total: initial}
}

// Apply adds delta and clamps the result at zero. Listeners run
// synchronously, outside the lock, only when the total changed; they must
// not block.
func (s *Score) Apply(delta int) int {
	s.mu.Lock()
	prev := s.total
	s.total += delta
	if s.total < 0 {
		s.total = 0
	}
	total := s.total
	listeners := s.listeners
	s.mu.Unlock()

	if total != prev {
		for _, fn := range listeners {
			fn(total)
		}
	}
	return total
}

// Total returns the current score.
func (s *Score) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// OnChange registers a listener for score changes.
func (s *Score) OnChange(fn func(total int)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Reset sets the score back to zero, notifying listeners if it changed.
func (s *Score) Reset() {
	s.mu.Lock()
	delta := -s.total
	s.mu.Unlock()
	s.Apply(delta)
}
