// Package testutil holds deterministic helpers shared by chemflow tests and
// the scenario harness.
package testutil

import "sync"

// Sequence is a mutex-guarded monotonic counter. The harness numbers trace
// events with it so identical scenarios yield identical traces.
type Sequence struct {
	mu  sync.Mutex
	seq int64
}

// NewSequence returns a sequence whose first Next is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next advances the sequence and returns the new value.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Current returns the last value handed out, 0 before the first Next.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset rewinds to 0.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
