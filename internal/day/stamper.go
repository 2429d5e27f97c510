package day

import (
	"sync"
	"time"
)

// Stamper hands out strictly increasing food-entry timestamps at millisecond
// resolution, the finest precision every store keeps.
type Stamper struct {
	mu   sync.Mutex
	last time.Time
}

// Stamp returns now truncated to the millisecond, or one millisecond after
// the previous stamp if now is not later.
func (s *Stamper) Stamp(now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := now.Truncate(time.Millisecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Millisecond)
	}
	s.last = t
	return t
}
