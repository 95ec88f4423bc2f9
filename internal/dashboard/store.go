package dashboard

import (
	"sync"

	"github.com/jgoulah/greenmeter/pkg/models"
)

// DefaultMaxPoints is the live window capacity (~5 minutes at a 5s interval)
const DefaultMaxPoints = 60

// ReadingStore keeps the most recent readings in a bounded FIFO window. It is
// safe for concurrent use by multiple goroutines.
type ReadingStore struct {
	mu       sync.RWMutex
	max      int
	readings []models.Reading
}

// NewReadingStore creates a store holding at most max readings. Values less
// than or equal to zero fall back to DefaultMaxPoints.
func NewReadingStore(max int) *ReadingStore {
	if max <= 0 {
		max = DefaultMaxPoints
	}
	return &ReadingStore{
		max:      max,
		readings: make([]models.Reading, 0, max),
	}
}

// Append adds a reading at the tail. When the window is already full the
// oldest reading is evicted and returned.
func (s *ReadingStore) Append(r models.Reading) (count int, evicted *models.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings = append(s.readings, r)
	if len(s.readings) > s.max {
		removed := s.readings[0]
		// Shift in place so the backing array never grows past max+1.
		copy(s.readings, s.readings[1:])
		s.readings = s.readings[:len(s.readings)-1]
		return len(s.readings), &removed
	}
	return len(s.readings), nil
}

// Last returns a copy of the newest n readings in insertion order. If n is
// not positive or exceeds the current length, every reading is returned.
func (s *ReadingStore) Last(n int) []models.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if n > 0 && n < len(s.readings) {
		start = len(s.readings) - n
	}
	out := make([]models.Reading, len(s.readings)-start)
	copy(out, s.readings[start:])
	return out
}

// All returns a copy of every retained reading
func (s *ReadingStore) All() []models.Reading {
	return s.Last(0)
}

// Len returns the number of retained readings
func (s *ReadingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}

// Cap returns the window capacity
func (s *ReadingStore) Cap() int {
	return s.max
}
