package dashboard

import (
	"errors"
	"sync"
)

// ErrNoRecommendations is returned by Rotator.Next when the tip list is empty
var ErrNoRecommendations = errors.New("no recommendations configured")

// DefaultRecommendations are the built-in efficiency tips, in rotation order
var DefaultRecommendations = []string{
	"Turn off unused devices",
	"Lower AC usage during peak hours",
	"Unplug chargers when not in use",
	"Use energy-efficient lighting",
	"Run full laundry loads only",
	"Reduce standby power consumption",
}

// Rotator cycles through a fixed list of tips. Every call to Next advances
// the cursor exactly once.
type Rotator struct {
	mu    sync.Mutex
	tips  []string
	count uint64
}

// NewRotator creates a rotator over a private copy of tips
func NewRotator(tips []string) *Rotator {
	cp := make([]string, len(tips))
	copy(cp, tips)
	return &Rotator{tips: cp}
}

// Next returns the tip at the cursor and advances it. The cursor advances
// even when no tips are configured, in which case ErrNoRecommendations is
// returned.
func (r *Rotator) Next() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.count
	r.count++
	if len(r.tips) == 0 {
		return "", ErrNoRecommendations
	}
	return r.tips[n%uint64(len(r.tips))], nil
}

// Count returns how many times Next has been called
func (r *Rotator) Count() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Len returns the number of configured tips
func (r *Rotator) Len() int {
	return len(r.tips)
}
