package dashboard

import "sync"

// TargetRegister holds the user's monthly budget. Zero means no target.
type TargetRegister struct {
	mu    sync.RWMutex
	value float64
}

// Set replaces the target. Any value is accepted verbatim.
func (t *TargetRegister) Set(v float64) {
	t.mu.Lock()
	t.value = v
	t.mu.Unlock()
}

// Get returns the current target
func (t *TargetRegister) Get() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}
