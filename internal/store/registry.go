package store

import (
	"sync"

	"droneops/showlog/internal/logging"
)

// Registry owns the lifetime of the single live Provider. Reconfiguration
// swaps the instance; the old one is closed after the swap, with no in-flight
// request draining.
type Registry struct {
	mu     sync.RWMutex
	active Provider
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Swap installs a new provider and closes the previous one.
func (r *Registry) Swap(p Provider) {
	r.mu.Lock()
	old := r.active
	r.active = p
	r.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			logging.Warn("failed to close replaced storage provider",
				"store", old.Label(),
				"error", err.Error(),
			)
		}
	}
}

// Active returns the current provider, or nil before the first Swap.
func (r *Registry) Active() Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}
