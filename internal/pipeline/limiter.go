package pipeline

// limiter.go implements the single-flight guard for integrity runs.
//
// A run reads every registered dataset from disk and validates it row by
// row, so overlapping runs would double memory and produce interleaved
// history entries. The guard admits one run at a time and rejects the rest
// immediately; callers retry once the active run finishes.

import (
	"errors"
	"sync"
	"time"
)

// ErrRunInProgress is returned when a run is requested while another run
// is still active. Clients should retry after the active run completes.
var ErrRunInProgress = errors.New("an integrity run is already in progress")

// runGuard admits a single run at a time.
type runGuard struct {
	mu      sync.Mutex
	running bool
	since   time.Time
}

// TryAcquire claims the run slot without blocking.
// The caller MUST call Release() when the run completes (use defer).
func (g *runGuard) TryAcquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return ErrRunInProgress
	}
	g.running = true
	g.since = time.Now()
	return nil
}

// Release frees the run slot.
// Must be called exactly once for each successful TryAcquire.
func (g *runGuard) Release() {
	g.mu.Lock()
	g.running = false
	g.since = time.Time{}
	g.mu.Unlock()
}

// GuardStatus is a snapshot of the guard's current state.
type GuardStatus struct {
	Running bool      `json:"running"`
	Since   time.Time `json:"since,omitzero"`
}

// Status returns the current guard state for monitoring.
func (g *runGuard) Status() GuardStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GuardStatus{Running: g.running, Since: g.since}
}
