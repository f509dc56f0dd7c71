package upload

import (
	"sync"
	"time"
)

// Observation is what the reaper remembers about one upload between cycles.
// Generation distinguishes a recycled key from the upload seen last time.
type Observation struct {
	Generation uint64
	Chunks     int
}

// Snapshot maps identity keys to their observation at one reaper cycle.
type Snapshot map[string]Observation

type reaperState int

const (
	reaperIdle reaperState = iota
	reaperArmed
)

// Reaper finds uploads that made no progress between two cycles.
//
// Idle: no baseline yet. The first cycle only records one and arms.
// Armed: once more than minInterval has passed since the last comparison,
// uploads whose chunk count did not move since the baseline are reported
// stale. Every cycle ends by replacing the baseline with current counts, so
// an upload is reported on the second cycle after it stops, never the first.
type Reaper struct {
	mu          sync.Mutex
	minInterval time.Duration
	now         func() time.Time

	state     reaperState
	baseline  Snapshot
	lastCheck time.Time
}

func NewReaper(minInterval time.Duration, now func() time.Time) *Reaper {
	if now == nil {
		now = time.Now
	}
	return &Reaper{minInterval: minInterval, now: now}
}

// Armed reports whether a baseline snapshot is held.
func (r *Reaper) Armed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == reaperArmed
}

// Cycle runs one reaper step. observe reads the live registry; evict is
// called for every key whose observation is unchanged since the baseline.
// Cycle reports whether a comparison took place.
func (r *Reaper) Cycle(observe func() Snapshot, evict func(key string, seen Observation)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	compared := false

	switch r.state {
	case reaperIdle:
		r.lastCheck = now
	case reaperArmed:
		if now.Sub(r.lastCheck) > r.minInterval {
			r.lastCheck = now
			compared = true

			live := observe()
			for key, seen := range r.baseline {
				current, ok := live[key]
				if !ok {
					continue
				}
				if current == seen {
					evict(key, seen)
				}
			}
		}
	}

	r.baseline = observe()
	r.state = reaperArmed
	return compared
}
