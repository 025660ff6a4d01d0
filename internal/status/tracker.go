// internal/status/tracker.go
package status

import (
	"sync"
	"time"
)

// Tracker owns the device status snapshot.
// Poll results arrive through Observe; the 1 Hz ticker drives Tick.
// Every mutator reports whether the snapshot changed.
type Tracker struct {
	mu       sync.Mutex
	snap     Snapshot
	interval time.Duration
}

// NewTracker starts in HealthUnknown.
// interval is the poll period used for staleness; <= 0 disables it.
func NewTracker(device string, interval time.Duration) *Tracker {
	return &Tracker{
		interval: interval,
		snap: Snapshot{
			Device:     device,
			Health:     HealthUnknown,
			HealthName: HealthName(HealthUnknown),
			State:      "disconnected",
		},
	}
}

// Snapshot returns a copy of the current status.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// SetState records the session state name.
func (t *Tracker) SetState(state string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snap.State == state {
		return false
	}
	t.snap.State = state
	return true
}

// Observe folds one poll outcome into the status.
func (t *Tracker) Observe(err error, at time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.snap
	changed := false

	if err == nil {
		// Recovery / OK
		changed = t.setHealth(HealthOK) || changed
		if s.LastErrorCode != 0 || s.LastError != "" {
			s.LastErrorCode = 0
			s.LastError = ""
			changed = true
		}
		if s.SecondsInError != 0 {
			s.SecondsInError = 0
			changed = true
		}
		s.LastSuccess = at
		return changed
	}

	changed = t.setHealth(HealthError) || changed

	code := ErrorCode(err)
	if s.LastErrorCode != code {
		s.LastErrorCode = code
		changed = true
	}
	if msg := err.Error(); s.LastError != msg {
		s.LastError = msg
		changed = true
	}

	// seconds_in_error increments on the ticker only
	return changed
}

// Tick advances the 1 Hz clock.
// Counts seconds while not OK (saturating) and turns OK into Stale once no success
// arrived within StaleFactor intervals.
func (t *Tracker) Tick(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.snap
	changed := false

	if s.Health == HealthOK && t.interval > 0 && !s.LastSuccess.IsZero() &&
		now.Sub(s.LastSuccess) > StaleFactor*t.interval {
		changed = t.setHealth(HealthStale)
	}

	if s.Health != HealthOK && s.Health != HealthDisabled && s.SecondsInError < MaxSecondsInError {
		s.SecondsInError++
		changed = true
	}
	return changed
}

// Disable marks the device disabled (session closed).
func (t *Tracker) Disable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.setHealth(HealthDisabled)
}

func (t *Tracker) setHealth(h uint16) bool {
	if t.snap.Health == h {
		return false
	}
	t.snap.Health = h
	t.snap.HealthName = HealthName(h)
	return true
}
