// internal/poller/types.go
package poller

import (
	"time"

	"github.com/titovskiy/NeptunSmart/internal/snapshot"
)

// PollResult is the outcome of one poll cycle.
type PollResult struct {
	Device string
	At     time.Time

	// Snapshot is nil when Err is set.
	Snapshot *snapshot.Snapshot
	Err      error

	Duration time.Duration
}

// OK reports whether the cycle produced a snapshot.
func (r PollResult) OK() bool {
	return r.Err == nil && r.Snapshot != nil
}
