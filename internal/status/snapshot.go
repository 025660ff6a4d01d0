// internal/status/snapshot.go
package status

import "time"

// Snapshot represents exactly what the status publishers are allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Device         string    `json:"device"`
	Health         uint16    `json:"health"`
	HealthName     string    `json:"health_name"`
	LastErrorCode  uint16    `json:"last_error_code"`
	LastError      string    `json:"last_error,omitempty"`
	SecondsInError uint16    `json:"seconds_in_error"`
	State          string    `json:"state"`
	LastSuccess    time.Time `json:"last_success,omitempty"`
}
