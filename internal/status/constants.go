// internal/status/constants.go
package status

// Health codes published with every status snapshot.
// These values define the protocol and MUST NOT be configurable.

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy device.
const HealthOK uint16 = 1

// HealthError represents a device error state.
const HealthError uint16 = 2

// HealthStale represents a stale data state.
const HealthStale uint16 = 3

// HealthDisabled represents a disabled device state.
const HealthDisabled uint16 = 4

// ---- LIMITS ----

// MaxSecondsInError saturates the error duration counter.
const MaxSecondsInError = 65535

// StaleFactor is how many poll intervals may pass without a success
// before a healthy device is reported stale.
const StaleFactor = 3

// HealthName returns the textual health code.
func HealthName(h uint16) string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthStale:
		return "stale"
	case HealthDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}
