// internal/snapshot/snapshot.go
package snapshot

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/titovskiy/NeptunSmart/internal/registers"
)

// Snapshot is the decoded state of one poll cycle.
// It is immutable once returned by Decode; readers share it freely.
// Values are int, bool or float64.
type Snapshot struct {
	At     time.Time
	fields map[string]any
}

// Len returns the number of fields.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Value returns the raw field value.
func (s *Snapshot) Value(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.fields[key]
	return v, ok
}

// Int returns an integer field. Bools read as 0/1.
func (s *Snapshot) Int(key string) (int, bool) {
	v, ok := s.Value(key)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case int:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Bool returns a boolean field. Integers read as non-zero.
func (s *Snapshot) Bool(key string) (bool, bool) {
	v, ok := s.Value(key)
	if !ok {
		return false, false
	}
	switch x := v.(type) {
	case bool:
		return x, true
	case int:
		return x != 0, true
	}
	return false, false
}

// Float returns a float field. Integers are widened.
func (s *Snapshot) Float(key string) (float64, bool) {
	v, ok := s.Value(key)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return 0, false
}

// Raw returns a cached register word stored under key.
// Only integer fields within 0..0xFFFF qualify.
func (s *Snapshot) Raw(key string) (uint16, bool) {
	if key == "" {
		return 0, false
	}
	v, ok := s.Value(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	if !ok || n < 0 || n > 0xFFFF {
		return 0, false
	}
	return uint16(n), true
}

// Keys returns the field names in sorted order.
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fields returns a copy of the field map.
func (s *Snapshot) Fields() map[string]any {
	out := make(map[string]any, s.Len())
	if s == nil {
		return out
	}
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the snapshot as {"at": ..., "fields": {...}}.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		At     time.Time      `json:"at"`
		Fields map[string]any `json:"fields"`
	}{At: s.At, Fields: s.fields})
}

// ------------------------------------------------------------
// DERIVED LISTS
// ------------------------------------------------------------

// InstalledCounters returns indexes of enabled counter modules.
// Without data every counter is assumed installed.
func (s *Snapshot) InstalledCounters() []int {
	if s == nil {
		return seq(registers.Counters)
	}
	out := []int{}
	for i := 1; i <= registers.Counters; i++ {
		if on, _ := s.Bool(counterKey(i, "enabled")); on {
			out = append(out, i)
		}
	}
	return out
}

// InstalledWirelessSensors returns 1..N for the reported sensor count (max 50).
func (s *Snapshot) InstalledWirelessSensors() []int {
	if s == nil {
		return []int{}
	}
	n, _ := s.Int("wireless_sensor_count")
	return seq(clamp(n, 0, registers.MaxWirelessSensors))
}

// DetectedLeakLines returns 1..N for the detected leak line count (1..4).
func (s *Snapshot) DetectedLeakLines() []int {
	if s == nil {
		return []int{1}
	}
	n, ok := s.Int("detected_leak_lines")
	if !ok {
		n = 1
	}
	return seq(clamp(n, 1, registers.LeakLines))
}

func seq(n int) []int {
	out := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, i)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
