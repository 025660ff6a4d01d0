// internal/status/tracker_test.go
package status

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/titovskiy/NeptunSmart/internal/transport"
	"github.com/titovskiy/NeptunSmart/internal/writer"
)

func TestErrorCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want uint16
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), GenericErrorCode},
		{"exception", &transport.ProtocolError{Op: "read", Code: 2}, 2},
		{"malformed", &transport.ProtocolError{Op: "read", Err: errors.New("short")}, GenericErrorCode},
		{"connection", &transport.ConnectionError{Endpoint: "h:503", Err: errors.New("refused")}, 0x100},
		{"compatibility", &transport.CompatibilityError{UnitID: 240}, 0x200},
		{"validation", &writer.ValidationError{Field: "step", Value: 5}, 0x300},
		{"wrapped", fmt.Errorf("poll: %w", &transport.ProtocolError{Op: "read", Code: 6}), 6},
	}

	for _, tc := range cases {
		if got := ErrorCode(tc.err); got != tc.want {
			t.Fatalf("%s: got=%#x want=%#x", tc.name, got, tc.want)
		}
	}
}

func TestTracker_ErrorAndRecovery(t *testing.T) {
	tr := NewTracker("kitchen", 30*time.Second)
	now := time.Now()

	if s := tr.Snapshot(); s.Health != HealthUnknown || s.Device != "kitchen" {
		t.Fatalf("initial: got=%+v", s)
	}

	err := &transport.ConnectionError{Endpoint: "h:503", Err: errors.New("refused")}
	if !tr.Observe(err, now) {
		t.Fatalf("expected change on first error")
	}
	if tr.Observe(err, now) {
		t.Fatalf("repeated identical error must not report a change")
	}

	for i := 0; i < 3; i++ {
		tr.Tick(now)
	}
	s := tr.Snapshot()
	if s.Health != HealthError || s.LastErrorCode != 0x100 || s.SecondsInError != 3 {
		t.Fatalf("error state: got=%+v", s)
	}

	if !tr.Observe(nil, now) {
		t.Fatalf("expected change on recovery")
	}
	s = tr.Snapshot()
	if s.Health != HealthOK || s.LastErrorCode != 0 || s.SecondsInError != 0 || s.LastError != "" {
		t.Fatalf("recovered state: got=%+v", s)
	}
	if !s.LastSuccess.Equal(now) {
		t.Fatalf("last success: got=%v", s.LastSuccess)
	}
	if tr.Observe(nil, now.Add(time.Second)) {
		t.Fatalf("steady OK must not report a change")
	}
	if tr.Tick(now.Add(2 * time.Second)) {
		t.Fatalf("tick while OK must not report a change")
	}
}

func TestTracker_SecondsSaturate(t *testing.T) {
	tr := NewTracker("d", 0)
	tr.Observe(errors.New("x"), time.Now())

	tr.mu.Lock()
	tr.snap.SecondsInError = MaxSecondsInError - 1
	tr.mu.Unlock()

	if !tr.Tick(time.Now()) {
		t.Fatalf("expected change below the limit")
	}
	if tr.Tick(time.Now()) {
		t.Fatalf("tick at the limit must not report a change")
	}
	if s := tr.Snapshot(); s.SecondsInError != MaxSecondsInError {
		t.Fatalf("seconds: got=%d", s.SecondsInError)
	}
}

func TestTracker_Stale(t *testing.T) {
	tr := NewTracker("d", 10*time.Second)
	start := time.Now()
	tr.Observe(nil, start)

	if tr.Tick(start.Add(30 * time.Second)) {
		t.Fatalf("not stale at exactly 3 intervals")
	}
	if !tr.Tick(start.Add(31 * time.Second)) {
		t.Fatalf("expected stale after 3 intervals")
	}
	if s := tr.Snapshot(); s.Health != HealthStale || s.HealthName != "stale" {
		t.Fatalf("health: got=%+v", s)
	}

	tr.Observe(nil, start.Add(32*time.Second))
	if s := tr.Snapshot(); s.Health != HealthOK || s.SecondsInError != 0 {
		t.Fatalf("recovery from stale: got=%+v", s)
	}
}

func TestTracker_Disable(t *testing.T) {
	tr := NewTracker("d", time.Second)
	if !tr.Disable() {
		t.Fatalf("expected change")
	}
	if tr.Tick(time.Now()) {
		t.Fatalf("disabled device must not count seconds")
	}
	if !tr.SetState("closed") || tr.SetState("closed") {
		t.Fatalf("SetState change reporting broken")
	}
}
