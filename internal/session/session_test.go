// internal/session/session_test.go
package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/titovskiy/NeptunSmart/internal/registers"
	"github.com/titovskiy/NeptunSmart/internal/snapshot"
	"github.com/titovskiy/NeptunSmart/internal/transport"
	"github.com/titovskiy/NeptunSmart/internal/writer"
)

func newSession(t *testing.T, c transport.Client) *Session {
	t.Helper()
	s, err := New(c, Config{UnitID: 240, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func refreshPending(s *Session) bool {
	select {
	case <-s.Refreshes():
		return true
	default:
		return false
	}
}

// ---- poll ----

func TestPollOnce_Success(t *testing.T) {
	f := newFakeClient()
	f.set(registers.AlarmMode, 0x0100)
	f.set(registers.WirelessSensorCount, 2)
	f.set(registers.WirelessSensorsStart+1, 0x5000)
	f.set(registers.WaterCountersStart+1, 1000)

	s := newSession(t, f)

	snap, err := s.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce err=%v", err)
	}
	if s.Current() != snap {
		t.Fatalf("snapshot not published")
	}
	if v, _ := snap.Float("water_counter_s1_p1"); v != 1 {
		t.Fatalf("counter: got=%v", v)
	}
	if v, _ := snap.Int("wireless_2_battery"); v != 0x50 {
		t.Fatalf("wireless battery: got=%v", v)
	}
	if s.State() != StateConnected {
		t.Fatalf("state: got=%v", s.State())
	}

	want := []string{"read 0/7", "read 7/2", "read 57/2", "read 107/16", "read 123/8"}
	ops := f.opLog()
	if len(ops) != len(want) {
		t.Fatalf("ops: got=%v", ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("op %d: got=%s want=%s", i, ops[i], want[i])
		}
	}
}

func TestPollOnce_FailureKeepsPreviousSnapshot(t *testing.T) {
	f := newFakeClient()
	s := newSession(t, f)

	first, err := s.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce err=%v", err)
	}

	f.mu.Lock()
	f.readErr = &transport.ProtocolError{Op: "read", Err: errBus}
	f.mu.Unlock()

	if _, err := s.PollOnce(context.Background()); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if s.Current() != first {
		t.Fatalf("failed poll replaced the snapshot")
	}
}

func TestPollOnce_ConnectFailure(t *testing.T) {
	f := newFakeClient()
	f.connectErr = errBus
	s := newSession(t, f)

	_, err := s.PollOnce(context.Background())
	if !transport.IsConnectionError(err) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if s.State() != StateDisconnected {
		t.Fatalf("state: got=%v", s.State())
	}

	// next tick reconnects transparently
	f.mu.Lock()
	f.connectErr = nil
	f.mu.Unlock()

	if _, err := s.PollOnce(context.Background()); err != nil {
		t.Fatalf("PollOnce after recovery err=%v", err)
	}
	if f.connects != 2 {
		t.Fatalf("expected 2 connects, got %d", f.connects)
	}
}

func TestProbeCachedAfterFirstConnect(t *testing.T) {
	a := &addressedClient{
		fakeClient: newFakeClient(),
		accept:     transport.Binding{Name: "unit", Style: transport.StyleSticky},
	}
	s := newSession(t, a)

	for i := 0; i < 3; i++ {
		if _, err := s.PollOnce(context.Background()); err != nil {
			t.Fatalf("PollOnce err=%v", err)
		}
	}

	if a.binds != len(transport.ProbeOrder) {
		t.Fatalf("expected probe to run once (%d binds), got %d", len(transport.ProbeOrder), a.binds)
	}
	if s.Binding() != a.accept {
		t.Fatalf("binding: got=%v", s.Binding())
	}
}

func TestCompatibilityErrorIsFatal(t *testing.T) {
	a := &addressedClient{fakeClient: newFakeClient(), accept: transport.Binding{Name: "none"}}
	s := newSession(t, a)

	for i := 0; i < 2; i++ {
		_, err := s.PollOnce(context.Background())
		var ce *transport.CompatibilityError
		if !errors.As(err, &ce) {
			t.Fatalf("attempt %d: expected CompatibilityError, got %v", i, err)
		}
	}
	if a.binds != len(transport.ProbeOrder) {
		t.Fatalf("probe must not repeat after a compatibility failure, binds=%d", a.binds)
	}
}

// ---- concurrency ----

func TestConcurrentWriteAndPollSerialized(t *testing.T) {
	f := newFakeClient()
	f.set(registers.AlarmMode, 0x0000)
	f.readDelay = 20 * time.Millisecond

	s := newSession(t, f)

	var wg sync.WaitGroup
	wg.Add(1)

	var pollErr error
	var polled int
	go func() {
		defer wg.Done()
		snap, err := s.PollOnce(context.Background())
		pollErr = err
		if snap != nil {
			polled, _ = snap.Int("alarm_mode_raw")
		}
	}()

	// wait until the poll is inside its read sequence
	<-f.readEntered

	if err := s.ApplyAlarmMode(context.Background(), writer.ZoneOneOn); err != nil {
		t.Fatalf("ApplyAlarmMode err=%v", err)
	}
	wg.Wait()

	if pollErr != nil {
		t.Fatalf("PollOnce err=%v", pollErr)
	}
	if polled != 0 {
		t.Fatalf("poll observed a write made during its read sequence: %#04x", polled)
	}

	// the write used the fresh snapshot and came after the whole read sequence
	ops := f.opLog()
	want := []string{"read 0/7", "read 107/16", "read 123/8", "write 0=768"}
	if len(ops) != len(want) {
		t.Fatalf("ops: got=%v want=%v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("op %d: got=%s want=%s (all=%v)", i, ops[i], want[i], ops)
		}
	}

	if !refreshPending(s) {
		t.Fatalf("refresh not requested after write")
	}

	next, err := s.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce err=%v", err)
	}
	if v, _ := next.Int("alarm_mode_raw"); v != 0x0300 {
		t.Fatalf("post-write snapshot: got=%#04x", v)
	}
}

func TestCloseUnblocksWaiters(t *testing.T) {
	f := newFakeClient()
	f.readDelay = 200 * time.Millisecond
	s := newSession(t, f)

	go func() { _, _ = s.PollOnce(context.Background()) }()
	<-f.readEntered

	done := make(chan error, 1)
	go func() {
		done <- s.ApplyAlarmMode(context.Background(), writer.SetMask(registers.BitKeypadLock))
	}()

	time.Sleep(10 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("Close err=%v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("waiting write did not fail on Close")
	}

	if s.State() != StateClosed {
		t.Fatalf("state: got=%v", s.State())
	}
	if _, err := s.PollOnce(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close err=%v", err)
	}
}

func TestCloseDuringConnectReleasesTransport(t *testing.T) {
	g := newGatedClient()
	s := newSession(t, g)

	done := make(chan error, 1)
	var polled *snapshot.Snapshot
	go func() {
		snap, err := s.PollOnce(context.Background())
		polled = snap
		done <- err
	}()

	// the poll holds the lock and is about to connect
	<-g.entered
	if err := s.Close(); err != nil {
		t.Fatalf("Close err=%v", err)
	}
	close(g.release)

	var err error
	select {
	case err = <-done:
	case <-time.After(time.Second):
		t.Fatalf("poll did not return after Close")
	}

	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got err=%v", err)
	}
	if polled != nil {
		t.Fatalf("poll after Close returned a snapshot")
	}
	if g.fakeClient.Connected() {
		t.Fatalf("transport left open after Close (connects=%d closes=%d)", g.connects, g.closes)
	}
	if s.Current() != nil {
		t.Fatalf("snapshot published after Close")
	}
	if s.State() != StateClosed {
		t.Fatalf("state: got=%v", s.State())
	}
}

func TestOperationAfterCloseNeverConnects(t *testing.T) {
	f := newFakeClient()
	s := newSession(t, f)
	_ = s.Close()

	if err := s.SetSwitch(context.Background(), "keypad_locks_switch", true); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if f.connects != 0 {
		t.Fatalf("closed session connected the transport, connects=%d", f.connects)
	}
}

func TestContextCancelWhileWaitingForLock(t *testing.T) {
	f := newFakeClient()
	f.readDelay = 100 * time.Millisecond
	s := newSession(t, f)

	go func() { _, _ = s.PollOnce(context.Background()) }()
	<-f.readEntered

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := s.ApplyAlarmMode(ctx, writer.SetMask(registers.BitKeypadLock))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

// ---- subscribers ----

func TestSubscribeReceivesLatest(t *testing.T) {
	f := newFakeClient()
	s := newSession(t, f)

	ch, cancel := s.Subscribe()
	defer cancel()

	for i := 0; i < 3; i++ {
		f.set(registers.AlarmMode, uint16(i))
		if _, err := s.PollOnce(context.Background()); err != nil {
			t.Fatalf("PollOnce err=%v", err)
		}
	}

	snap := <-ch
	if v, _ := snap.Int("alarm_mode_raw"); v != 2 {
		t.Fatalf("expected latest snapshot, got alarm=%d", v)
	}

	select {
	case extra := <-ch:
		t.Fatalf("unexpected queued snapshot %v", extra)
	default:
	}

	_ = s.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after Close")
	}
}

func TestNewValidatesUnitID(t *testing.T) {
	if _, err := New(newFakeClient(), Config{UnitID: 0}); err == nil {
		t.Fatalf("unit id 0 accepted")
	}
	if _, err := New(newFakeClient(), Config{UnitID: 248}); err == nil {
		t.Fatalf("unit id 248 accepted")
	}
}
