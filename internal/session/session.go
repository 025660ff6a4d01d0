// internal/session/session.go
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/titovskiy/NeptunSmart/internal/snapshot"
	"github.com/titovskiy/NeptunSmart/internal/transport"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("session: closed")

// State is the connection lifecycle of a session.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StatePolling
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StatePolling:
		return "polling"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// Config is the runtime config a session needs.
type Config struct {
	UnitID             uint8
	IgnoreZeroCounters bool

	// Seed holds last-known counter values used before the first snapshot exists.
	Seed map[string]float64

	Logger zerolog.Logger

	// OnWrite observes every write attempt that reached the lock. Optional.
	OnWrite func(op string, err error)
}

// Session owns one controller connection and its latest snapshot.
// Polls and writes are strictly serialized by a single lock.
type Session struct {
	cfg Config
	log zerolog.Logger

	raw transport.Client

	// guarded by lock
	client   transport.Client
	binding  transport.Binding
	probeErr error
	dirty    map[uint16]struct{}

	lock      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once

	state   atomic.Int32
	current atomic.Pointer[snapshot.Snapshot]
	refresh chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan *snapshot.Snapshot
	nextSub int
}

// New creates a session over client. No IO until the first operation.
func New(client transport.Client, cfg Config) (*Session, error) {
	if client == nil {
		return nil, errors.New("session: transport client required")
	}
	if cfg.UnitID == 0 || cfg.UnitID > 247 {
		return nil, errors.New("session: unit id must be 1..247")
	}

	s := &Session{
		cfg:     cfg,
		log:     cfg.Logger.With().Str("component", "session").Uint8("unit", cfg.UnitID).Logger(),
		raw:     client,
		dirty:   make(map[uint16]struct{}),
		lock:    make(chan struct{}, 1),
		closed:  make(chan struct{}),
		refresh: make(chan struct{}, 1),
		subs:    make(map[int]chan *snapshot.Snapshot),
	}
	s.state.Store(int32(StateDisconnected))
	return s, nil
}

// ------------------------------------------------------------
// LOCK
// ------------------------------------------------------------

// acquire takes the session lock, honoring ctx and Close.
func (s *Session) acquire(ctx context.Context) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}

	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.closed:
		return ErrClosed
	}

	select {
	case <-s.closed:
		s.release()
		return ErrClosed
	default:
		return nil
	}
}

func (s *Session) release() {
	<-s.lock
}

// withLock runs fn under the session lock. Release is unconditional.
func (s *Session) withLock(ctx context.Context, fn func() error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return fn()
}

// ------------------------------------------------------------
// STATE
// ------------------------------------------------------------

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	for {
		cur := s.state.Load()
		if State(cur) == StateClosed {
			return
		}
		if s.state.CompareAndSwap(cur, int32(st)) {
			return
		}
	}
}

// Binding returns the unit id convention found by the probe.
// Zero until the first successful connect.
func (s *Session) Binding() transport.Binding {
	var b transport.Binding
	_ = s.withLock(context.Background(), func() error {
		b = s.binding
		return nil
	})
	return b
}

// Current returns the latest published snapshot, or nil before the first poll.
func (s *Session) Current() *snapshot.Snapshot {
	return s.current.Load()
}

// ensureConnected reconnects if needed and probes the unit id convention once.
// Caller holds the lock.
func (s *Session) ensureConnected(ctx context.Context) (transport.Client, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	if s.probeErr != nil {
		return nil, s.probeErr
	}

	if !s.raw.Connected() {
		s.setState(StateDisconnected)
		if err := s.raw.Connect(ctx); err != nil {
			return nil, err
		}
		// Close may have released the transport while Connect was running
		if s.isClosed() {
			_ = s.raw.Close()
			return nil, ErrClosed
		}
		s.setState(StateConnected)
		s.log.Info().Msg("connected")
	}

	if s.client == nil {
		c, b, err := transport.Probe(s.raw, s.cfg.UnitID)
		if err != nil {
			var ce *transport.CompatibilityError
			if errors.As(err, &ce) {
				s.probeErr = err
			}
			return nil, err
		}
		s.client = c
		s.binding = b
		s.log.Debug().Str("binding", b.String()).Msg("unit id convention selected")
	}

	return s.client, nil
}

// settle records the connection state after a transport operation.
// Caller holds the lock.
func (s *Session) settle() {
	if s.raw.Connected() {
		s.setState(StateConnected)
		return
	}
	s.setState(StateDisconnected)
}

// ------------------------------------------------------------
// REFRESH + SUBSCRIBERS
// ------------------------------------------------------------

// RequestRefresh asks the scheduler for an out-of-band poll.
// Never blocks; pending requests coalesce.
func (s *Session) RequestRefresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Refreshes delivers refresh requests to the scheduler.
func (s *Session) Refreshes() <-chan struct{} {
	return s.refresh
}

// Subscribe returns a channel carrying the latest snapshot.
// Slow readers only miss intermediate snapshots. The channel closes on Close.
func (s *Session) Subscribe() (<-chan *snapshot.Snapshot, func()) {
	ch := make(chan *snapshot.Snapshot, 1)

	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.subs == nil {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	if cur := s.current.Load(); cur != nil {
		ch <- cur
	}

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// publish stores snap and fans it out. False once the session is closed.
func (s *Session) publish(snap *snapshot.Snapshot) bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.subs == nil {
		return false
	}
	s.current.Store(snap)

	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// drop the stale one, keep the latest
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return true
}

// ------------------------------------------------------------
// CLOSE
// ------------------------------------------------------------

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Close is safe to call at any time and more than once.
// Waiting operations fail with ErrClosed; the transport is released.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		s.state.Store(int32(StateClosed))

		s.subMu.Lock()
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
		s.subs = nil
		s.subMu.Unlock()

		err = s.raw.Close()
		s.log.Info().Msg("closed")
	})
	return err
}
