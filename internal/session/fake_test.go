// internal/session/fake_test.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/titovskiy/NeptunSmart/internal/registers"
	"github.com/titovskiy/NeptunSmart/internal/transport"
)

// fakeClient is an in-memory controller.
// readDelay is applied after every read to widen race windows.
type fakeClient struct {
	mu        sync.Mutex
	regs      [registers.Size]uint16
	connected bool
	ops       []string

	connectErr error
	readErr    error
	writeErr   error
	readDelay  time.Duration

	// readEntered is signalled (non-blocking) on every read
	readEntered chan struct{}

	connects int
	closes   int
}

func newFakeClient() *fakeClient {
	return &fakeClient{readEntered: make(chan struct{}, 16)}
}

func (f *fakeClient) log(op string) {
	f.ops = append(f.ops, op)
}

func (f *fakeClient) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		return &transport.ConnectionError{Endpoint: "fake", Err: f.connectErr}
	}
	f.connected = true
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.connected = false
	return nil
}

func (f *fakeClient) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) ReadHoldingRegisters(ctx context.Context, addr, qty uint16) ([]uint16, error) {
	f.mu.Lock()
	f.log(fmt.Sprintf("read %d/%d", addr, qty))
	if f.readErr != nil {
		err := f.readErr
		f.mu.Unlock()
		return nil, err
	}
	out := make([]uint16, qty)
	copy(out, f.regs[addr:int(addr)+int(qty)])
	delay := f.readDelay
	f.mu.Unlock()

	select {
	case f.readEntered <- struct{}{}:
	default:
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return out, nil
}

func (f *fakeClient) WriteRegister(ctx context.Context, addr, value uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log(fmt.Sprintf("write %d=%d", addr, value))
	if f.writeErr != nil {
		return f.writeErr
	}
	f.regs[addr] = value
	return nil
}

func (f *fakeClient) WriteRegisters(ctx context.Context, addr uint16, values []uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log(fmt.Sprintf("write %d=%v", addr, values))
	if f.writeErr != nil {
		return f.writeErr
	}
	copy(f.regs[addr:], values)
	return nil
}

func (f *fakeClient) set(addr uint16, v uint16) {
	f.mu.Lock()
	f.regs[addr] = v
	f.mu.Unlock()
}

func (f *fakeClient) get(addr uint16) uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[addr]
}

func (f *fakeClient) writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, op := range f.ops {
		if len(op) > 5 && op[:5] == "write" {
			out = append(out, op)
		}
	}
	return out
}

func (f *fakeClient) opLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

// addressedClient also implements UnitAddresser and accepts one convention.
type addressedClient struct {
	*fakeClient
	accept transport.Binding
	binds  int
}

func (a *addressedClient) BindUnit(b transport.Binding, unitID uint8) (transport.Client, error) {
	a.binds++
	if b != a.accept {
		return nil, transport.ErrUnsupportedBinding
	}
	return a, nil
}

var errBus = errors.New("bus error")

// gatedClient parks the first Connected call until release is closed.
type gatedClient struct {
	*fakeClient
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedClient() *gatedClient {
	return &gatedClient{
		fakeClient: newFakeClient(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (g *gatedClient) Connected() bool {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.fakeClient.Connected()
}
