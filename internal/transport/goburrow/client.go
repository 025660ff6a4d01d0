// internal/transport/goburrow/client.go
package goburrow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/titovskiy/NeptunSmart/internal/transport"
)

// Client is a single TCP connection to one controller.
// It serializes requests because the handler carries the SlaveId.
type Client struct {
	mu        sync.Mutex
	endpoint  string
	handler   *modbus.TCPClientHandler
	client    modbus.Client
	connected bool
}

type Config struct {
	Endpoint    string
	Timeout     time.Duration
	IdleTimeout time.Duration
}

// New prepares a client. No connection is opened until Connect.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("goburrow: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	if cfg.IdleTimeout > 0 {
		h.IdleTimeout = cfg.IdleTimeout
	}

	return &Client{
		endpoint: cfg.Endpoint,
		handler:  h,
		client:   modbus.NewClient(h),
	}, nil
}

func (c *Client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.handler.Connect(); err != nil {
		c.connected = false
		return &transport.ConnectionError{Endpoint: c.endpoint, Err: err}
	}
	c.connected = true
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected = false
	return c.handler.Close()
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// BindUnit supports the sticky "slave" convention only: the id lives on the handler.
func (c *Client) BindUnit(b transport.Binding, unitID uint8) (transport.Client, error) {
	if b.Name != "slave" || b.Style != transport.StyleSticky {
		return nil, fmt.Errorf("goburrow %s: %w", b, transport.ErrUnsupportedBinding)
	}

	c.mu.Lock()
	c.handler.SlaveId = unitID
	c.mu.Unlock()

	return c, nil
}

func (c *Client) ReadHoldingRegisters(ctx context.Context, addr, qty uint16) ([]uint16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, transport.ErrNotConnected
	}

	b, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, c.classify(err, &transport.ProtocolError{Op: "read", Address: addr, Count: qty})
	}
	if len(b) != int(qty)*2 {
		return nil, &transport.ProtocolError{
			Op: "read", Address: addr, Count: qty,
			Err: fmt.Errorf("short response: %d bytes", len(b)),
		}
	}
	return unpackRegisters(b), nil
}

func (c *Client) WriteRegister(ctx context.Context, addr, value uint16) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return transport.ErrNotConnected
	}

	if _, err := c.client.WriteSingleRegister(addr, value); err != nil {
		return c.classify(err, &transport.ProtocolError{Op: "write", Address: addr, Values: []uint16{value}})
	}
	return nil
}

func (c *Client) WriteRegisters(ctx context.Context, addr uint16, values []uint16) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return transport.ErrNotConnected
	}

	qty := uint16(len(values))
	payload := packRegisters(values)

	if _, err := c.client.WriteMultipleRegisters(addr, qty, payload); err != nil {
		return c.classify(err, &transport.ProtocolError{Op: "write_multiple", Address: addr, Count: qty, Values: values})
	}
	return nil
}

// classify maps an exception response onto pe and anything else onto a
// connection failure. On connection failure the handler is dropped so the
// next Connect dials fresh. Caller holds mu.
func (c *Client) classify(err error, pe *transport.ProtocolError) error {
	var me *modbus.ModbusError
	if errors.As(err, &me) {
		pe.Code = me.ExceptionCode
		pe.Err = err
		return pe
	}

	_ = c.handler.Close()
	c.connected = false
	return &transport.ConnectionError{Endpoint: c.endpoint, Err: err}
}

func unpackRegisters(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return out
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
