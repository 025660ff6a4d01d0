// internal/transport/simonvetter/client.go
package simonvetter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/simonvetter/modbus"

	"github.com/titovskiy/NeptunSmart/internal/transport"
)

// Client wraps a simonvetter ModbusClient over TCP.
// The unit id is set on the client and applies to later requests.
type Client struct {
	mu       sync.Mutex
	endpoint string
	mc       *modbus.ModbusClient
	open     bool
}

type Config struct {
	Endpoint string // host:port
	Timeout  time.Duration
}

// New prepares a client. No connection is opened until Connect.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("simonvetter: endpoint required")
	}

	url := cfg.Endpoint
	if !strings.Contains(url, "://") {
		url = "tcp://" + url
	}

	mc, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     url,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("simonvetter: client setup: %w", err)
	}

	return &Client{endpoint: cfg.Endpoint, mc: mc}, nil
}

func (c *Client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open {
		_ = c.mc.Close()
	}
	if err := c.mc.Open(); err != nil {
		c.open = false
		return &transport.ConnectionError{Endpoint: c.endpoint, Err: err}
	}
	c.open = true
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil
	}
	c.open = false
	return c.mc.Close()
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// BindUnit supports the sticky "unit" convention only (SetUnitId).
func (c *Client) BindUnit(b transport.Binding, unitID uint8) (transport.Client, error) {
	if b.Name != "unit" || b.Style != transport.StyleSticky {
		return nil, fmt.Errorf("simonvetter %s: %w", b, transport.ErrUnsupportedBinding)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mc.SetUnitId(unitID); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ReadHoldingRegisters(ctx context.Context, addr, qty uint16) ([]uint16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, transport.ErrNotConnected
	}

	regs, err := c.mc.ReadRegisters(addr, qty, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, c.classify(err, &transport.ProtocolError{Op: "read", Address: addr, Count: qty})
	}
	return regs, nil
}

func (c *Client) WriteRegister(ctx context.Context, addr, value uint16) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return transport.ErrNotConnected
	}

	if err := c.mc.WriteRegister(addr, value); err != nil {
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

	if !c.open {
		return transport.ErrNotConnected
	}

	if err := c.mc.WriteRegisters(addr, values); err != nil {
		return c.classify(err, &transport.ProtocolError{
			Op: "write_multiple", Address: addr, Count: uint16(len(values)), Values: values,
		})
	}
	return nil
}

// exceptionCodes maps library sentinels back onto Modbus exception codes.
var exceptionCodes = []struct {
	err  error
	code uint8
}{
	{modbus.ErrIllegalFunction, 0x01},
	{modbus.ErrIllegalDataAddress, 0x02},
	{modbus.ErrIllegalDataValue, 0x03},
	{modbus.ErrServerDeviceFailure, 0x04},
	{modbus.ErrAcknowledge, 0x05},
	{modbus.ErrServerDeviceBusy, 0x06},
	{modbus.ErrMemoryParityError, 0x08},
	{modbus.ErrGWPathUnavailable, 0x0A},
	{modbus.ErrGWTargetFailedToRespond, 0x0B},
}

// classify keeps the connection for device exceptions and malformed
// parameters; everything else closes it. Caller holds mu.
func (c *Client) classify(err error, pe *transport.ProtocolError) error {
	for _, ec := range exceptionCodes {
		if errors.Is(err, ec.err) {
			pe.Code = ec.code
			pe.Err = err
			return pe
		}
	}
	if errors.Is(err, modbus.ErrUnexpectedParameters) || errors.Is(err, modbus.ErrBadUnitId) {
		pe.Err = err
		return pe
	}

	_ = c.mc.Close()
	c.open = false
	return &transport.ConnectionError{Endpoint: c.endpoint, Err: err}
}
