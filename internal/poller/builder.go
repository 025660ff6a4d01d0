// internal/poller/builder.go
package poller

import (
	"fmt"

	"github.com/rs/zerolog"

	cfg "github.com/titovskiy/NeptunSmart/internal/config"
	"github.com/titovskiy/NeptunSmart/internal/session"
	"github.com/titovskiy/NeptunSmart/internal/transport"
	"github.com/titovskiy/NeptunSmart/internal/transport/goburrow"
	"github.com/titovskiy/NeptunSmart/internal/transport/simonvetter"
)

// Options carries the runtime collaborators Build cannot derive from config.
type Options struct {
	Logger zerolog.Logger

	// Seed holds last-known counter values (from history) for ignore-zero.
	Seed map[string]float64

	OnWrite func(op string, err error)
}

// NewTransport constructs the configured driver. No IO.
func NewTransport(c *cfg.Config) (transport.Client, error) {
	switch c.Modbus.Driver {
	case cfg.DriverGoburrow, "":
		return goburrow.New(goburrow.Config{
			Endpoint: c.Device.Endpoint(),
			Timeout:  c.Device.Timeout,
		})
	case cfg.DriverSimonvetter:
		return simonvetter.New(simonvetter.Config{
			Endpoint: c.Device.Endpoint(),
			Timeout:  c.Device.Timeout,
		})
	default:
		return nil, fmt.Errorf("poller: unknown driver %q", c.Modbus.Driver)
	}
}

// Build constructs the session and its Poller.
// The session owns the connection: it connects lazily on the first poll and
// reconnects on a later tick after transport death.
// The caller closes the session.
func Build(c *cfg.Config, opts Options) (*Poller, *session.Session, error) {
	client, err := NewTransport(c)
	if err != nil {
		return nil, nil, err
	}

	s, err := session.New(client, session.Config{
		UnitID:             uint8(c.Device.UnitID),
		IgnoreZeroCounters: c.Poll.IgnoreZeroCounterValues,
		Seed:               opts.Seed,
		Logger:             opts.Logger,
		OnWrite:            opts.OnWrite,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	p, err := New(
		Config{
			Device:   c.Device.Name,
			Interval: c.Poll.Interval,
		},
		s,
	)
	if err != nil {
		_ = s.Close()
		return nil, nil, err
	}

	return p, s, nil
}
