// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/titovskiy/NeptunSmart/internal/snapshot"
)

// Interval bounds accepted by the poller.
const (
	MinInterval     = 5 * time.Second
	MaxInterval     = 3600 * time.Second
	DefaultInterval = 30 * time.Second
)

// Source is what the poller drives. The session implements it.
type Source interface {
	PollOnce(ctx context.Context) (*snapshot.Snapshot, error)
	Refreshes() <-chan struct{}
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Device   string
	Interval time.Duration
}

// Poller is a dumb, clock-driven reader.
// All device semantics live in the source.
type Poller struct {
	cfg    Config
	source Source
}

// New creates a poller with immutable config.
func New(cfg Config, source Source) (*Poller, error) {
	if cfg.Device == "" {
		return nil, errors.New("poller: device name required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if source == nil {
		return nil, errors.New("poller: source required")
	}
	return &Poller{cfg: cfg, source: source}, nil
}

// Interval returns the configured tick period.
func (p *Poller) Interval() time.Duration {
	return p.cfg.Interval
}

// PollOnce performs exactly one poll cycle.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	start := time.Now()
	snap, err := p.source.PollOnce(ctx)

	res := PollResult{
		Device:   p.cfg.Device,
		At:       start,
		Duration: time.Since(start),
	}
	if err != nil {
		res.Err = err
		return res
	}
	res.Snapshot = snap
	return res
}
