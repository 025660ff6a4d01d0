// internal/session/poll.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/titovskiy/NeptunSmart/internal/registers"
	"github.com/titovskiy/NeptunSmart/internal/snapshot"
	"github.com/titovskiy/NeptunSmart/internal/transport"
)

// PollOnce performs exactly one read cycle and publishes the result.
// All-or-nothing: any failure aborts the cycle and keeps the previous snapshot.
func (s *Session) PollOnce(ctx context.Context) (*snapshot.Snapshot, error) {
	var snap *snapshot.Snapshot

	err := s.withLock(ctx, func() error {
		c, err := s.ensureConnected(ctx)
		if err != nil {
			return err
		}

		s.setState(StatePolling)
		defer s.settle()

		b, err := readBatch(ctx, c)
		if err != nil {
			return err
		}

		snap, err = snapshot.Decode(b, time.Now(), s.current.Load(), snapshot.Options{
			IgnoreZeroCounters: s.cfg.IgnoreZeroCounters,
			Seed:               s.cfg.Seed,
			Calibrated:         s.calibratedKeys(),
		})
		if err != nil {
			return err
		}

		if !s.publish(snap) {
			snap = nil
			return ErrClosed
		}
		// the cache is fresh again
		clear(s.dirty)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// readBatch issues the fixed read sequence against c.
func readBatch(ctx context.Context, c transport.Client) (snapshot.Batch, error) {
	var b snapshot.Batch
	var err error

	b.Head, err = c.ReadHoldingRegisters(ctx, registers.AlarmMode, registers.HeadCount)
	if err != nil {
		return b, err
	}
	if len(b.Head) != int(registers.HeadCount) {
		return b, &transport.ProtocolError{
			Op: "read", Address: registers.AlarmMode, Count: registers.HeadCount,
			Err: fmt.Errorf("got %d registers", len(b.Head)),
		}
	}

	if n := b.Head[registers.WirelessSensorCount]; n > 0 {
		if n > registers.MaxWirelessSensors {
			n = registers.MaxWirelessSensors
		}
		b.WirelessParams, err = c.ReadHoldingRegisters(ctx, registers.WirelessParamsStart, n)
		if err != nil {
			return b, err
		}
		b.WirelessStatus, err = c.ReadHoldingRegisters(ctx, registers.WirelessSensorsStart, n)
		if err != nil {
			return b, err
		}
	}

	b.WaterCounters, err = c.ReadHoldingRegisters(ctx, registers.WaterCountersStart, registers.WaterCountersCount)
	if err != nil {
		return b, err
	}

	b.CounterSettings, err = c.ReadHoldingRegisters(ctx, registers.CounterSettingsStart, registers.CounterSettingsCount)
	if err != nil {
		return b, err
	}

	return b, nil
}

// calibratedKeys names the counters written since the last snapshot.
// Caller holds the lock.
func (s *Session) calibratedKeys() map[string]struct{} {
	var keys map[string]struct{}
	for i := 1; i <= registers.Counters; i++ {
		if _, ok := s.dirty[registers.WaterCounterAddress(i)]; !ok {
			continue
		}
		if keys == nil {
			keys = make(map[string]struct{})
		}
		keys[registers.WaterCounterKey(i)] = struct{}{}
	}
	return keys
}
