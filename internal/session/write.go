// internal/session/write.go
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/titovskiy/NeptunSmart/internal/registers"
	"github.com/titovskiy/NeptunSmart/internal/writer"
)

// Apply runs a locked read-modify-write of one register.
//
// The current value comes from the latest snapshot field dataKey when present
// and not written since, otherwise from a single-register read. An unchanged
// result issues no write and no refresh. After a write the lock is released
// and a refresh is requested without waiting for it.
func (s *Session) Apply(ctx context.Context, address uint16, dataKey string, tr writer.Transform) error {
	if tr == nil {
		return &writer.ValidationError{Field: "transform", Value: nil, Reason: "required"}
	}

	var changed bool
	err := s.withLock(ctx, func() error {
		c, err := s.ensureConnected(ctx)
		if err != nil {
			return err
		}
		defer s.settle()

		cur, ok := s.cached(address, dataKey)
		if !ok {
			regs, err := c.ReadHoldingRegisters(ctx, address, 1)
			if err != nil {
				return err
			}
			if len(regs) != 1 {
				return errors.New("session: empty single register read")
			}
			cur = regs[0]
		}

		next := writer.Clamp(tr(int(cur)))
		if next == cur {
			s.log.Debug().Uint16("address", address).Uint16("value", cur).Msg("write skipped, value unchanged")
			return nil
		}

		if err := c.WriteRegister(ctx, address, next); err != nil {
			return err
		}
		s.dirty[address] = struct{}{}
		changed = true

		s.log.Info().Uint16("address", address).Uint16("from", cur).Uint16("to", next).Msg("register written")
		return nil
	})

	if changed || err != nil {
		s.observeWrite("register", err)
	}
	if err != nil {
		return err
	}
	if changed {
		s.RequestRefresh()
	}
	return nil
}

// cached returns the snapshot value for dataKey unless address was written
// after that snapshot. Caller holds the lock.
func (s *Session) cached(address uint16, dataKey string) (uint16, bool) {
	if _, stale := s.dirty[address]; stale {
		return 0, false
	}
	return s.current.Load().Raw(dataKey)
}

// ApplyAlarmMode transforms the alarm/mode register.
func (s *Session) ApplyAlarmMode(ctx context.Context, tr writer.Transform) error {
	return s.Apply(ctx, registers.AlarmMode, "alarm_mode_raw", tr)
}

// WriteCounterStep sets the pulse weight of counter index (1..8) to 1, 10 or 100.
// Invalid arguments are rejected before the lock is touched.
func (s *Session) WriteCounterStep(ctx context.Context, index, step int) error {
	if err := writer.ValidateCounterIndex(index); err != nil {
		return err
	}
	if err := writer.ValidateStep(step); err != nil {
		return err
	}
	return s.Apply(ctx, registers.CounterSettingsAddress(index), counterCfgKey(index), writer.CounterStep(step))
}

// WriteCounterCalibration overwrites the running total of counter index.
// Direct two-register write under the lock; no read-modify-write.
func (s *Session) WriteCounterCalibration(ctx context.Context, index int, m3 float64) error {
	if err := writer.ValidateCounterIndex(index); err != nil {
		return err
	}
	hi, lo, err := writer.EncodeCalibration(m3)
	if err != nil {
		return err
	}

	address := registers.WaterCounterAddress(index)

	err = s.withLock(ctx, func() error {
		c, err := s.ensureConnected(ctx)
		if err != nil {
			return err
		}
		defer s.settle()

		if err := c.WriteRegisters(ctx, address, []uint16{hi, lo}); err != nil {
			return err
		}
		s.dirty[address] = struct{}{}
		s.dirty[address+1] = struct{}{}

		s.log.Info().Int("counter", index).Float64("m3", m3).Uint16("hi", hi).Uint16("lo", lo).Msg("counter calibrated")
		return nil
	})

	s.observeWrite("calibration", err)
	if err != nil {
		return err
	}
	s.RequestRefresh()
	return nil
}

// SetSwitch drives a named switch on or off.
func (s *Session) SetSwitch(ctx context.Context, key string, on bool) error {
	sw, err := writer.LookupSwitch(key)
	if err != nil {
		return err
	}

	if sw.RequiresDualZone {
		alarm, ok := s.current.Load().Raw("alarm_mode_raw")
		if !ok || !sw.Available(alarm) {
			return &writer.ValidationError{Field: "switch", Value: key, Reason: "available only in dual zone mode"}
		}
	}

	return s.Apply(ctx, sw.Address, sw.DataKey, sw.Transform(on))
}

// SelectOption sets a named select to the option with label.
func (s *Session) SelectOption(ctx context.Context, key, label string) error {
	sel, err := writer.LookupSelect(key)
	if err != nil {
		return err
	}
	code, err := sel.Code(label)
	if err != nil {
		return err
	}
	return s.Apply(ctx, sel.Address, sel.DataKey, sel.Transform(code))
}

func (s *Session) observeWrite(op string, err error) {
	if s.cfg.OnWrite != nil {
		s.cfg.OnWrite(op, err)
	}
}

func counterCfgKey(i int) string {
	return fmt.Sprintf("counter_%d_cfg_raw", i)
}
