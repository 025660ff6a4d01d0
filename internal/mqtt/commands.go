// internal/mqtt/commands.go
package mqtt

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Controller is the write surface the bridge drives. The session implements it.
type Controller interface {
	SetSwitch(ctx context.Context, key string, on bool) error
	SelectOption(ctx context.Context, key, label string) error
	WriteCounterStep(ctx context.Context, index, step int) error
	WriteCounterCalibration(ctx context.Context, index int, m3 float64) error
	RequestRefresh()
}

// Dispatch executes one inbound command message against ctl.
func Dispatch(ctx context.Context, ctl Controller, topics Topics, topic string, payload []byte) error {
	cmd, err := topics.Parse(topic)
	if err != nil {
		return err
	}
	p := strings.TrimSpace(string(payload))

	switch cmd.Kind {
	case CmdRefresh:
		ctl.RequestRefresh()
		return nil

	case CmdSwitch:
		on, err := parseSwitch(p)
		if err != nil {
			return err
		}
		return ctl.SetSwitch(ctx, cmd.Key, on)

	case CmdSelect:
		return ctl.SelectOption(ctx, cmd.Key, p)

	case CmdCounterStep:
		step, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("mqtt: step %q: %w", p, err)
		}
		return ctl.WriteCounterStep(ctx, cmd.Counter, step)

	case CmdCounterCalibration:
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return fmt.Errorf("mqtt: calibration %q: %w", p, err)
		}
		return ctl.WriteCounterCalibration(ctx, cmd.Counter, v)
	}

	return fmt.Errorf("mqtt: unhandled command on %q", topic)
}

func parseSwitch(p string) (bool, error) {
	switch strings.ToLower(p) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("mqtt: switch payload %q: want ON or OFF", p)
}
