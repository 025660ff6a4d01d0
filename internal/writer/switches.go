// internal/writer/switches.go
package writer

import (
	"fmt"

	"github.com/titovskiy/NeptunSmart/internal/registers"
)

// SwitchKind selects the on/off encoding of a switch.
type SwitchKind uint8

const (
	SwitchBits    SwitchKind = iota // set/clear Mask
	SwitchZoneOne                   // dual-zone dependent zone 1 rule
)

// Switch is a plain on/off descriptor over one register.
type Switch struct {
	Key     string
	Name    string
	Address uint16
	DataKey string
	Mask    uint16
	Kind    SwitchKind

	// RequiresDualZone marks switches usable only in dual-zone mode.
	RequiresDualZone bool
}

// IsOn reports the switch state from its register word.
// Multi-bit masks read as on only when every bit is set.
func (s Switch) IsOn(word uint16) bool {
	if s.Kind == SwitchZoneOne {
		return word&registers.BitZone1 != 0
	}
	return word&s.Mask == s.Mask
}

// Available reports whether the switch may be driven given the alarm/mode word.
func (s Switch) Available(alarm uint16) bool {
	if !s.RequiresDualZone {
		return true
	}
	return alarm&registers.BitDualZoneMode != 0
}

// Transform returns the read-modify-write for the requested state.
func (s Switch) Transform(on bool) Transform {
	switch {
	case s.Kind == SwitchZoneOne && on:
		return ZoneOneOn
	case s.Kind == SwitchZoneOne:
		return ZoneOneOff
	case on:
		return SetMask(s.Mask)
	default:
		return ClearMask(s.Mask)
	}
}

// ------------------------------------------------------------
// SWITCH TABLE
// ------------------------------------------------------------

func alarmSwitch(key, name string, mask uint16) Switch {
	return Switch{
		Key:     key,
		Name:    name,
		Address: registers.AlarmMode,
		DataKey: "alarm_mode_raw",
		Mask:    mask,
	}
}

var baseSwitches = []Switch{
	{
		Key:     "zona_1_switch",
		Name:    "Zona 1 Switch",
		Address: registers.AlarmMode,
		DataKey: "alarm_mode_raw",
		Mask:    registers.BitZone1,
		Kind:    SwitchZoneOne,
	},
	{
		Key:              "zona_2_switch",
		Name:             "Zona 2 Switch",
		Address:          registers.AlarmMode,
		DataKey:          "alarm_mode_raw",
		Mask:             registers.BitZone2,
		RequiresDualZone: true,
	},
	alarmSwitch("zona_1_2_switch", "Zona 1+2 Switch", registers.MaskZoneBoth),
	alarmSwitch("dual_zone_mode_switch", "Dual Zone Mode", registers.BitDualZoneMode),
	alarmSwitch("floor_washing_mode_switch", "Floor Washing Mode", registers.BitFloorWashing),
	alarmSwitch("keypad_locks_switch", "Keypad Locks", registers.BitKeypadLock),
	alarmSwitch("closing_taps_on_sensor_lost_switch", "Close Taps On Sensor Lost", registers.BitCloseTapsOnSensorLost),
	alarmSwitch("close_group_1_on_sensor_loss_switch", "Close Group 1 On Sensor Loss", registers.BitCloseGroup1OnSensorLoss),
	alarmSwitch("close_group_2_on_sensor_loss_switch", "Close Group 2 On Sensor Loss", registers.BitCloseGroup2OnSensorLoss),
	alarmSwitch("add_new_sensor_switch", "Add New Sensor", registers.BitWirelessPairing),
}

// CounterEnabledSwitch drives bit0 of counter i's config word.
func CounterEnabledSwitch(i int) Switch {
	return Switch{
		Key:     fmt.Sprintf("counter_%d_enabled_switch", i),
		Name:    fmt.Sprintf("Counter %d Enabled", i),
		Address: registers.CounterSettingsAddress(i),
		DataKey: fmt.Sprintf("counter_%d_cfg_raw", i),
		Mask:    registers.BitCounterEnabled,
	}
}

// Switches lists the alarm/mode switches plus one enable switch per counter.
func Switches(counters []int) []Switch {
	out := make([]Switch, 0, len(baseSwitches)+len(counters))
	out = append(out, baseSwitches...)
	for _, i := range counters {
		out = append(out, CounterEnabledSwitch(i))
	}
	return out
}

var switchIndex = func() map[string]Switch {
	m := make(map[string]Switch)
	for i := 1; i <= registers.Counters; i++ {
		s := CounterEnabledSwitch(i)
		m[s.Key] = s
	}
	for _, s := range baseSwitches {
		m[s.Key] = s
	}
	return m
}()

// LookupSwitch resolves a switch key.
func LookupSwitch(key string) (Switch, error) {
	s, ok := switchIndex[key]
	if !ok {
		return Switch{}, invalid("switch", key, "unknown key")
	}
	return s, nil
}
