// internal/writer/selects.go
package writer

import (
	"fmt"

	"github.com/titovskiy/NeptunSmart/internal/registers"
)

// Option is one selectable code and its label.
type Option struct {
	Code  uint16
	Label string
}

// Select is a plain enumeration descriptor over one register field.
type Select struct {
	Key     string
	Name    string
	Address uint16
	DataKey string
	Field   registers.Field
	Options []Option
}

// Current returns the label for the field value inside word.
func (s Select) Current(word uint16) (string, bool) {
	code := s.Field.Raw(word)
	for _, o := range s.Options {
		if o.Code == code {
			return o.Label, true
		}
	}
	return "", false
}

// Code resolves a label.
func (s Select) Code(label string) (uint16, error) {
	for _, o := range s.Options {
		if o.Label == label {
			return o.Code, nil
		}
	}
	return 0, invalid(s.Key+" option", label, "unknown option")
}

// Labels lists option labels in table order.
func (s Select) Labels() []string {
	out := make([]string, 0, len(s.Options))
	for _, o := range s.Options {
		out = append(out, o.Label)
	}
	return out
}

// Transform writes code into the field and keeps the other bits.
func (s Select) Transform(code uint16) Transform {
	return MaskValue(s.Field.Shift, s.Field.Width, code)
}

// ------------------------------------------------------------
// OPTION TABLES
// ------------------------------------------------------------

var (
	StepOptions = []Option{{1, "1"}, {10, "10"}, {100, "100"}}

	LineTypeOptions = []Option{{0, "Sensors"}, {1, "Button"}}

	GroupOptions = []Option{{0, "None"}, {1, "Group 1"}, {2, "Group 2"}, {3, "Group 1 + 2"}}

	ConnectionOptions = []Option{{0, "Normal"}, {1, "Namur"}}

	BaudOptions = []Option{
		{0x00, "1200"},
		{0x01, "2400"},
		{0x02, "4800"},
		{0x03, "9600"},
		{0x04, "19200"},
		{0x05, "38400"},
		{0x06, "57600"},
		{0x07, "115200"},
		{0x08, "230400"},
		{0x09, "460800"},
		{0x0A, "921600"},
	}
)

// ------------------------------------------------------------
// DESCRIPTORS
// ------------------------------------------------------------

// LineTypeSelect is the sensor/button input type of line n.
func LineTypeSelect(line int) Select {
	return Select{
		Key:     fmt.Sprintf("line_%d_type", line),
		Name:    fmt.Sprintf("Line %d Input Type", line),
		Address: registers.LineConfigAddress(line),
		DataKey: registers.LineConfigKey(line),
		Field:   registers.LineTypeField(line),
		Options: LineTypeOptions,
	}
}

// LineGroupSelect is the valve group line n closes.
func LineGroupSelect(line int) Select {
	return Select{
		Key:     fmt.Sprintf("line_%d_group", line),
		Name:    fmt.Sprintf("Line %d Valve Group", line),
		Address: registers.LineConfigAddress(line),
		DataKey: registers.LineConfigKey(line),
		Field:   registers.LineGroupField(line),
		Options: GroupOptions,
	}
}

func relaySelect(f registers.Field, name string) Select {
	return Select{
		Key:     f.Key,
		Name:    name,
		Address: registers.RelayConfig,
		DataKey: "relay_cfg_raw",
		Field:   f,
		Options: GroupOptions,
	}
}

// BaudSelect is the controller's own RS-485 baud rate code.
func BaudSelect() Select {
	return Select{
		Key:     "modbus_baud",
		Name:    "Modbus Baud Rate",
		Address: registers.ModbusConfig,
		DataKey: "modbus_cfg_raw",
		Field:   registers.ModbusConfigFields[1],
		Options: BaudOptions,
	}
}

// CounterStepSelect is the pulse weight of counter i.
func CounterStepSelect(i int) Select {
	return Select{
		Key:     fmt.Sprintf("counter_%d_step", i),
		Name:    fmt.Sprintf("Counter %d Step", i),
		Address: registers.CounterSettingsAddress(i),
		DataKey: fmt.Sprintf("counter_%d_cfg_raw", i),
		Field:   registers.CounterStepField,
		Options: StepOptions,
	}
}

// CounterConnectionSelect is the normal/namur input mode of counter i.
func CounterConnectionSelect(i int) Select {
	return Select{
		Key:     fmt.Sprintf("counter_%d_connection_type_select", i),
		Name:    fmt.Sprintf("Counter %d Connection Type", i),
		Address: registers.CounterSettingsAddress(i),
		DataKey: fmt.Sprintf("counter_%d_cfg_raw", i),
		Field:   registers.CounterConnectionField,
		Options: ConnectionOptions,
	}
}

// WirelessGroupSelect is the valve group wireless sensor i closes.
func WirelessGroupSelect(i int) Select {
	return Select{
		Key:     fmt.Sprintf("wireless_%d_group", i),
		Name:    fmt.Sprintf("Wireless Sensor %d Group", i),
		Address: registers.WirelessParamsAddress(i),
		DataKey: fmt.Sprintf("wireless_%d_cfg_raw", i),
		Field:   registers.WirelessGroupField,
		Options: GroupOptions,
	}
}

// Selects lists the fixed selects plus the per-counter and per-sensor ones.
func Selects(counters, wireless []int) []Select {
	out := make([]Select, 0, 11+2*len(counters)+len(wireless))
	for line := 1; line <= registers.LeakLines; line++ {
		out = append(out, LineTypeSelect(line), LineGroupSelect(line))
	}
	out = append(out,
		relaySelect(registers.RelayConfigFields[0], "Relay on Alarm Group"),
		relaySelect(registers.RelayConfigFields[1], "Relay on Valve Close Group"),
		BaudSelect(),
	)
	for _, i := range counters {
		out = append(out, CounterStepSelect(i), CounterConnectionSelect(i))
	}
	for _, i := range wireless {
		out = append(out, WirelessGroupSelect(i))
	}
	return out
}

var selectIndex = func() map[string]Select {
	m := make(map[string]Select)
	all := make([]int, 0, registers.MaxWirelessSensors)
	for i := 1; i <= registers.MaxWirelessSensors; i++ {
		all = append(all, i)
	}
	for _, s := range Selects(all[:registers.Counters], all) {
		m[s.Key] = s
	}
	return m
}()

// LookupSelect resolves a select key.
func LookupSelect(key string) (Select, error) {
	s, ok := selectIndex[key]
	if !ok {
		return Select{}, invalid("select", key, "unknown key")
	}
	return s, nil
}
