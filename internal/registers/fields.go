// internal/registers/fields.go
package registers

// Kind selects how a decoded field is presented.
type Kind uint8

const (
	KindUint      Kind = iota // small enumeration or raw byte
	KindBool                  // width-1 flag
	KindPercent25             // 3-bit level scaled to 0..175 in steps of 25
)

// Field is a plain bit-field descriptor: (key, shift, width, kind).
// No IO. No side effects.
type Field struct {
	Key   string
	Shift uint
	Width uint
	Kind  Kind
}

// Mask returns the in-register mask of the field.
func (f Field) Mask() uint16 {
	return Mask(f.Shift, f.Width)
}

// Raw extracts the unscaled field value from word.
func (f Field) Raw(word uint16) uint16 {
	return (word & f.Mask()) >> f.Shift
}

// Decode extracts the field from word as int or bool depending on Kind.
func (f Field) Decode(word uint16) any {
	raw := f.Raw(word)
	switch f.Kind {
	case KindBool:
		return raw != 0
	case KindPercent25:
		return int(raw) * 25
	default:
		return int(raw)
	}
}

// Encode replaces the field inside word with value, leaving other bits intact.
func (f Field) Encode(word, value uint16) uint16 {
	m := f.Mask()
	return (word &^ m) | ((value << f.Shift) & m)
}

// ------------------------------------------------------------
// FIELD TABLES
// ------------------------------------------------------------

// WirelessStatusFields decode one wireless sensor status word.
// Keys are suffixes of "wireless_<i>_".
var WirelessStatusFields = []Field{
	{Key: "alarm", Shift: 0, Width: 1, Kind: KindBool},
	{Key: "category", Shift: 1, Width: 1, Kind: KindBool},
	{Key: "loss", Shift: 2, Width: 1, Kind: KindBool},
	{Key: "signal", Shift: 3, Width: 3, Kind: KindPercent25},
	{Key: "battery", Shift: 8, Width: 8, Kind: KindUint},
}

// WirelessGroupField is the group byte of a wireless config word.
var WirelessGroupField = Field{Key: "group", Shift: 0, Width: 8, Kind: KindUint}

// CounterFields decode one counter config word.
// Keys are suffixes of "counter_<i>_".
var CounterFields = []Field{
	{Key: "step", Shift: 8, Width: 8, Kind: KindUint},
	{Key: "namur_error", Shift: 2, Width: 2, Kind: KindUint},
	{Key: "connection_type", Shift: 1, Width: 1, Kind: KindUint},
	{Key: "enabled", Shift: 0, Width: 1, Kind: KindBool},
	{Key: "status_code", Shift: 0, Width: 4, Kind: KindUint},
}

// CounterStepField is bits 8-15 of a counter config word.
var CounterStepField = CounterFields[0]

// CounterConnectionField is bit1 of a counter config word.
var CounterConnectionField = CounterFields[2]

// ModbusConfigFields decode the controller's own bus settings.
var ModbusConfigFields = []Field{
	{Key: "modbus_address", Shift: 8, Width: 8, Kind: KindUint},
	{Key: "modbus_baud_code", Shift: 0, Width: 8, Kind: KindUint},
}

// RelayConfigFields decode the relay output assignment.
var RelayConfigFields = []Field{
	{Key: "relay_alarm_group", Shift: 0, Width: 2, Kind: KindUint},
	{Key: "relay_close_group", Shift: 2, Width: 2, Kind: KindUint},
}

// LineTypeField returns the 2-bit type field of line n inside its pair word.
func LineTypeField(line int) Field {
	return Field{Key: "type", Shift: LineTypeShift(line), Width: 2, Kind: KindUint}
}

// LineGroupField returns the 2-bit valve group field of line n inside its pair word.
func LineGroupField(line int) Field {
	return Field{Key: "group", Shift: LineGroupShift(line), Width: 2, Kind: KindUint}
}
