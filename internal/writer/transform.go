// internal/writer/transform.go
package writer

import "github.com/titovskiy/NeptunSmart/internal/registers"

// Transform computes a new register value from the live current value.
// The result is clamped to 0..0xFFFF by the caller.
type Transform func(current int) int

// Clamp bounds a transform result to one register word.
func Clamp(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

// SetMask sets every bit of mask.
func SetMask(mask uint16) Transform {
	return func(cur int) int {
		return int(registers.SetBits(uint16(cur), mask))
	}
}

// ClearMask clears every bit of mask.
func ClearMask(mask uint16) Transform {
	return func(cur int) int {
		return int(registers.ClearBits(uint16(cur), mask))
	}
}

// MaskValue replaces the width-bit field at shift with value.
func MaskValue(shift, width uint, value uint16) Transform {
	f := registers.Field{Shift: shift, Width: width}
	return func(cur int) int {
		return int(f.Encode(uint16(cur), value))
	}
}

// ------------------------------------------------------------
// ZONE 1
// ------------------------------------------------------------

// ZoneOneOn opens zone 1.
// Single-zone mode drives both valve bits; dual-zone mode only bit 8.
// The decision reads the dual-zone bit of the value passed in.
func ZoneOneOn(cur int) int {
	v := uint16(cur)
	if v&registers.BitDualZoneMode == 0 {
		return int(registers.SetBits(v, registers.MaskZoneBoth))
	}
	return int(registers.SetBits(v, registers.BitZone1))
}

// ZoneOneOff mirrors ZoneOneOn.
func ZoneOneOff(cur int) int {
	v := uint16(cur)
	if v&registers.BitDualZoneMode == 0 {
		return int(registers.ClearBits(v, registers.MaskZoneBoth))
	}
	return int(registers.ClearBits(v, registers.BitZone1))
}
