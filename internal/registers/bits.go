// internal/registers/bits.go
package registers

// ---- ALARM / MODE REGISTER BITS ----

const (
	BitFloorWashing            uint16 = 1 << 0
	BitAlarmZone1              uint16 = 1 << 1
	BitAlarmZone2              uint16 = 1 << 2
	BitBatteryDrain            uint16 = 1 << 3
	BitLostConnection          uint16 = 1 << 4
	BitCloseGroup1OnSensorLoss uint16 = 1 << 5
	BitCloseGroup2OnSensorLoss uint16 = 1 << 6
	BitWirelessPairing         uint16 = 1 << 7
	BitZone1                   uint16 = 1 << 8
	BitZone2                   uint16 = 1 << 9
	BitDualZoneMode            uint16 = 1 << 10
	BitCloseTapsOnSensorLost   uint16 = 1 << 11
	BitKeypadLock              uint16 = 1 << 12
)

// MaskZoneBoth drives both valve groups at once.
const MaskZoneBoth = BitZone1 | BitZone2

// ---- COUNTER CONFIG BITS ----

// BitCounterEnabled is bit0 of a counter config word.
const BitCounterEnabled uint16 = 1 << 0

// SetBits returns v with every bit of mask set.
func SetBits(v, mask uint16) uint16 {
	return v | mask
}

// ClearBits returns v with every bit of mask cleared.
func ClearBits(v, mask uint16) uint16 {
	return v &^ mask
}

// Mask returns a width-bit mask placed at shift.
func Mask(shift, width uint) uint16 {
	return uint16((uint32(1)<<width)-1) << shift
}
