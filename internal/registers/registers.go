// internal/registers/registers.go
package registers

import "fmt"

// Holding register layout of the Neptun Smart controller.
// These values define the device protocol and MUST NOT be configurable.

// ---- LEADING BLOCK (0..6) ----

const (
	AlarmMode           uint16 = 0
	LineConfig12        uint16 = 1
	LineConfig34        uint16 = 2
	LeakSensorRaw       uint16 = 3
	RelayConfig         uint16 = 4
	ModbusConfig        uint16 = 5
	WirelessSensorCount uint16 = 6
)

// HeadCount is the size of the leading block read in one request.
const HeadCount uint16 = 7

// ---- WIRELESS SENSORS ----

// WirelessParamsStart holds one config word (group in the low byte) per sensor.
const WirelessParamsStart uint16 = 7

// WirelessSensorsStart holds one packed status word per sensor.
const WirelessSensorsStart uint16 = 57

// MaxWirelessSensors caps the reported sensor count.
const MaxWirelessSensors = 50

// ---- WATER COUNTERS ----

// WaterCountersStart is the first of 8 hi/lo register pairs.
const WaterCountersStart uint16 = 107

// WaterCountersCount is the number of words read for all counters.
const WaterCountersCount uint16 = 16

// ---- COUNTER SETTINGS ----

// CounterSettingsStart is the config word of counter 1.
const CounterSettingsStart uint16 = 123

// CounterSettingsCount is the number of counter config words.
const CounterSettingsCount uint16 = 8

// Counters is the number of counter modules.
const Counters = 8

// LeakLines is the number of wired leak-sensor lines.
const LeakLines = 4

// Size is the number of holding registers the controller exposes.
const Size = CounterSettingsStart + CounterSettingsCount

// ---- INDEX HELPERS ----

// CounterSettingsAddress returns the config register of counter i (1-based).
func CounterSettingsAddress(i int) uint16 {
	return CounterSettingsStart + uint16(i-1)
}

// WaterCounterAddress returns the high word register of counter i (1-based).
func WaterCounterAddress(i int) uint16 {
	return WaterCountersStart + uint16(i-1)*2
}

// WaterCounterSlotPort maps a counter index onto its module slot and port.
func WaterCounterSlotPort(i int) (slot, port int) {
	slot = (i-1)/2 + 1
	port = 2
	if i%2 == 1 {
		port = 1
	}
	return slot, port
}

// WaterCounterKey returns the snapshot key of counter i.
func WaterCounterKey(i int) string {
	slot, port := WaterCounterSlotPort(i)
	return fmt.Sprintf("water_counter_s%d_p%d", slot, port)
}

// WirelessParamsAddress returns the config register of wireless sensor i (1-based).
func WirelessParamsAddress(i int) uint16 {
	return WirelessParamsStart + uint16(i-1)
}

// LineConfigAddress returns the packed config register holding line n (1..4).
func LineConfigAddress(line int) uint16 {
	if line <= 2 {
		return LineConfig12
	}
	return LineConfig34
}

// LineConfigKey returns the snapshot raw key of the register holding line n.
func LineConfigKey(line int) string {
	if line <= 2 {
		return "line_cfg_1_2_raw"
	}
	return "line_cfg_3_4_raw"
}

// LineTypeShift is 10 for the first line of a pair and 2 for the second.
func LineTypeShift(line int) uint {
	if line%2 == 1 {
		return 10
	}
	return 2
}

// LineGroupShift is 8 for the first line of a pair and 0 for the second.
func LineGroupShift(line int) uint {
	if line%2 == 1 {
		return 8
	}
	return 0
}
