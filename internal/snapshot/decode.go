// internal/snapshot/decode.go
package snapshot

import (
	"fmt"
	"time"

	"github.com/titovskiy/NeptunSmart/internal/registers"
)

// Batch is the raw word set of one poll cycle.
// Geometry only: no semantics.
type Batch struct {
	Head            []uint16 // registers 0..6
	WirelessParams  []uint16 // one word per reported sensor, may be empty
	WirelessStatus  []uint16 // one word per reported sensor, may be empty
	WaterCounters   []uint16 // 8 hi/lo pairs
	CounterSettings []uint16 // 8 config words
}

// Options tune decoding.
type Options struct {
	// IgnoreZeroCounters keeps the last non-zero value of a counter
	// that momentarily reads as zero.
	IgnoreZeroCounters bool

	// Seed supplies last-known counter values when there is no previous snapshot.
	Seed map[string]float64

	// Calibrated lists counter keys overwritten since the previous snapshot.
	// Their zero is a real value and is never replaced.
	Calibrated map[string]struct{}
}

// New builds a snapshot from an explicit field map. The map is copied.
func New(at time.Time, fields map[string]any) *Snapshot {
	cp := make(map[string]any, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return &Snapshot{At: at, fields: cp}
}

// Decode turns one batch into a snapshot.
// All derived fields come from the same batch. No IO.
func Decode(b Batch, at time.Time, prev *Snapshot, opts Options) (*Snapshot, error) {
	if len(b.Head) != int(registers.HeadCount) {
		return nil, fmt.Errorf("snapshot: head block has %d words, want %d", len(b.Head), registers.HeadCount)
	}
	if len(b.WaterCounters) != int(registers.WaterCountersCount) {
		return nil, fmt.Errorf("snapshot: water counter block has %d words, want %d", len(b.WaterCounters), registers.WaterCountersCount)
	}
	if len(b.CounterSettings) != int(registers.CounterSettingsCount) {
		return nil, fmt.Errorf("snapshot: counter settings block has %d words, want %d", len(b.CounterSettings), registers.CounterSettingsCount)
	}

	d := make(map[string]any, 64)

	// ------------------------------------------------------------
	// LEADING BLOCK
	// ------------------------------------------------------------

	alarm := b.Head[registers.AlarmMode]
	line12 := b.Head[registers.LineConfig12]
	line34 := b.Head[registers.LineConfig34]
	leak := b.Head[registers.LeakSensorRaw]
	relay := b.Head[registers.RelayConfig]
	mbcfg := b.Head[registers.ModbusConfig]
	wireless := b.Head[registers.WirelessSensorCount]

	d["alarm_mode_raw"] = int(alarm)
	d["line_cfg_1_2_raw"] = int(line12)
	d["line_cfg_3_4_raw"] = int(line34)
	d["leak_sensor_raw"] = int(leak)
	d["relay_cfg_raw"] = int(relay)
	d["modbus_cfg_raw"] = int(mbcfg)
	d["wireless_sensor_count"] = int(wireless)
	d["dual_zone_mode"] = alarm&registers.BitDualZoneMode != 0

	for _, f := range registers.ModbusConfigFields {
		d[f.Key] = f.Decode(mbcfg)
	}
	for _, f := range registers.RelayConfigFields {
		d[f.Key] = f.Decode(relay)
	}

	// ------------------------------------------------------------
	// LINES
	// ------------------------------------------------------------

	detected := 1
	for line := 1; line <= registers.LeakLines; line++ {
		word := line12
		if line > 2 {
			word = line34
		}
		typ := registers.LineTypeField(line).Raw(word)
		grp := registers.LineGroupField(line).Raw(word)

		d[fmt.Sprintf("line_%d_type", line)] = int(typ)
		d[fmt.Sprintf("line_%d_group", line)] = int(grp)

		leakActive := leak&(1<<uint(line-1)) != 0
		if leakActive || typ != 0 || grp != 0 {
			detected = line
		}
	}
	d["detected_leak_lines"] = detected

	// ------------------------------------------------------------
	// WIRELESS (absent entirely when none reported)
	// ------------------------------------------------------------

	if wireless > 0 {
		for i, w := range b.WirelessParams {
			idx := i + 1
			d[wirelessKey(idx, "cfg_raw")] = int(w)
			d[wirelessKey(idx, registers.WirelessGroupField.Key)] = registers.WirelessGroupField.Decode(w)
		}
		for i, w := range b.WirelessStatus {
			idx := i + 1
			d[wirelessKey(idx, "raw")] = int(w)
			for _, f := range registers.WirelessStatusFields {
				d[wirelessKey(idx, f.Key)] = f.Decode(w)
			}
		}
	}

	// ------------------------------------------------------------
	// WATER COUNTERS
	// ------------------------------------------------------------

	for i := 0; i < len(b.WaterCounters); i += 2 {
		idx := i/2 + 1
		key := registers.WaterCounterKey(idx)
		v := CounterValue(b.WaterCounters[i], b.WaterCounters[i+1])

		_, calibrated := opts.Calibrated[key]
		if opts.IgnoreZeroCounters && v == 0 && !calibrated {
			if last, ok := lastCounter(prev, opts.Seed, key); ok {
				v = last
			}
		}
		d[key] = v
	}

	// ------------------------------------------------------------
	// COUNTER SETTINGS
	// ------------------------------------------------------------

	enabled := 0
	for i, w := range b.CounterSettings {
		idx := i + 1
		d[counterKey(idx, "cfg_raw")] = int(w)
		for _, f := range registers.CounterFields {
			d[counterKey(idx, f.Key)] = f.Decode(w)
		}
		if w&registers.BitCounterEnabled != 0 {
			enabled++
		}
	}
	d["detected_counters"] = enabled

	return &Snapshot{At: at, fields: d}, nil
}

// CounterValue combines a hi/lo pair into cubic meters.
// The pair is a signed 32-bit big-endian count of liters.
func CounterValue(hi, lo uint16) float64 {
	raw := int32(uint32(hi)<<16 | uint32(lo))
	return float64(raw) / 1000
}

func lastCounter(prev *Snapshot, seed map[string]float64, key string) (float64, bool) {
	if v, ok := prev.Float(key); ok && v != 0 {
		return v, true
	}
	if prev == nil {
		if v, ok := seed[key]; ok && v != 0 {
			return v, true
		}
	}
	return 0, false
}

func wirelessKey(i int, suffix string) string {
	return fmt.Sprintf("wireless_%d_%s", i, suffix)
}

func counterKey(i int, suffix string) string {
	return fmt.Sprintf("counter_%d_%s", i, suffix)
}
