// internal/writer/transform_test.go
package writer

import (
	"errors"
	"math"
	"testing"

	"github.com/titovskiy/NeptunSmart/internal/registers"
)

func TestZoneOneOn_SingleZoneSetsBoth(t *testing.T) {
	cur := 0x0001 // floor washing, dual zone off

	got := ZoneOneOn(cur)
	if got != 0x0301 {
		t.Fatalf("got=%#04x want=0x0301", got)
	}
}

func TestZoneOneOn_DualZoneSetsOnlyBit8(t *testing.T) {
	for _, zone2 := range []int{0, 1 << 9} {
		cur := 0x0400 | zone2

		got := ZoneOneOn(cur)
		if got != cur|0x0100 {
			t.Fatalf("cur=%#04x got=%#04x", cur, got)
		}
		if got&(1<<9) != zone2 {
			t.Fatalf("zone 2 bit changed: cur=%#04x got=%#04x", cur, got)
		}
	}
}

func TestZoneOneOff(t *testing.T) {
	if got := ZoneOneOff(0x0301); got != 0x0001 {
		t.Fatalf("single zone: got=%#04x", got)
	}
	if got := ZoneOneOff(0x0700); got != 0x0600 {
		t.Fatalf("dual zone: got=%#04x", got)
	}
}

func TestMaskValue(t *testing.T) {
	tr := MaskValue(8, 2, 3)
	if got := tr(0xFCFF); got != 0xFFFF {
		t.Fatalf("got=%#04x", got)
	}
	if got := MaskValue(8, 2, 0)(0xFFFF); got != 0xFCFF {
		t.Fatalf("got=%#04x", got)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-1) != 0 || Clamp(0x1FFFF) != 0xFFFF || Clamp(42) != 42 {
		t.Fatalf("clamp out of bounds")
	}
}

// ---- counters ----

func TestCounterStepPreservesLowByte(t *testing.T) {
	got := CounterStep(100)(0x0A5B)
	if got != 0x645B {
		t.Fatalf("got=%#04x want=0x645b", got)
	}
}

func TestValidateStep(t *testing.T) {
	for _, s := range []int{1, 10, 100} {
		if err := ValidateStep(s); err != nil {
			t.Fatalf("step %d rejected: %v", s, err)
		}
	}
	for _, s := range []int{0, 2, 1000, -1} {
		var ve *ValidationError
		if err := ValidateStep(s); !errors.As(err, &ve) {
			t.Fatalf("step %d: expected ValidationError, got %v", s, err)
		}
	}
}

func TestValidateCounterIndex(t *testing.T) {
	if ValidateCounterIndex(0) == nil || ValidateCounterIndex(9) == nil {
		t.Fatalf("out of range index accepted")
	}
	if err := ValidateCounterIndex(8); err != nil {
		t.Fatalf("index 8 rejected: %v", err)
	}
}

func TestEncodeCalibration(t *testing.T) {
	cases := []struct {
		in     float64
		hi, lo uint16
	}{
		{1.2345, 0, 1234},
		{-5, 0, 0},
		{0.0005, 0, 1},
		{65.536, 1, 0},
		{2147483.647, 0x7FFF, 0xFFFF},
		{2147483.648, 0x7FFF, 0xFFFF},
		{1e12, 0x7FFF, 0xFFFF},
	}

	for _, c := range cases {
		hi, lo, err := EncodeCalibration(c.in)
		if err != nil {
			t.Fatalf("%v: err=%v", c.in, err)
		}
		if hi != c.hi || lo != c.lo {
			t.Fatalf("%v: got hi=%d lo=%d want hi=%d lo=%d", c.in, hi, lo, c.hi, c.lo)
		}
	}
}

func TestEncodeCalibrationRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		var ve *ValidationError
		if _, _, err := EncodeCalibration(v); !errors.As(err, &ve) {
			t.Fatalf("%v: expected ValidationError, got %v", v, err)
		}
	}
}

// ---- descriptors ----

func TestSwitchTable(t *testing.T) {
	s, err := LookupSwitch("zona_2_switch")
	if err != nil {
		t.Fatalf("LookupSwitch err=%v", err)
	}
	if s.Available(0) {
		t.Fatalf("zone 2 must be unavailable outside dual zone mode")
	}
	if !s.Available(registers.BitDualZoneMode) {
		t.Fatalf("zone 2 must be available in dual zone mode")
	}

	both, _ := LookupSwitch("zona_1_2_switch")
	if both.IsOn(registers.BitZone1) {
		t.Fatalf("zona_1_2 must need both bits")
	}
	if !both.IsOn(registers.MaskZoneBoth) {
		t.Fatalf("zona_1_2 should be on")
	}

	c3, err := LookupSwitch("counter_3_enabled_switch")
	if err != nil {
		t.Fatalf("counter switch lookup err=%v", err)
	}
	if c3.Address != 125 || c3.Transform(true)(0x0A00) != 0x0A01 {
		t.Fatalf("counter 3 enable switch wrong: %+v", c3)
	}

	if _, err := LookupSwitch("counter_9_enabled_switch"); err == nil {
		t.Fatalf("counter 9 must not exist")
	}
}

func TestSelectTable(t *testing.T) {
	s, err := LookupSelect("line_3_group")
	if err != nil {
		t.Fatalf("LookupSelect err=%v", err)
	}
	if s.Address != registers.LineConfig34 || s.Field.Shift != 8 {
		t.Fatalf("line 3 group wrong: %+v", s)
	}

	code, err := s.Code("Group 1 + 2")
	if err != nil || code != 3 {
		t.Fatalf("Code() = %d, %v", code, err)
	}
	if got := s.Transform(code)(0); got != 0x0300 {
		t.Fatalf("transform got=%#04x", got)
	}
	if label, ok := s.Current(0x0100); !ok || label != "Group 1" {
		t.Fatalf("Current() = %q", label)
	}

	if _, err := s.Code("Group 3"); err == nil {
		t.Fatalf("unknown option accepted")
	}

	w, err := LookupSelect("wireless_50_group")
	if err != nil || w.Address != 56 {
		t.Fatalf("wireless 50 group: %+v err=%v", w, err)
	}

	all := Selects([]int{1, 2}, []int{1})
	if len(all) != 8+3+4+1 {
		t.Fatalf("unexpected select count %d", len(all))
	}
}
