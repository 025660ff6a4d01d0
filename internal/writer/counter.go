// internal/writer/counter.go
package writer

import (
	"math"
	"math/big"

	"github.com/titovskiy/NeptunSmart/internal/registers"
)

// MaxCalibration is the largest settable counter value in cubic meters.
const MaxCalibration = 2147483.647

const maxMilli = 0x7FFFFFFF

// ValidateCounterIndex accepts 1..8.
func ValidateCounterIndex(i int) error {
	if i < 1 || i > registers.Counters {
		return invalid("counter index", i, "must be 1..8")
	}
	return nil
}

// ValidateStep accepts 1, 10 or 100.
func ValidateStep(step int) error {
	switch step {
	case 1, 10, 100:
		return nil
	}
	return invalid("counter step", step, "allowed values are 1, 10, 100")
}

// CounterStep writes the step into bits 8-15 and keeps bits 0-7.
func CounterStep(step int) Transform {
	return func(cur int) int {
		return int(uint16(cur)&0x00FF | uint16(step&0xFF)<<8)
	}
}

// EncodeCalibration converts cubic meters to the hi/lo liter pair.
// Rounds half away from zero on the exact input and clamps to 0..0x7FFFFFFF.
func EncodeCalibration(m3 float64) (hi, lo uint16, err error) {
	if math.IsNaN(m3) || math.IsInf(m3, 0) {
		return 0, 0, invalid("calibration value", m3, "must be finite")
	}

	milli := calibrationMilli(m3)
	return uint16(milli >> 16), uint16(milli), nil
}

func calibrationMilli(m3 float64) uint32 {
	if m3 <= 0 {
		return 0
	}
	if m3 > MaxCalibration+1 {
		return maxMilli
	}

	// exact product of the binary input, then +0.5 and truncate
	x := new(big.Float).SetPrec(128).SetFloat64(m3)
	x.Mul(x, big.NewFloat(1000))
	x.Add(x, big.NewFloat(0.5))

	n, _ := x.Int64()
	if n > maxMilli {
		return maxMilli
	}
	if n < 0 {
		return 0
	}
	return uint32(n)
}
