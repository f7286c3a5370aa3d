package combat

import "math"

// Tuning carries the balance constants of the pipeline. None of these values
// are correctness invariants; the mechanism is what the pipeline guarantees.
type Tuning struct {
	SubdivideDelay     Step    // steps between the first subdivide hit and the burst
	SubdivideBurst     int32   // damage per accrued subdivide point at burst
	DegeneratePerPoint float64 // multiplier slope per degenerate point
	LoopMax            int     // loop-trigger depth cap
	StepsPerSecond     int     // scales DoT projectile damage
}

// DefaultTuning returns the shipped balance values.
func DefaultTuning() Tuning {
	return Tuning{
		SubdivideDelay:     30,
		SubdivideBurst:     3,
		DegeneratePerPoint: 0.02,
		LoopMax:            3,
		StepsPerSecond:     30,
	}
}

// MultiplierTable maps a degenerate counter to a damage multiplier. It is
// computed once from the tuning so that every peer reads the same float64
// bit patterns instead of re-evaluating the curve each step.
type MultiplierTable [256]float64

// NewMultiplierTable builds the linear curve 1 + perPoint*degenerate.
// A negative slope is clamped to zero to keep the curve monotonic.
func NewMultiplierTable(perPoint float64) *MultiplierTable {
	if perPoint < 0 || math.IsNaN(perPoint) {
		perPoint = 0
	}
	var t MultiplierTable
	for d := range t {
		// explicit conversion forbids fused multiply-add
		t[d] = 1 + float64(perPoint*float64(d))
	}
	return &t
}

// At returns the multiplier for a counter value.
func (t *MultiplierTable) At(degenerate uint8) float64 { return t[degenerate] }

// scaled returns ceil(m * mult) saturated to int32.
func scaled(m int32, mult float64) int32 {
	if m <= 0 {
		return 0
	}
	v := math.Ceil(float64(float64(m) * mult))
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}
