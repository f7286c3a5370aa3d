package combat

import "math"

// UnlimitedHealth marks a training dummy: damage is reported and summed into
// DamageTaken, but Health is never reduced and the target is never destroyed.
const UnlimitedHealth int32 = -1

// DecimateThreshold is the accrual at which decimation procs.
const DecimateThreshold = 100

// StatusMask is the per-target bitset of active (non-zero) status families.
// A family whose bit is clear costs no processing in the per-step ticks.
type StatusMask uint8

const (
	StatusCut StatusMask = 1 << iota
	StatusDegenerate
	StatusSubdivide
	StatusDecimate
	StatusDissolve
)

// Has reports whether all bits in m are set.
func (s StatusMask) Has(m StatusMask) bool { return s&m == m }

// Counters holds the status accrual of a single target.
// Widths are part of the deterministic contract: every accumulation saturates
// at the declared width.
type Counters struct {
	Cut         uint8  // flat extra damage per incoming Damage record
	Degenerate  uint8  // drives the damage multiplier
	Subdivide   uint16 // delayed burst accrual
	SubdivideAt Step   // burst step; zero when disarmed
	Decimate    uint8  // 0..99 after resolution
	Dissolve    uint16 // damage-over-time, ticks down once per step
}

// Mask derives the active bitset from the counters.
func (c Counters) Mask() StatusMask {
	var m StatusMask
	if c.Cut > 0 {
		m |= StatusCut
	}
	if c.Degenerate > 0 {
		m |= StatusDegenerate
	}
	if c.Subdivide > 0 {
		m |= StatusSubdivide
	}
	if c.Decimate > 0 {
		m |= StatusDecimate
	}
	if c.Dissolve > 0 {
		m |= StatusDissolve
	}
	return m
}

// Target is one damageable actor in the arena. Targets are plain values so
// the arena can be a dense slice; the pending queue lives beside it.
type Target struct {
	ID          StableID
	Pos         Vec2
	Radius      float64
	Health      int32
	MaxHealth   int32
	DamageTaken int64
	Status      Counters
	Active      StatusMask
}

// Unlimited reports whether the target is a training dummy.
func (t *Target) Unlimited() bool { return t.MaxHealth == UnlimitedHealth }

// Dead reports whether cleanup should remove the target.
func (t *Target) Dead() bool { return !t.Unlimited() && t.Health <= 0 }

func addU8(c uint8, m int32) uint8 {
	if m <= 0 {
		return c
	}
	sum := int64(c) + int64(m)
	if sum > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(sum)
}

func addU16(c uint16, m int32) uint16 {
	if m <= 0 {
		return c
	}
	sum := int64(c) + int64(m)
	if sum > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(sum)
}

func subHealth(h, d int32) int32 {
	r := int64(h) - int64(d)
	if r < math.MinInt32 {
		return math.MinInt32
	}
	if r > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(r)
}

func mulClamp(a int64, b int64) int32 {
	r := a * b
	if r > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(r)
}
