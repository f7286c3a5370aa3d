package game

import (
	"math"

	"ring-arena/internal/combat"
)

// Projectile is a live attack: the combat state plus what the renderer needs.
// Motion is integrated here; everything hit-related lives in the embedded
// combat state and is only touched by the pipeline phases.
type Projectile struct {
	combat.Projectile

	Archetype string
	Color     string
	Rotation  float64 // angle of travel (radians)
}

// ProjectileSpec describes a projectile to spawn
type ProjectileSpec struct {
	Archetype string
	Owner     combat.StableID
	Ring      int
	LoopCount int
	Pos       combat.Vec2
	Vel       combat.Vec2
	Ignore    combat.StableID // seeded into the ledger, e.g. the target a secondary spawned from
}

// TargetSpec describes a target to spawn
type TargetSpec struct {
	ID        combat.StableID // zero allocates the next free id
	Pos       combat.Vec2
	Radius    float64
	MaxHealth int32 // combat.UnlimitedHealth for a training dummy
}

// Projectile system constants
const (
	DefaultTargetRadius = 24.0
	BoundsMargin        = 50.0 // projectiles this far outside the world are culled
)

// newProjectile builds a projectile from its archetype.
func newProjectile(spec ProjectileSpec, id combat.StableID, now combat.Step) *Projectile {
	a := GetArchetype(spec.Archetype)

	p := &Projectile{
		Archetype: a.ID,
		Color:     a.Color,
		Rotation:  math.Atan2(spec.Vel.Y, spec.Vel.X),
	}
	p.ID = id
	p.Owner = spec.Owner
	p.Ring = spec.Ring
	p.LoopCount = spec.LoopCount
	p.Prev = spec.Pos
	p.Pos = spec.Pos
	p.Vel = spec.Vel
	p.Radius = a.Radius
	p.Base = a.Base
	p.DoT = a.DoT
	p.Payload = a.Payload
	p.Pierce = a.Pierce
	if a.Lifetime > 0 {
		p.ExpireAt = now + a.Lifetime
	}
	if spec.Ignore != combat.NoID {
		p.Ledger.Add(spec.Ignore)
	}
	return p
}

// advance moves the projectile one step. Prev keeps the start of the sweep.
func (p *Projectile) advance() {
	p.Prev = p.Pos
	p.Pos = p.Pos.Add(p.Vel)
}

// outOfBounds reports whether the projectile left the world by more than the margin.
func (p *Projectile) outOfBounds(width, height float64) bool {
	return p.Pos.X < -BoundsMargin || p.Pos.X > width+BoundsMargin ||
		p.Pos.Y < -BoundsMargin || p.Pos.Y > height+BoundsMargin
}

// ProjectileSnapshot is an immutable copy of projectile state for rendering
type ProjectileSnapshot struct {
	ID        uint64  `json:"id"`
	Owner     uint64  `json:"owner"`
	Archetype string  `json:"archetype"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	PrevX     float64 `json:"prevX"`
	PrevY     float64 `json:"prevY"`
	Radius    float64 `json:"radius"`
	Rotation  float64 `json:"rotation"`
	Color     string  `json:"color"`
	Pierce    int     `json:"pierce"`
	LoopCount int     `json:"loopCount"`
	DoT       bool    `json:"dot"`
}

// ToSnapshot creates an immutable snapshot for rendering
func (p *Projectile) ToSnapshot() ProjectileSnapshot {
	return ProjectileSnapshot{
		ID:        uint64(p.ID),
		Owner:     uint64(p.Owner),
		Archetype: p.Archetype,
		X:         p.Pos.X,
		Y:         p.Pos.Y,
		PrevX:     p.Prev.X,
		PrevY:     p.Prev.Y,
		Radius:    p.Radius,
		Rotation:  p.Rotation,
		Color:     p.Color,
		Pierce:    p.Pierce,
		LoopCount: p.LoopCount,
		DoT:       p.DoT,
	}
}
