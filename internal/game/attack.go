package game

import (
	"math"

	"ring-arena/internal/combat"
)

// FireCommand asks a player to activate one of its rings this step
type FireCommand struct {
	Owner combat.StableID
	Ring  int
	Angle float64 // aim direction in radians
}

// volley expands one ring activation into projectile specs fanned evenly
// across the ring's spread and centred on angle.
func volley(ring Ring, owner combat.StableID, loopCount int, origin combat.Vec2, angle float64, dst []ProjectileSpec) []ProjectileSpec {
	a := GetArchetype(ring.Archetype)
	n := max(ring.Volley, 1)

	for i := 0; i < n; i++ {
		dir := angle
		if n > 1 {
			dir = angle - ring.Spread/2 + ring.Spread*float64(i)/float64(n-1)
		}
		dst = append(dst, ProjectileSpec{
			Archetype: a.ID,
			Owner:     owner,
			Ring:      ring.Index,
			LoopCount: loopCount,
			Pos:       origin,
			Vel:       combat.Vec2{X: math.Cos(dir), Y: math.Sin(dir)}.Scale(a.Speed),
		})
	}
	return dst
}

// generateAttacks turns this step's fire commands and the loop triggers left
// by the previous step into projectile specs. Fire commands and loop
// triggers whose owner no longer exists are dropped.
func (e *Engine) generateAttacks(fire []FireCommand, triggers []combat.LoopTrigger, dst []ProjectileSpec) []ProjectileSpec {
	for _, fc := range fire {
		h, ok := e.arena.Resolve(fc.Owner)
		if !ok {
			continue
		}
		dst = volley(GetRing(fc.Ring), fc.Owner, 0, e.arena.Target(h).Pos, fc.Angle, dst)
	}
	for _, tr := range triggers {
		if _, ok := e.arena.Resolve(tr.Owner); !ok {
			continue
		}
		dst = volley(GetRing(tr.Ring), tr.Owner, tr.LoopCount, tr.Impact.Pos, tr.Impact.Rotation, dst)
	}
	return dst
}
