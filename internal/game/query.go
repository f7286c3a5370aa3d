package game

import (
	"ring-arena/internal/combat"
	"ring-arena/internal/game/spatial"
)

// worldQuery backs combat.SpatialQuery with the uniform grid broad phase and
// the capsule narrow phase. It is rebuilt once per step after motion and is
// read-only for the rest of the step.
type worldQuery struct {
	arena     *Arena
	grid      *spatial.SpatialGrid
	maxRadius float64 // largest target radius inserted this step
}

func newWorldQuery(arena *Arena, grid *spatial.SpatialGrid) *worldQuery {
	return &worldQuery{arena: arena, grid: grid}
}

// rebuild reinserts every live target by slot index.
func (q *worldQuery) rebuild() {
	q.grid.Clear()
	q.maxRadius = 0
	for i := range q.arena.targets {
		t := &q.arena.targets[i]
		q.grid.Insert(uint32(i), t.Pos.X, t.Pos.Y)
		q.maxRadius = max(q.maxRadius, t.Radius)
	}
}

// QueryOverlap implements combat.SpatialQuery.
func (q *worldQuery) QueryOverlap(s combat.Shape, exclude func(combat.StableID) bool, out []combat.StableID) []combat.StableID {
	candidates := q.grid.QuerySwept(s.From.X, s.From.Y, s.To.X, s.To.Y, s.Radius+q.maxRadius)
	for _, slot := range candidates {
		t := &q.arena.targets[slot]
		if exclude(t.ID) {
			continue
		}
		if spatial.CapsuleHitsCircle(s.From.X, s.From.Y, s.To.X, s.To.Y, s.Radius, t.Pos.X, t.Pos.Y, t.Radius) {
			out = append(out, t.ID)
		}
	}
	return out
}

// QueryNearest implements combat.SpatialQuery. Ties are broken by the lower
// id so the answer does not depend on grid bucket order.
func (q *worldQuery) QueryNearest(p combat.Vec2, maxDist float64) (combat.StableID, bool) {
	best := combat.NoID
	bestDist := maxDist * maxDist
	for _, slot := range q.grid.QueryRadius(p.X, p.Y, maxDist) {
		t := &q.arena.targets[slot]
		d := spatial.DistSq(p.X, p.Y, t.Pos.X, t.Pos.Y)
		if d > bestDist {
			continue
		}
		if best == combat.NoID || d < bestDist || t.ID < best {
			best, bestDist = t.ID, d
		}
	}
	return best, best != combat.NoID
}
