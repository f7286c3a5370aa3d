package combat

import (
	"cmp"
	"math"
	"slices"
)

// DecimateProc is one threshold crossing recorded by the resolver.
type DecimateProc struct {
	Target  StableID
	Pos     Vec2
	Ordinal int // 0..procs-1 within the target's resolution
	Index   int // event index within the step, assigned by CollectProcs
}

// CollectProcs expands resolver outcomes into individual proc events, ordered
// by target id then ordinal, and assigns each its event index.
func CollectProcs(outcomes []Outcome, dst []DecimateProc) []DecimateProc {
	dst = dst[:0]
	for i := range outcomes {
		o := &outcomes[i]
		for k := 0; k < o.Procs; k++ {
			dst = append(dst, DecimateProc{Target: o.Target, Pos: o.Pos, Ordinal: k})
		}
	}
	slices.SortFunc(dst, func(a, b DecimateProc) int {
		if c := cmp.Compare(a.Target, b.Target); c != 0 {
			return c
		}
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})
	for i := range dst {
		dst[i].Index = i
	}
	return dst
}

// SecondaryPrefab is one entry of the secondary-spawn catalogue.
type SecondaryPrefab struct {
	Archetype string
	Weight    int
	Speed     float64
}

// SpawnRequest is a deferred projectile spawn.
type SpawnRequest struct {
	Archetype string
	Source    StableID // target whose proc caused the spawn
	Pos       Vec2
	Vel       Vec2
	Index     int
}

// SecondarySpawner turns decimation procs into spawn requests.
type SecondarySpawner struct {
	Catalogue  []SecondaryPrefab
	SeekOffset float64 // distance of the seek point from the proc location
	SeekRadius float64 // radius of the nearest-target search
}

// Spawn returns one request per proc. Each proc draws from its own stream
// keyed by its event index, so the outcome of proc i never depends on how
// many draws any other consumer made this step.
func (s *SecondarySpawner) Spawn(stepSeed uint64, procs []DecimateProc, arena Arena, q SpatialQuery, dst []SpawnRequest) []SpawnRequest {
	total := 0
	for _, p := range s.Catalogue {
		total += max(p.Weight, 0)
	}
	if total == 0 {
		return dst
	}

	for _, proc := range procs {
		rng := StreamFor(stepSeed, uint64(proc.Index))

		pick := rng.IntN(total)
		var prefab SecondaryPrefab
		for _, p := range s.Catalogue {
			w := max(p.Weight, 0)
			if pick < w {
				prefab = p
				break
			}
			pick -= w
		}

		angle := rng.Float64() * 2 * math.Pi
		dir := Vec2{math.Cos(angle), math.Sin(angle)}

		seek := proc.Pos.Add(dir.Scale(s.SeekOffset))
		if id, ok := q.QueryNearest(seek, s.SeekRadius); ok && id != proc.Target {
			if h, ok := arena.Resolve(id); ok {
				to := arena.Target(h).Pos
				dx, dy := to.X-proc.Pos.X, to.Y-proc.Pos.Y
				if d := math.Sqrt(float64(dx*dx) + float64(dy*dy)); d > 0 {
					dir = Vec2{dx / d, dy / d}
				}
			}
		}

		dst = append(dst, SpawnRequest{
			Archetype: prefab.Archetype,
			Source:    proc.Target,
			Pos:       proc.Pos,
			Vel:       dir.Scale(prefab.Speed),
			Index:     proc.Index,
		})
	}
	return dst
}
