package combat

import "slices"

// Shape is a circle swept from From to To.
type Shape struct {
	From, To Vec2
	Radius   float64
}

// SpatialQuery is the read-only spatial surface the pipeline consumes.
// Implementations must not mutate world state.
type SpatialQuery interface {
	// QueryOverlap appends to out the ids of targets overlapping shape,
	// skipping every id for which exclude returns true.
	QueryOverlap(shape Shape, exclude func(StableID) bool, out []StableID) []StableID
	// QueryNearest returns the target closest to p within maxDist.
	QueryNearest(p Vec2, maxDist float64) (StableID, bool)
}

// CollectStats counts what the query phase did.
type CollectStats struct {
	Hits     int
	Overflow int // candidates dropped because the collector or pierce budget was full
}

// Collect fills each live projectile's Hit Collector from the spatial query.
//
// Candidates are sorted by StableID before insertion so that which candidate
// gets dropped on overflow does not depend on the query structure. Finite
// pierce caps the budget at remaining charges + 1, which bounds a projectile
// with P charges to P+1 distinct targets over its lifetime.
func Collect(ps []*Projectile, q SpatialQuery, capacity int) CollectStats {
	var stats CollectStats
	capacity = min(max(capacity, 1), MaxHits)

	var buf []StableID
	for _, p := range ps {
		if p.Doomed {
			continue
		}
		p.Hits.Clear()

		var exclude func(StableID) bool
		if !p.DoT {
			exclude = p.Ledger.Contains
		} else {
			exclude = func(StableID) bool { return false }
		}

		buf = q.QueryOverlap(p.Shape(), exclude, buf[:0])
		if len(buf) == 0 {
			continue
		}
		slices.Sort(buf)
		buf = slices.Compact(buf)

		budget := capacity
		if !p.DoT && p.Pierce != InfinitePierce {
			budget = min(budget, p.Pierce+1)
		}
		for _, id := range buf {
			if id == p.Owner || (!p.DoT && p.Ledger.Contains(id)) {
				continue
			}
			if p.Hits.Len() >= budget || !p.Hits.Add(id) {
				stats.Overflow++
				continue
			}
			stats.Hits++
		}
	}
	return stats
}
