package combat

import (
	"cmp"
	"math"
	"slices"
)

// Transform is a world position with a facing.
type Transform struct {
	Pos      Vec2
	Rotation float64
}

// LoopTrigger asks the attack-generation subsystem to fire the owner's ring
// again from the impact point on a later step.
type LoopTrigger struct {
	Owner     StableID
	Ring      int
	LoopCount int
	Impact    Transform
	Motion    Vec2 // velocity of the triggering projectile
}

// LoopQueues holds the per-player loop-trigger queues.
type LoopQueues struct {
	byOwner map[StableID][]LoopTrigger
}

// NewLoopQueues creates empty queues.
func NewLoopQueues() *LoopQueues {
	return &LoopQueues{byOwner: make(map[StableID][]LoopTrigger)}
}

// Append adds a trigger to its owner's queue.
func (l *LoopQueues) Append(t LoopTrigger) {
	l.byOwner[t.Owner] = append(l.byOwner[t.Owner], t)
}

// Pending returns the number of queued triggers for owner.
func (l *LoopQueues) Pending(owner StableID) int { return len(l.byOwner[owner]) }

// Len returns the number of queued triggers across all owners.
func (l *LoopQueues) Len() int {
	n := 0
	for _, q := range l.byOwner {
		n += len(q)
	}
	return n
}

// Drain removes and returns owner's triggers in insertion order.
func (l *LoopQueues) Drain(owner StableID) []LoopTrigger {
	q := l.byOwner[owner]
	delete(l.byOwner, owner)
	return q
}

// DrainAll removes every queued trigger, ordered by owner id and then
// insertion order within an owner.
func (l *LoopQueues) DrainAll(dst []LoopTrigger) []LoopTrigger {
	owners := make([]StableID, 0, len(l.byOwner))
	for id := range l.byOwner {
		owners = append(owners, id)
	}
	slices.Sort(owners)
	for _, id := range owners {
		dst = append(dst, l.byOwner[id]...)
		delete(l.byOwner, id)
	}
	return dst
}

// Feedback enqueues a loop trigger for every player-owned loop projectile that
// struck something this step and has not reached maxLoops. The impact point
// is the mean position of the struck targets; targets that no longer resolve
// contribute the projectile's own position instead. Projectiles are visited
// in slice order, which the caller keeps sorted by id. Projectiles whose owner
// no longer resolves produce nothing.
func Feedback(ps []*Projectile, arena Arena, maxLoops int, queues *LoopQueues) int {
	n := 0
	for _, p := range ps {
		if p.Owner == NoID || !p.Payload.Families.Has(FamilyLoop) || p.Hits.Len() == 0 {
			continue
		}
		if p.LoopCount >= maxLoops {
			continue
		}
		if _, ok := arena.Resolve(p.Owner); !ok {
			continue
		}

		var sx, sy float64
		for _, id := range p.Hits.IDs() {
			pos := p.Pos
			if h, ok := arena.Resolve(id); ok {
				pos = arena.Target(h).Pos
			}
			sx += pos.X
			sy += pos.Y
		}
		cnt := float64(p.Hits.Len())

		queues.Append(LoopTrigger{
			Owner:     p.Owner,
			Ring:      p.Ring,
			LoopCount: p.LoopCount + 1,
			Impact: Transform{
				Pos:      Vec2{sx / cnt, sy / cnt},
				Rotation: math.Atan2(p.Vel.Y, p.Vel.X),
			},
			Motion: p.Vel,
		})
		n++
	}
	return n
}

// SortByID orders projectiles by StableID, the iteration order every phase
// of the pipeline relies on.
func SortByID(ps []*Projectile) {
	slices.SortFunc(ps, func(a, b *Projectile) int { return cmp.Compare(a.ID, b.ID) })
}
