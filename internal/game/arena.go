package game

import (
	"ring-arena/internal/combat"
)

// Arena is the dense target store. Targets live in a contiguous slice with
// their pending queues in a parallel slice; the identity map translates
// stable ids into slot handles and is rebuilt whenever the slice compacts,
// so handles are only valid within the step they were resolved in.
type Arena struct {
	targets []combat.Target
	queues  []*combat.PendingQueue
	index   map[combat.StableID]combat.Handle
	max     int
}

// NewArena creates an arena with room for maxTargets.
func NewArena(maxTargets int) *Arena {
	return &Arena{
		targets: make([]combat.Target, 0, maxTargets),
		queues:  make([]*combat.PendingQueue, 0, maxTargets),
		index:   make(map[combat.StableID]combat.Handle, maxTargets),
		max:     maxTargets,
	}
}

// Add appends a target. Returns false if the id is taken or the arena is full
// (DoS protection: the spawn is dropped).
func (a *Arena) Add(t combat.Target) bool {
	if t.ID == combat.NoID || len(a.targets) >= a.max {
		return false
	}
	if _, exists := a.index[t.ID]; exists {
		return false
	}
	t.Active = t.Status.Mask()
	a.index[t.ID] = combat.Handle(len(a.targets))
	a.targets = append(a.targets, t)
	a.queues = append(a.queues, combat.NewPendingQueue())
	return true
}

// Resolve implements combat.IdentityMap.
func (a *Arena) Resolve(id combat.StableID) (combat.Handle, bool) {
	h, ok := a.index[id]
	return h, ok
}

// Target returns the target in slot h.
func (a *Arena) Target(h combat.Handle) *combat.Target { return &a.targets[h] }

// Queue returns the pending queue of slot h.
func (a *Arena) Queue(h combat.Handle) *combat.PendingQueue { return a.queues[h] }

// Len returns the number of live targets.
func (a *Arena) Len() int { return len(a.targets) }

// Targets exposes the dense slice for read-only iteration.
func (a *Arena) Targets() []combat.Target { return a.targets }

// Lookup returns a copy of the target with the given id.
func (a *Arena) Lookup(id combat.StableID) (combat.Target, bool) {
	h, ok := a.index[id]
	if !ok {
		return combat.Target{}, false
	}
	return a.targets[h], true
}

// DirtyHandles appends the handles of every target with pending records, in
// slot order.
func (a *Arena) DirtyHandles(dst []combat.Handle) []combat.Handle {
	dst = dst[:0]
	for i, q := range a.queues {
		if q.Dirty() {
			dst = append(dst, combat.Handle(i))
		}
	}
	return dst
}

// Remove deletes the targets whose ids are in ids, compacts the slices in
// place preserving relative order, and rebuilds the identity map. Pending
// records of removed targets are discarded.
func (a *Arena) Remove(ids map[combat.StableID]struct{}) int {
	if len(ids) == 0 {
		return 0
	}
	n := 0
	for i := range a.targets {
		if _, gone := ids[a.targets[i].ID]; gone {
			a.queues[i].Reset()
			continue
		}
		a.targets[n] = a.targets[i]
		a.queues[n], a.queues[i] = a.queues[i], a.queues[n]
		n++
	}
	removed := len(a.targets) - n
	clear(a.targets[n:])
	a.targets = a.targets[:n]
	a.queues = a.queues[:n]
	a.rebuildIndex()
	return removed
}

func (a *Arena) rebuildIndex() {
	clear(a.index)
	for i := range a.targets {
		a.index[a.targets[i].ID] = combat.Handle(i)
	}
}
