package combat

import "slices"

// testArena is a minimal dense arena for exercising the pipeline.
type testArena struct {
	targets []Target
	queues  []*PendingQueue
	index   map[StableID]Handle
}

func newTestArena(ts ...Target) *testArena {
	a := &testArena{index: make(map[StableID]Handle)}
	for _, t := range ts {
		a.add(t)
	}
	return a
}

func (a *testArena) add(t Target) Handle {
	h := Handle(len(a.targets))
	t.Active = t.Status.Mask()
	a.targets = append(a.targets, t)
	a.queues = append(a.queues, NewPendingQueue())
	a.index[t.ID] = h
	return h
}

func (a *testArena) Resolve(id StableID) (Handle, bool) {
	h, ok := a.index[id]
	return h, ok
}

func (a *testArena) Target(h Handle) *Target      { return &a.targets[h] }
func (a *testArena) Queue(h Handle) *PendingQueue { return a.queues[h] }

func (a *testArena) get(id StableID) (*Target, *PendingQueue) {
	h := a.index[id]
	return &a.targets[h], a.queues[h]
}

// visibleQuery reports every id in visible as overlapping any shape.
type visibleQuery struct {
	visible  []StableID
	excluded []StableID
	nearest  StableID
}

func (q *visibleQuery) QueryOverlap(_ Shape, exclude func(StableID) bool, out []StableID) []StableID {
	for _, id := range q.visible {
		if exclude(id) {
			q.excluded = append(q.excluded, id)
			continue
		}
		out = append(out, id)
	}
	return out
}

func (q *visibleQuery) QueryNearest(Vec2, float64) (StableID, bool) {
	return q.nearest, q.nearest != NoID
}

func dummy(id StableID, health int32) Target {
	return Target{ID: id, Health: health, MaxHealth: health, Radius: 1}
}

// permutations calls fn with every ordering of rs.
func permutations(rs []Record, fn func([]Record)) {
	var walk func(k int)
	walk = func(k int) {
		if k == len(rs) {
			fn(slices.Clone(rs))
			return
		}
		for i := k; i < len(rs); i++ {
			rs[k], rs[i] = rs[i], rs[k]
			walk(k + 1)
			rs[k], rs[i] = rs[i], rs[k]
		}
	}
	walk(0)
}
