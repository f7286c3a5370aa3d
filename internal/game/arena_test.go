package game

import (
	"testing"

	"ring-arena/internal/combat"
)

func TestArenaAddRejects(t *testing.T) {
	a := NewArena(2)
	tests := []struct {
		name string
		id   combat.StableID
		want bool
	}{
		{"first", 1, true},
		{"no id", combat.NoID, false},
		{"duplicate", 1, false},
		{"second", 2, true},
		{"full", 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Add(combat.Target{ID: tt.id, Health: 10, MaxHealth: 10}); got != tt.want {
				t.Errorf("Add(%d) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

// TestArenaRemoveRemapsHandles verifies compaction keeps order and that
// handles resolved after removal point at the right targets.
func TestArenaRemoveRemapsHandles(t *testing.T) {
	a := NewArena(8)
	for id := combat.StableID(1); id <= 5; id++ {
		a.Add(combat.Target{ID: id, Health: 10, MaxHealth: 10})
	}
	h4, _ := a.Resolve(4)
	a.Queue(h4).Append(combat.Record{Kind: combat.KindDamage, Magnitude: 3})
	h2, _ := a.Resolve(2)
	a.Queue(h2).Append(combat.Record{Kind: combat.KindDamage, Magnitude: 3})

	removed := a.Remove(map[combat.StableID]struct{}{2: {}, 3: {}})
	if removed != 2 || a.Len() != 3 {
		t.Fatalf("Expected 2 removed and 3 left, got %d and %d", removed, a.Len())
	}

	wantOrder := []combat.StableID{1, 4, 5}
	for i, id := range wantOrder {
		if got := a.Targets()[i].ID; got != id {
			t.Errorf("slot %d: Expected id %d, got %d", i, id, got)
		}
		h, ok := a.Resolve(id)
		if !ok || int(h) != i {
			t.Errorf("Resolve(%d) = %d, %v; want %d", id, h, ok, i)
		}
	}
	if _, ok := a.Resolve(2); ok {
		t.Error("Expected removed id to stop resolving")
	}

	// Pending records follow their target; the removed target's are dropped
	dirty := a.DirtyHandles(nil)
	if len(dirty) != 1 || a.Target(dirty[0]).ID != 4 {
		t.Errorf("Expected only target 4 dirty, got %v", dirty)
	}
}

func TestArenaRemoveNothing(t *testing.T) {
	a := NewArena(4)
	a.Add(combat.Target{ID: 1})
	if n := a.Remove(nil); n != 0 || a.Len() != 1 {
		t.Errorf("Expected no-op, removed %d", n)
	}
}

func TestWorldQueryOverlap(t *testing.T) {
	a := NewArena(8)
	a.Add(combat.Target{ID: 1, Pos: combat.Vec2{X: 100, Y: 100}, Radius: 10})
	a.Add(combat.Target{ID: 2, Pos: combat.Vec2{X: 200, Y: 100}, Radius: 10})
	a.Add(combat.Target{ID: 3, Pos: combat.Vec2{X: 100, Y: 300}, Radius: 10})

	q := newWorldQuery(a, newTestGrid())
	q.rebuild()

	shape := combat.Shape{From: combat.Vec2{X: 50, Y: 100}, To: combat.Vec2{X: 250, Y: 100}, Radius: 2}
	none := func(combat.StableID) bool { return false }

	got := q.QueryOverlap(shape, none, nil)
	if len(got) != 2 {
		t.Fatalf("Expected 2 overlaps, got %v", got)
	}
	got = q.QueryOverlap(shape, func(id combat.StableID) bool { return id == 1 }, nil)
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("Expected only target 2 after exclusion, got %v", got)
	}
}

// TestWorldQueryNearestTieBreak verifies equidistant targets resolve to the lower id
func TestWorldQueryNearestTieBreak(t *testing.T) {
	a := NewArena(8)
	a.Add(combat.Target{ID: 9, Pos: combat.Vec2{X: 110, Y: 100}, Radius: 5})
	a.Add(combat.Target{ID: 4, Pos: combat.Vec2{X: 90, Y: 100}, Radius: 5})
	a.Add(combat.Target{ID: 2, Pos: combat.Vec2{X: 300, Y: 300}, Radius: 5})

	q := newWorldQuery(a, newTestGrid())
	q.rebuild()

	id, ok := q.QueryNearest(combat.Vec2{X: 100, Y: 100}, 50)
	if !ok || id != 4 {
		t.Errorf("Expected 4, got %d (%v)", id, ok)
	}
	if _, ok := q.QueryNearest(combat.Vec2{X: 600, Y: 600}, 50); ok {
		t.Error("Expected nothing within range")
	}
}
