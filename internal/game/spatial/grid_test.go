package spatial

import (
	"slices"
	"testing"
)

// TestGridQueryRadius verifies inserted entities are found by nearby queries
func TestGridQueryRadius(t *testing.T) {
	g := NewSpatialGrid(1000, 1000, 100, 64)
	g.Insert(1, 50, 50)
	g.Insert(2, 150, 50)
	g.Insert(3, 950, 950)

	got := slices.Clone(g.QueryRadius(60, 60, 20))
	slices.Sort(got)
	if !slices.Equal(got, []uint32{1}) {
		t.Errorf("Expected [1], got %v", got)
	}

	got = slices.Clone(g.QueryRadius(100, 50, 10))
	slices.Sort(got)
	if !slices.Equal(got, []uint32{1, 2}) {
		t.Errorf("Expected [1 2], got %v", got)
	}
}

// TestGridClampsOutOfBounds verifies positions outside the world land in border cells
func TestGridClampsOutOfBounds(t *testing.T) {
	g := NewSpatialGrid(100, 100, 10, 16)
	g.Insert(7, -50, -50)
	g.Insert(8, 500, 500)

	if got := g.QueryRadius(0, 0, 1); !slices.Contains(got, 7) {
		t.Errorf("Expected 7 in corner cell, got %v", got)
	}
	if got := g.QueryRadius(99, 99, 1); !slices.Contains(got, 8) {
		t.Errorf("Expected 8 in far corner cell, got %v", got)
	}
}

// TestGridQuerySwept verifies a long sweep collects every cell it crosses
func TestGridQuerySwept(t *testing.T) {
	g := NewSpatialGrid(1000, 100, 50, 16)
	for i := uint32(0); i < 10; i++ {
		g.Insert(i, float64(i)*100+25, 25)
	}

	got := slices.Clone(g.QuerySwept(0, 25, 480, 25, 5))
	slices.Sort(got)
	if !slices.Equal(got, []uint32{0, 1, 2, 3, 4}) {
		t.Errorf("Expected [0..4], got %v", got)
	}
}

// TestGridClear verifies clear empties cells and stats
func TestGridClear(t *testing.T) {
	g := NewSpatialGrid(100, 100, 10, 16)
	g.Insert(1, 5, 5)
	g.Insert(2, 5, 5)

	if s := g.Stats(); s.TotalEntities != 2 || s.MaxInCell != 2 || s.NonEmptyCells != 1 {
		t.Errorf("Unexpected stats %+v", s)
	}
	g.Clear()
	if s := g.Stats(); s.TotalEntities != 0 || s.NonEmptyCells != 0 {
		t.Errorf("Clear left entities: %+v", s)
	}
	if len(g.QueryRadius(5, 5, 5)) != 0 {
		t.Error("Query after clear returned entities")
	}
}

// TestCapsuleHitsCircle covers the swept-circle narrow phase
func TestCapsuleHitsCircle(t *testing.T) {
	tests := []struct {
		name              string
		ax, ay, bx, by, r float64
		cx, cy, cr        float64
		hit               bool
	}{
		{"tunnelling pass through", 0, 0, 100, 0, 1, 50, 0, 2, true},
		{"beside the path", 0, 0, 100, 0, 1, 50, 10, 2, false},
		{"touching", 0, 0, 100, 0, 1, 50, 3, 2, true},
		{"behind the start", 0, 0, 100, 0, 1, -10, 0, 2, false},
		{"past the end", 0, 0, 100, 0, 1, 110, 0, 2, false},
		{"stationary", 5, 5, 5, 5, 2, 7, 5, 1, true},
		{"diagonal", 0, 0, 10, 10, 1, 5, 6, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CapsuleHitsCircle(tt.ax, tt.ay, tt.bx, tt.by, tt.r, tt.cx, tt.cy, tt.cr)
			if got != tt.hit {
				t.Errorf("Expected hit=%v, got %v", tt.hit, got)
			}
		})
	}
}

// TestSegmentDistSq checks the closest-point clamp at both ends
func TestSegmentDistSq(t *testing.T) {
	if d := SegmentDistSq(0, 0, 10, 0, 5, 3); d != 9 {
		t.Errorf("Expected 9, got %v", d)
	}
	if d := SegmentDistSq(0, 0, 10, 0, -3, 4); d != 25 {
		t.Errorf("Expected 25, got %v", d)
	}
	if d := SegmentDistSq(0, 0, 10, 0, 13, 4); d != 25 {
		t.Errorf("Expected 25, got %v", d)
	}
}
