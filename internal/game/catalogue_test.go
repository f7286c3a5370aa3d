package game

import (
	"math"
	"testing"

	"ring-arena/internal/combat"
)

// TestGetArchetype tests archetype retrieval
func TestGetArchetype(t *testing.T) {
	tests := []struct {
		id       string
		expected string
	}{
		{"bolt", "Bolt"},
		{"lance", "Lance"},
		{"shatter", "Shatter Orb"},
		{"rift", "Rift"},
		{"miasma", "Miasma Cloud"},
		{"ram", "Battering Ram"},
		{"unknown_archetype", "Bolt"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if a := GetArchetype(tt.id); a.Name != tt.expected {
				t.Errorf("Expected name '%s', got '%s'", tt.expected, a.Name)
			}
		})
	}
}

// TestArchetypesWellFormed verifies every archetype can be spawned and hit
func TestArchetypesWellFormed(t *testing.T) {
	all := GetAllArchetypes()
	if len(all) != len(Archetypes) {
		t.Fatalf("Expected %d archetypes, got %d", len(Archetypes), len(all))
	}
	for i, a := range all {
		if i > 0 && all[i-1].ID >= a.ID {
			t.Errorf("archetypes not sorted at %s", a.ID)
		}
		if a.Radius <= 0 || a.Lifetime == 0 {
			t.Errorf("%s: radius and lifetime must be set", a.ID)
		}
		if a.Speed >= 64 {
			t.Errorf("%s: speed %v exceeds a grid cell", a.ID, a.Speed)
		}
		if a.Payload.Families == 0 {
			t.Errorf("%s: no payload families", a.ID)
		}
		if a.DoT && a.Pierce != 0 {
			t.Errorf("%s: DoT archetypes ignore pierce", a.ID)
		}
	}
}

func TestRingsReferenceArchetypes(t *testing.T) {
	for i, r := range Rings {
		if r.Index != i {
			t.Errorf("ring %d has index %d", i, r.Index)
		}
		if _, ok := Archetypes[r.Archetype]; !ok {
			t.Errorf("ring %d fires unknown archetype %s", i, r.Archetype)
		}
	}
	if GetRing(-1).Index != 0 || GetRing(len(Rings)).Index != 0 {
		t.Error("out of range rings should default to ring 0")
	}
}

func TestSecondaryCatalogueWeights(t *testing.T) {
	for _, p := range SecondaryCatalogue() {
		if p.Weight <= 0 || p.Speed <= 0 {
			t.Errorf("%s: weight and speed must be positive", p.Archetype)
		}
		if _, ok := Archetypes[p.Archetype]; !ok {
			t.Errorf("unknown secondary archetype %s", p.Archetype)
		}
	}
}

// TestVolleyFan verifies a volley spreads evenly around the aim angle
func TestVolleyFan(t *testing.T) {
	ring := Ring{Index: 2, Archetype: "shatter", Volley: 3, Spread: math.Pi / 2}
	specs := volley(ring, 7, 1, combat.Vec2{X: 10, Y: 20}, 0, nil)
	if len(specs) != 3 {
		t.Fatalf("Expected 3 specs, got %d", len(specs))
	}

	speed := GetArchetype("shatter").Speed
	wantAngles := []float64{-math.Pi / 4, 0, math.Pi / 4}
	for i, s := range specs {
		if s.Owner != 7 || s.LoopCount != 1 || s.Ring != 2 {
			t.Errorf("spec %d: %+v", i, s)
		}
		got := math.Atan2(s.Vel.Y, s.Vel.X)
		if math.Abs(got-wantAngles[i]) > 1e-9 {
			t.Errorf("spec %d: angle %v, want %v", i, got, wantAngles[i])
		}
		if sp := math.Sqrt(s.Vel.X*s.Vel.X + s.Vel.Y*s.Vel.Y); math.Abs(sp-speed) > 1e-9 {
			t.Errorf("spec %d: speed %v, want %v", i, sp, speed)
		}
	}
}
