package combat

import (
	"math"
	"testing"
)

// TestFeedbackAveragesImpact verifies the impact point and the stale fallback
func TestFeedbackAveragesImpact(t *testing.T) {
	a, b := dummy(1, 100), dummy(2, 100)
	b.Pos = Vec2{6, 0}
	owner := dummy(100, 100)
	owner.Pos = Vec2{-50, -50}
	arena := newTestArena(a, b, owner)

	p := &Projectile{
		ID:      50,
		Owner:   100,
		Ring:    2,
		Pos:     Vec2{30, 30},
		Vel:     Vec2{0, 3},
		Payload: Payload{Families: FamilyDamage | FamilyLoop},
	}
	p.Hits.Add(1)
	p.Hits.Add(2)
	p.Hits.Add(99) // no longer resolves

	queues := NewLoopQueues()
	if n := Feedback([]*Projectile{p}, arena, 3, queues); n != 1 {
		t.Fatalf("Expected 1 trigger, got %d", n)
	}

	got := queues.Drain(100)
	if len(got) != 1 {
		t.Fatalf("Expected 1 queued trigger, got %d", len(got))
	}
	tr := got[0]
	if tr.Impact.Pos != (Vec2{12, 10}) {
		t.Errorf("Expected impact (12,10), got %+v", tr.Impact.Pos)
	}
	if tr.LoopCount != 1 || tr.Ring != 2 || tr.Motion != p.Vel {
		t.Errorf("Unexpected trigger %+v", tr)
	}
	if math.Abs(tr.Impact.Rotation-math.Pi/2) > 1e-12 {
		t.Errorf("Expected rotation pi/2, got %v", tr.Impact.Rotation)
	}
	if queues.Pending(100) != 0 {
		t.Error("Drain left triggers behind")
	}
}

// TestFeedbackFilters verifies which projectiles produce triggers
func TestFeedbackFilters(t *testing.T) {
	arena := newTestArena(dummy(1, 100), dummy(9, 100))

	tests := []struct {
		name  string
		p     Projectile
		fires bool
	}{
		{"loop payload", Projectile{Owner: 9, Payload: Payload{Families: FamilyLoop}}, true},
		{"no owner", Projectile{Payload: Payload{Families: FamilyLoop}}, false},
		{"no loop payload", Projectile{Owner: 9, Payload: Payload{Families: FamilyDamage}}, false},
		{"at cap", Projectile{Owner: 9, LoopCount: 3, Payload: Payload{Families: FamilyLoop}}, false},
		{"below cap", Projectile{Owner: 9, LoopCount: 2, Payload: Payload{Families: FamilyLoop}}, true},
		{"owner gone", Projectile{Owner: 77, Payload: Payload{Families: FamilyLoop}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			p.Hits.Add(1)
			n := Feedback([]*Projectile{&p}, arena, 3, NewLoopQueues())
			if (n == 1) != tt.fires {
				t.Errorf("Expected fires=%v, got %d triggers", tt.fires, n)
			}
		})
	}

	idle := &Projectile{Owner: 9, Payload: Payload{Families: FamilyLoop}}
	if Feedback([]*Projectile{idle}, arena, 3, NewLoopQueues()) != 0 {
		t.Error("Projectile without hits produced a trigger")
	}
}

// TestLoopDepthTerminates verifies a chain of loop triggers stops at the cap
func TestLoopDepthTerminates(t *testing.T) {
	arena := newTestArena(dummy(1, 100), dummy(9, 100))
	queues := NewLoopQueues()
	const maxLoops = 4

	p := &Projectile{Owner: 9, Payload: Payload{Families: FamilyLoop}}
	generations := 0
	for generations < 100 {
		p.Hits.Clear()
		p.Hits.Add(1)
		if Feedback([]*Projectile{p}, arena, maxLoops, queues) == 0 {
			break
		}
		tr := queues.Drain(9)[0]
		p = &Projectile{Owner: 9, LoopCount: tr.LoopCount, Payload: p.Payload}
		generations++
	}
	if generations != maxLoops {
		t.Errorf("Expected %d generations, got %d", maxLoops, generations)
	}
}

// TestDrainAllOrder verifies owners drain in id order
func TestDrainAllOrder(t *testing.T) {
	q := NewLoopQueues()
	q.Append(LoopTrigger{Owner: 30, Ring: 0})
	q.Append(LoopTrigger{Owner: 10, Ring: 1})
	q.Append(LoopTrigger{Owner: 30, Ring: 2})
	q.Append(LoopTrigger{Owner: 20, Ring: 3})

	got := q.DrainAll(nil)
	rings := []int{}
	for _, tr := range got {
		rings = append(rings, tr.Ring)
	}
	want := []int{1, 3, 0, 2}
	for i := range want {
		if rings[i] != want[i] {
			t.Fatalf("Expected ring order %v, got %v", want, rings)
		}
	}
	if len(q.DrainAll(nil)) != 0 {
		t.Error("DrainAll left triggers behind")
	}
}
