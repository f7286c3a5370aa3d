package telemetry

import (
	"sync"
	"testing"
)

func TestRingFIFO(t *testing.T) {
	r := NewRing[int](4)
	if r.Cap() != 4 {
		t.Fatalf("Expected cap 4, got %d", r.Cap())
	}
	for i := 0; i < 4; i++ {
		if !r.TryPush(i) {
			t.Fatalf("push %d failed", i)
		}
	}
	if r.TryPush(99) {
		t.Error("Expected push on a full ring to fail")
	}
	for i := 0; i < 4; i++ {
		v, ok := r.TryPop()
		if !ok || v != i {
			t.Errorf("pop %d: got (%d, %v)", i, v, ok)
		}
	}
	if _, ok := r.TryPop(); ok {
		t.Error("Expected pop on an empty ring to fail")
	}
}

func TestRingRoundsUpCapacity(t *testing.T) {
	if got := NewRing[int](5).Cap(); got != 8 {
		t.Errorf("Expected cap 8, got %d", got)
	}
}

func TestRingWrapsAround(t *testing.T) {
	r := NewRing[int](2)
	for i := 0; i < 10; i++ {
		if !r.TryPush(i) {
			t.Fatalf("push %d failed", i)
		}
		v, ok := r.TryPop()
		if !ok || v != i {
			t.Fatalf("pop %d: got (%d, %v)", i, v, ok)
		}
	}
	if r.Len() != 0 {
		t.Errorf("Expected empty ring, len %d", r.Len())
	}
}

// TestRingConcurrentProducers checks that every pushed item is popped exactly
// once with several producers racing a single consumer.
func TestRingConcurrentProducers(t *testing.T) {
	const producers = 4
	const perProducer = 2000

	r := NewRing[int](256)
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; {
				if r.TryPush(base + i) {
					i++
				}
			}
		}(p * perProducer)
	}

	seen := make([]bool, producers*perProducer)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	count := 0
	buf := make([]int, 64)
	for count < len(seen) {
		n := r.DrainTo(buf)
		for _, v := range buf[:n] {
			if seen[v] {
				t.Fatalf("item %d popped twice", v)
			}
			seen[v] = true
			count++
		}
	}
	<-done
	if _, ok := r.TryPop(); ok {
		t.Error("Expected ring to be empty after draining every item")
	}
}
