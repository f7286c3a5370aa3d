package combat

import (
	"sync"
	"testing"
)

// TestPendingQueueConcurrentAppend verifies no record is lost when many
// producers append at once, and that the drain is sorted and complete.
func TestPendingQueueConcurrentAppend(t *testing.T) {
	const producers = 16
	const perProducer = 500

	q := NewPendingQueue()
	kinds := []Kind{KindDamage, KindCut, KindDegenerate, KindPoke}

	var wg sync.WaitGroup
	for g := 0; g < producers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Append(Record{Kind: kinds[g%len(kinds)], Magnitude: int32(g)})
			}
		}(g)
	}
	wg.Wait()

	if q.Len() != producers*perProducer {
		t.Fatalf("Expected %d records, got %d", producers*perProducer, q.Len())
	}
	if !q.Dirty() {
		t.Error("Expected queue to be dirty after appends")
	}

	got := q.drainInto(nil)
	if len(got) != producers*perProducer {
		t.Fatalf("Expected %d drained records, got %d", producers*perProducer, len(got))
	}
	counts := make(map[Record]int)
	for i, r := range got {
		counts[r]++
		if i > 0 && recordLess(got[i-1], r) > 0 {
			t.Fatalf("Drain out of order at %d: %+v before %+v", i, got[i-1], r)
		}
	}
	for g := 0; g < producers; g++ {
		r := Record{Kind: kinds[g%len(kinds)], Magnitude: int32(g)}
		if counts[r] != perProducer {
			t.Errorf("producer %d: Expected %d records, got %d", g, perProducer, counts[r])
		}
	}

	if q.Len() != 0 || q.Dirty() {
		t.Errorf("Expected empty clean queue after drain, got len=%d dirty=%v", q.Len(), q.Dirty())
	}
}

// TestPendingQueueDrainReusesBuffer verifies repeated drains start empty
func TestPendingQueueDrainReusesBuffer(t *testing.T) {
	q := NewPendingQueue()
	buf := make([]Record, 0, 4)

	tests := []struct {
		name    string
		records []Record
	}{
		{"first", []Record{{KindCut, 3}, {KindDamage, 5}}},
		{"second", []Record{{KindPoke, 1}}},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, r := range tt.records {
				q.Append(r)
			}
			buf = q.drainInto(buf)
			if len(buf) != len(tt.records) {
				t.Errorf("Expected %d records, got %d", len(tt.records), len(buf))
			}
		})
	}
}
