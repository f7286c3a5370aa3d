package combat

import (
	"slices"
	"sync"
	"sync/atomic"
)

// PendingQueue is the per-target list of records awaiting resolution.
//
// Append is safe for any number of concurrent producers. Drain is called by
// exactly one goroutine (the resolver) after all producers for the step have
// finished, so readers never observe a partially drained queue.
type PendingQueue struct {
	mu      sync.Mutex
	records []Record
	dirty   atomic.Bool
}

// NewPendingQueue creates an empty queue with room for a typical step.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{records: make([]Record, 0, 8)}
}

// Append adds a record and marks the owning target dirty.
func (q *PendingQueue) Append(r Record) {
	q.mu.Lock()
	q.records = append(q.records, r)
	q.mu.Unlock()
	q.dirty.Store(true)
}

// Dirty reports whether the resolver must visit this target.
func (q *PendingQueue) Dirty() bool { return q.dirty.Load() }

// Len returns the number of queued records.
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// drainInto copies the queue in canonical order into buf, empties the queue
// and clears the dirty flag. The backing array is kept for reuse.
func (q *PendingQueue) drainInto(buf []Record) []Record {
	q.mu.Lock()
	buf = append(buf[:0], q.records...)
	clear(q.records)
	q.records = q.records[:0]
	q.mu.Unlock()
	q.dirty.Store(false)

	slices.SortFunc(buf, recordLess)
	return buf
}

// Reset discards everything without resolving (used when a target is removed).
func (q *PendingQueue) Reset() {
	q.mu.Lock()
	q.records = q.records[:0]
	q.mu.Unlock()
	q.dirty.Store(false)
}
