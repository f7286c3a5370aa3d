package telemetry

import (
	"runtime"
	"sync/atomic"
)

// CacheLineSize is the typical CPU cache line size (64 bytes on x86-64)
const CacheLineSize = 64

// Padding ensures variables don't share cache lines
type Padding [CacheLineSize]byte

type slot[T any] struct {
	seq  atomic.Uint64
	item T
}

// Ring is a bounded lock-free MPSC queue (Vyukov). Each slot carries a
// sequence number so the consumer never reads a slot whose producer has
// claimed it but not finished writing.
//
// Memory Layout:
// [Padding][head][Padding][tail][Padding][slots...]
type Ring[T any] struct {
	_pad0 Padding
	head  atomic.Uint64 // next position to claim (producers)
	_pad1 Padding
	tail  atomic.Uint64 // next position to read (consumer)
	_pad2 Padding

	mask  uint64
	slots []slot[T]
}

// NewRing creates a ring with capacity rounded up to a power of 2
func NewRing[T any](capacity int) *Ring[T] {
	size := 1
	for size < capacity {
		size <<= 1
	}
	r := &Ring[T]{
		mask:  uint64(size - 1),
		slots: make([]slot[T], size),
	}
	for i := range r.slots {
		r.slots[i].seq.Store(uint64(i))
	}
	return r
}

// TryPush adds an item, returning false if the ring is full.
// Safe for multiple concurrent producers.
func (r *Ring[T]) TryPush(item T) bool {
	for {
		pos := r.head.Load()
		s := &r.slots[pos&r.mask]
		seq := s.seq.Load()

		switch {
		case seq == pos:
			if r.head.CompareAndSwap(pos, pos+1) {
				s.item = item
				s.seq.Store(pos + 1)
				return true
			}
		case seq < pos:
			return false // full: the consumer has not freed this slot yet
		}
		// another producer moved head, retry
		runtime.Gosched()
	}
}

// TryPop removes the oldest item. Single consumer only.
func (r *Ring[T]) TryPop() (T, bool) {
	var zero T
	pos := r.tail.Load()
	s := &r.slots[pos&r.mask]
	if s.seq.Load() != pos+1 {
		return zero, false // empty, or the producer is still writing
	}
	item := s.item
	s.item = zero
	s.seq.Store(pos + r.mask + 1)
	r.tail.Store(pos + 1)
	return item, true
}

// DrainTo pops into buf until it is full or the ring is empty and returns
// the number of items written.
func (r *Ring[T]) DrainTo(buf []T) int {
	n := 0
	for n < len(buf) {
		item, ok := r.TryPop()
		if !ok {
			break
		}
		buf[n] = item
		n++
	}
	return n
}

// Len returns the approximate number of queued items
func (r *Ring[T]) Len() int {
	head := r.head.Load()
	tail := r.tail.Load()
	if head < tail {
		return 0
	}
	return int(head - tail)
}

// Cap returns the ring capacity
func (r *Ring[T]) Cap() int {
	return int(r.mask + 1)
}
