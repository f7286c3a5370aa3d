package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ring-arena/internal/combat"
)

// HealthFeed is a combat.HealthSink that hands changes off to a ring and fans
// them out to subscribers from its own goroutine. HealthChanged never blocks
// the step: when the ring is full the change is dropped and counted.
type HealthFeed struct {
	ring *Ring[combat.HealthChange]
	buf  []combat.HealthChange

	mu     sync.Mutex
	subs   map[int]chan []combat.HealthChange
	nextID int

	dropped   atomic.Uint64
	delivered atomic.Uint64
}

// NewHealthFeed creates a feed whose ring holds capacity changes
func NewHealthFeed(capacity int) *HealthFeed {
	return &HealthFeed{
		ring: NewRing[combat.HealthChange](capacity),
		buf:  make([]combat.HealthChange, max(capacity, 1)),
		subs: make(map[int]chan []combat.HealthChange),
	}
}

// HealthChanged implements combat.HealthSink
func (f *HealthFeed) HealthChanged(c combat.HealthChange) {
	if !f.ring.TryPush(c) {
		f.dropped.Add(1)
		feedDropped.Inc()
	}
}

// Subscribe returns a channel of change batches and a cancel func. Slow
// subscribers miss batches rather than stall the feed.
func (f *HealthFeed) Subscribe(buffer int) (<-chan []combat.HealthChange, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	ch := make(chan []combat.HealthChange, buffer)
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs, id)
			close(ch)
		})
	}
}

// Subscribers returns the current subscriber count
func (f *HealthFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Flush drains the ring once and broadcasts what it found as one batch.
// Single consumer: call it from one goroutine only.
func (f *HealthFeed) Flush() int {
	n := f.ring.DrainTo(f.buf)
	if n == 0 {
		return 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		batch := make([]combat.HealthChange, n)
		copy(batch, f.buf[:n])
		select {
		case ch <- batch:
		default:
		}
	}
	f.delivered.Add(uint64(n))
	return n
}

// Run flushes every interval until ctx is done
func (f *HealthFeed) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			f.Flush()
			return
		case <-ticker.C:
			for f.Flush() == len(f.buf) {
			}
		}
	}
}

// Dropped returns the number of changes dropped on a full ring
func (f *HealthFeed) Dropped() uint64 { return f.dropped.Load() }

// Delivered returns the number of changes drained and broadcast
func (f *HealthFeed) Delivered() uint64 { return f.delivered.Load() }
