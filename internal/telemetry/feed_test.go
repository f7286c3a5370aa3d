package telemetry

import (
	"context"
	"testing"
	"time"

	"ring-arena/internal/combat"
)

func TestHealthFeedBroadcast(t *testing.T) {
	f := NewHealthFeed(16)
	a, cancelA := f.Subscribe(4)
	b, cancelB := f.Subscribe(4)
	defer cancelA()
	defer cancelB()

	f.HealthChanged(combat.HealthChange{Target: 1, Delta: -5})
	f.HealthChanged(combat.HealthChange{Target: 2, Delta: -7})

	if n := f.Flush(); n != 2 {
		t.Fatalf("Expected 2 flushed, got %d", n)
	}
	for name, ch := range map[string]<-chan []combat.HealthChange{"a": a, "b": b} {
		batch := <-ch
		if len(batch) != 2 || batch[0].Target != 1 || batch[1].Delta != -7 {
			t.Errorf("subscriber %s got %+v", name, batch)
		}
	}
	if f.Delivered() != 2 {
		t.Errorf("Expected 2 delivered, got %d", f.Delivered())
	}
}

func TestHealthFeedDropsWhenFull(t *testing.T) {
	f := NewHealthFeed(2)
	for i := 0; i < 5; i++ {
		f.HealthChanged(combat.HealthChange{Target: combat.StableID(i + 1)})
	}
	if f.Dropped() != 3 {
		t.Errorf("Expected 3 dropped, got %d", f.Dropped())
	}
	if n := f.Flush(); n != 2 {
		t.Errorf("Expected 2 flushed, got %d", n)
	}
}

func TestHealthFeedCancel(t *testing.T) {
	f := NewHealthFeed(4)
	ch, cancel := f.Subscribe(1)
	if f.Subscribers() != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", f.Subscribers())
	}
	cancel()
	cancel() // second cancel is a no-op
	if f.Subscribers() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", f.Subscribers())
	}
	if _, ok := <-ch; ok {
		t.Error("Expected channel closed after cancel")
	}
}

func TestHealthFeedRunFlushesOnCancel(t *testing.T) {
	f := NewHealthFeed(8)
	ch, cancelSub := f.Subscribe(4)
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx, time.Hour)
		close(done)
	}()

	f.HealthChanged(combat.HealthChange{Target: 9, Delta: -1})
	cancel()
	<-done

	select {
	case batch := <-ch:
		if len(batch) != 1 || batch[0].Target != 9 {
			t.Errorf("unexpected batch %+v", batch)
		}
	default:
		t.Error("Expected final flush on shutdown")
	}
}

func TestUpdateEventLogStatsHandlesRestart(t *testing.T) {
	UpdateEventLogStats(10, 2)
	UpdateEventLogStats(15, 3)
	// a restarted log reports smaller totals; this must not panic on a negative Add
	UpdateEventLogStats(1, 0)
}
