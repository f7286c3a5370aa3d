package combat_test

import (
	"testing"

	"go.uber.org/mock/gomock"

	"ring-arena/internal/combat"
	"ring-arena/internal/combat/mocks"
)

// TestEmitDeliversInOrder verifies every change reaches the sink in outcome order
func TestEmitDeliversInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockHealthSink(ctrl)

	outcomes := []combat.Outcome{
		{Target: 1, Changes: []combat.HealthChange{
			{Target: 1, Delta: -15, Kind: combat.KindDamage, Step: 4},
			{Target: 1, Delta: -5, Kind: combat.KindCut, Step: 4},
		}},
		{Target: 2},
		{Target: 3, Changes: []combat.HealthChange{
			{Target: 3, Delta: -2, Kind: combat.KindPoke, Step: 4},
		}},
	}

	gomock.InOrder(
		sink.EXPECT().HealthChanged(outcomes[0].Changes[0]),
		sink.EXPECT().HealthChanged(outcomes[0].Changes[1]),
		sink.EXPECT().HealthChanged(outcomes[2].Changes[0]),
	)

	if n := combat.Emit(outcomes, sink); n != 3 {
		t.Errorf("Expected 3 deliveries, got %d", n)
	}
}

// TestResolveNotifiesSink runs a resolve pass end to end into a mock sink
func TestResolveNotifiesSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockHealthSink(ctrl)

	r := combat.NewResolver(combat.DefaultTuning())
	tg := &combat.Target{ID: 5, Health: 100, MaxHealth: 100}
	q := combat.NewPendingQueue()
	q.Append(combat.Record{Kind: combat.KindCut, Magnitude: 5})
	q.Append(combat.Record{Kind: combat.KindDamage, Magnitude: 15})

	var out combat.Outcome
	r.Resolve(tg, q, 1, &out)

	sink.EXPECT().HealthChanged(gomock.Any()).Times(2)
	combat.Emit([]combat.Outcome{out}, sink)

	if tg.Health != 80 {
		t.Errorf("Expected health 80, got %d", tg.Health)
	}
}

// TestEmitNilSink verifies a missing sink is tolerated
func TestEmitNilSink(t *testing.T) {
	if n := combat.Emit([]combat.Outcome{{Changes: []combat.HealthChange{{Delta: -1}}}}, nil); n != 0 {
		t.Errorf("Expected no deliveries, got %d", n)
	}
}
