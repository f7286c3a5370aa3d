package game

import (
	"testing"
)

const determinismSteps = 240

// TestLockstepDeterminism runs the same scenario on two engines and expects
// identical state hashes after every step.
func TestLockstepDeterminism(t *testing.T) {
	sc := DefaultScenario(42)
	a := sc.Run(newTestEngine(), determinismSteps)
	b := sc.Run(newTestEngine(), determinismSteps)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("desync at step %d: %016x != %016x", i+1, a[i], b[i])
		}
	}
}

// TestDeterminismAcrossWorkerCounts verifies parallel resolution produces the
// same state regardless of how targets are split across workers.
func TestDeterminismAcrossWorkerCounts(t *testing.T) {
	sc := DefaultScenario(7)
	sc.FireRate = 0.6

	var runs [][]uint64
	for _, workers := range []int{1, 3, 16} {
		cfg := DefaultEngineConfig()
		cfg.Sim.Workers = workers
		runs = append(runs, sc.Run(NewEngine(cfg), determinismSteps))
	}

	for w := 1; w < len(runs); w++ {
		for i := range runs[0] {
			if runs[0][i] != runs[w][i] {
				t.Fatalf("worker config %d diverged at step %d", w, i+1)
			}
		}
	}
}

// TestSeedChangesOutcome verifies the world seed actually drives the run
func TestSeedChangesOutcome(t *testing.T) {
	a := DefaultScenario(1).Run(newTestEngine(), 60)
	b := DefaultScenario(2).Run(newTestEngine(), 60)
	if a[len(a)-1] == b[len(b)-1] {
		t.Error("Expected different scenarios to end in different states")
	}
}

// TestScenarioProducesCombat verifies the default scenario exercises the pipeline
func TestScenarioProducesCombat(t *testing.T) {
	engine := newTestEngine()
	sc := DefaultScenario(3)
	sc.FireRate = 0.8

	var changes, records int
	for i := 1; i <= determinismSteps; i++ {
		stats := engine.Step(sc.Input(uint64(i)))
		changes += stats.HealthChanges
		records += int(stats.Records)
	}
	if changes == 0 || records == 0 {
		t.Errorf("Expected combat, got %d changes from %d records", changes, records)
	}
}

// TestStateHashStableWithoutInput verifies an idle arena hashes the same
// contents identically while the step counter moves the hash on.
func TestStateHashStableWithoutInput(t *testing.T) {
	a, b := newTestEngine(), newTestEngine()
	_, ha := a.StateHash()
	_, hb := b.StateHash()
	if ha != hb {
		t.Fatal("fresh engines hash differently")
	}
	a.Step(StepInput{})
	if _, h := a.StateHash(); h == ha {
		t.Error("Expected the step counter to change the hash")
	}
}

func BenchmarkEngineStep(b *testing.B) {
	engine := newTestEngine()
	sc := DefaultScenario(9)
	sc.Targets = 400
	sc.FireRate = 0.9
	engine.Step(sc.Input(1))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		engine.Step(sc.Input(uint64(i) + 2))
	}
}
