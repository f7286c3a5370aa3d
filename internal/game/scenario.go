package game

import (
	"math"

	"ring-arena/internal/combat"
)

// Scenario is a seeded script of spawns and fire commands. The same scenario
// produces the same inputs on every machine, which is what lockstep peers and
// the determinism tests feed their engines.
type Scenario struct {
	Seed      uint64
	Players   int     // ids 1..Players, each fires rings
	Targets   int     // ids Players+1..Players+Targets
	Dummies   int     // the last Dummies targets have unlimited health
	FireRate  float64 // chance per step that a player fires
	Width     float64
	Height    float64
	PlayerHP  int32
	TargetHP  int32
	RingCount int
}

// DefaultScenario returns a small mixed arena
func DefaultScenario(seed uint64) Scenario {
	return Scenario{
		Seed:      seed,
		Players:   4,
		Targets:   40,
		Dummies:   4,
		FireRate:  0.25,
		Width:     1280,
		Height:    720,
		PlayerHP:  1000,
		TargetHP:  150,
		RingCount: len(Rings),
	}
}

// Input returns the input for one step. Step 1 spawns the cast; every step
// after that carries fire commands.
func (s Scenario) Input(step uint64) StepInput {
	var in StepInput
	if step == 1 {
		in.Targets = s.spawns()
		return in
	}

	seed := combat.StepSeed(s.Seed, combat.Step(step))
	for i := 1; i <= s.Players; i++ {
		rng := combat.StreamFor(seed, uint64(i))
		if rng.Float64() >= s.FireRate {
			continue
		}
		in.Fire = append(in.Fire, FireCommand{
			Owner: combat.StableID(i),
			Ring:  rng.IntN(max(s.RingCount, 1)),
			Angle: rng.Float64() * 2 * math.Pi,
		})
	}
	return in
}

func (s Scenario) spawns() []TargetSpec {
	rng := combat.StreamFor(s.Seed, 0)
	total := s.Players + s.Targets
	out := make([]TargetSpec, 0, total)
	for i := 1; i <= total; i++ {
		hp := s.TargetHP
		switch {
		case i <= s.Players:
			hp = s.PlayerHP
		case i > total-s.Dummies:
			hp = combat.UnlimitedHealth
		}
		out = append(out, TargetSpec{
			ID:        combat.StableID(i),
			Pos:       combat.Vec2{X: 40 + rng.Float64()*(s.Width-80), Y: 40 + rng.Float64()*(s.Height-80)},
			MaxHealth: hp,
		})
	}
	return out
}

// Run drives e through steps of the scenario and returns the state hash after
// each step.
func (s Scenario) Run(e *Engine, steps int) []uint64 {
	hashes := make([]uint64, 0, steps)
	for i := 1; i <= steps; i++ {
		e.Step(s.Input(uint64(e.CurrentStep()) + 1))
		_, h := e.StateHash()
		hashes = append(hashes, h)
	}
	return hashes
}
