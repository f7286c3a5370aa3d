package ipc

import (
	"fmt"
	"sync"

	"ring-arena/internal/combat"
	"ring-arena/internal/game"
)

// maxCatchUp bounds how far ahead of the local engine a digest may be
const maxCatchUp = 1 << 20

// DigestOf summarises the engine's current step
func DigestOf(e *game.Engine) Digest {
	step, hash := e.StateHash()
	return Digest{
		Step:        step,
		StepSeed:    combat.StepSeed(e.Config().Sim.WorldSeed, combat.Step(step)),
		Hash:        hash,
		Targets:     e.TargetCount(),
		Projectiles: e.ProjectileCount(),
	}
}

// Desync reports the first step at which two peers disagree
type Desync struct {
	Step   uint64
	Local  Digest
	Remote Digest
}

func (d *Desync) Error() string {
	return fmt.Sprintf("desync at step %d: local %016x, remote %016x", d.Step, d.Local.Hash, d.Remote.Hash)
}

// Verifier replays a scenario on a local engine and checks remote digests
// against it. Digests may arrive out of order or with gaps.
type Verifier struct {
	mu       sync.Mutex
	engine   *game.Engine
	scenario game.Scenario
	history  []Digest // history[i] is the digest after step i+1

	checked    int
	mismatches int
}

// NewVerifier creates a verifier driving a fresh engine
func NewVerifier(engine *game.Engine, sc game.Scenario) *Verifier {
	return &Verifier{engine: engine, scenario: sc}
}

// Check advances the local engine to d.Step if needed and compares.
func (v *Verifier) Check(d Digest) error {
	if d.Step == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if d.Step > uint64(len(v.history))+maxCatchUp {
		return fmt.Errorf("digest step %d too far ahead of local step %d", d.Step, len(v.history))
	}
	for uint64(len(v.history)) < d.Step {
		next := v.engine.CurrentStep() + 1
		v.engine.Step(v.scenario.Input(next))
		v.history = append(v.history, DigestOf(v.engine))
	}

	local := v.history[d.Step-1]
	v.checked++
	if local.Hash != d.Hash || local.StepSeed != d.StepSeed {
		v.mismatches++
		return &Desync{Step: d.Step, Local: local, Remote: d}
	}
	return nil
}

// Stats returns how many digests were checked and how many disagreed
func (v *Verifier) Stats() (checked, mismatches int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.checked, v.mismatches
}
