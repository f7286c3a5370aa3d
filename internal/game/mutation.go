package game

import (
	"ring-arena/internal/combat"
)

// MutationKind classifies a deferred structural change
type MutationKind uint8

const (
	MutSpawnProjectile MutationKind = iota + 1
	MutSpawnTarget
	MutDestroyTarget
)

// Mutation is one structural change collected during a step
type Mutation struct {
	Kind       MutationKind
	Projectile ProjectileSpec
	Target     TargetSpec
	TargetID   combat.StableID
}

// MutationLog collects spawns and destructions while phases iterate, and
// applies them in one pass at the end of the step in append order. Phases
// append in their fixed order, so the log replays identically on every peer.
type MutationLog struct {
	entries []Mutation
}

// Append records a mutation.
func (m *MutationLog) Append(mu Mutation) { m.entries = append(m.entries, mu) }

// Len returns the number of pending mutations.
func (m *MutationLog) Len() int { return len(m.entries) }

// Entries exposes the pending mutations.
func (m *MutationLog) Entries() []Mutation { return m.entries }

// Reset empties the log, keeping its capacity.
func (m *MutationLog) Reset() {
	clear(m.entries)
	m.entries = m.entries[:0]
}
