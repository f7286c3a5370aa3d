package game

import (
	"sync/atomic"
	"time"

	"ring-arena/internal/combat"
	"ring-arena/internal/config"
)

// TargetSnapshot is an immutable copy of target state for rendering
// Uses value types (not pointers) to ensure immutability
type TargetSnapshot struct {
	ID          uint64  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Radius      float64 `json:"radius"`
	Health      int32   `json:"health"`
	MaxHealth   int32   `json:"maxHealth"` // -1 for training dummies
	DamageTaken int64   `json:"damageTaken"`
	Cut         uint8   `json:"cut"`
	Degenerate  uint8   `json:"degenerate"`
	Subdivide   uint16  `json:"subdivide"`
	SubdivideAt uint64  `json:"subdivideAt"`
	Decimate    uint8   `json:"decimate"`
	Dissolve    uint16  `json:"dissolve"`
	Active      uint8   `json:"active"` // status bitset
}

// GameSnapshot is a complete immutable simulation state for readers
// All slices are pre-allocated and capped to prevent memory attacks
type GameSnapshot struct {
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence for ordering
	Timestamp time.Time `json:"timestamp"` // When snapshot was created
	Step      uint64    `json:"step"`      // Simulation step this represents
	StepSeed  uint64    `json:"stepSeed"`  // Seed the step ran with
	StateHash uint64    `json:"stateHash"` // Desync detection hash

	// Pre-allocated capped slices (never grows beyond limits)
	Targets     []TargetSnapshot     `json:"targets"`
	Projectiles []ProjectileSnapshot `json:"projectiles"`

	// Aggregate stats (counted before capping)
	TargetCount     int       `json:"targetCount"`
	ProjectileCount int       `json:"projectileCount"`
	Stats           StepStats `json:"stats"`
}

// FindTarget returns the target with id if it made it into the snapshot.
func (s *GameSnapshot) FindTarget(id uint64) (TargetSnapshot, bool) {
	for _, t := range s.Targets {
		if t.ID == id {
			return t, true
		}
	}
	return TargetSnapshot{}, false
}

// SnapshotPool publishes immutable snapshots to lock-free readers.
// Every step builds a fresh snapshot and swaps it in atomically; a published
// snapshot is never written again, so readers may hold it for as long as
// they like.
type SnapshotPool struct {
	limits   config.ResourceLimits
	current  atomic.Pointer[GameSnapshot]
	pending  *GameSnapshot
	sequence uint64 // producer only
}

// NewSnapshotPool creates an empty pool
func NewSnapshotPool(limits config.ResourceLimits) *SnapshotPool {
	return &SnapshotPool{limits: limits}
}

// AcquireWrite starts a new snapshot (producer only, called from the step).
// Slices are sized from the previous snapshot so steady state allocates once.
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	targets, projectiles := 0, 0
	if prev := p.current.Load(); prev != nil {
		targets, projectiles = len(prev.Targets), len(prev.Projectiles)
	}

	p.sequence++
	p.pending = &GameSnapshot{
		Sequence:    p.sequence,
		Timestamp:   time.Now(),
		Targets:     make([]TargetSnapshot, 0, min(targets, p.limits.MaxSnapshotTargets)),
		Projectiles: make([]ProjectileSnapshot, 0, min(projectiles, p.limits.MaxSnapshotProjectiles)),
	}
	return p.pending
}

// PublishWrite makes the snapshot from AcquireWrite visible to readers
func (p *SnapshotPool) PublishWrite() {
	if p.pending == nil {
		return
	}
	p.current.Store(p.pending)
	p.pending = nil
}

// AcquireRead returns the latest published snapshot, nil before the first.
// The result must be treated as read-only.
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	return p.current.Load()
}

// GetLimits returns the resource limits
func (p *SnapshotPool) GetLimits() config.ResourceLimits {
	return p.limits
}

// toTargetSnapshot copies a target into its immutable form
func toTargetSnapshot(t *combat.Target) TargetSnapshot {
	return TargetSnapshot{
		ID:          uint64(t.ID),
		X:           t.Pos.X,
		Y:           t.Pos.Y,
		Radius:      t.Radius,
		Health:      t.Health,
		MaxHealth:   t.MaxHealth,
		DamageTaken: t.DamageTaken,
		Cut:         t.Status.Cut,
		Degenerate:  t.Status.Degenerate,
		Subdivide:   t.Status.Subdivide,
		SubdivideAt: uint64(t.Status.SubdivideAt),
		Decimate:    t.Status.Decimate,
		Dissolve:    t.Status.Dissolve,
		Active:      uint8(t.Active),
	}
}
