package game

import (
	"log"
	"sync"
	"time"

	"ring-arena/internal/combat"
	"ring-arena/internal/config"
	"ring-arena/internal/game/spatial"
	"ring-arena/internal/telemetry"
)

// EngineConfig holds the settings the engine is built from. Sim and Combat
// must match on every peer of a lockstep session.
type EngineConfig struct {
	Sim     config.SimConfig
	Combat  config.CombatConfig
	Limits  config.ResourceLimits
	Spatial config.SpatialConfig
}

// DefaultEngineConfig returns the engine configuration built from config defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Sim:     config.DefaultSim(),
		Combat:  config.DefaultCombat(),
		Limits:  config.DefaultLimits(),
		Spatial: config.DefaultSpatial(),
	}
}

// EngineConfigFrom extracts the engine sections of an application config.
func EngineConfigFrom(c config.AppConfig) EngineConfig {
	return EngineConfig{Sim: c.Sim, Combat: c.Combat, Limits: c.Limits, Spatial: c.Spatial}
}

// tuning maps the combat section onto the pipeline's balance constants.
func (c EngineConfig) tuning() combat.Tuning {
	return combat.Tuning{
		SubdivideDelay:     combat.Step(c.Combat.SubdivideDelay),
		SubdivideBurst:     int32(c.Combat.SubdivideBurst),
		DegeneratePerPoint: c.Combat.DegeneratePerPoint,
		LoopMax:            c.Combat.LoopMax,
		StepsPerSecond:     c.Sim.StepsPerSecond,
	}
}

// StepInput is everything from outside the simulation that one step consumes.
// Every peer must feed identical inputs to the same step.
type StepInput struct {
	Targets     []TargetSpec     `json:"targets,omitempty"`
	Fire        []FireCommand    `json:"fire,omitempty"`
	Projectiles []ProjectileSpec `json:"projectiles,omitempty"`
}

// Empty reports whether the input carries nothing.
func (in StepInput) Empty() bool {
	return len(in.Targets) == 0 && len(in.Fire) == 0 && len(in.Projectiles) == 0
}

// StepStats reports what one step did
type StepStats struct {
	Step                 uint64        `json:"step"`
	Hits                 int           `json:"hits"`
	CollectorOverflow    int           `json:"collectorOverflow"`
	Records              int64         `json:"records"`
	Stale                int64         `json:"stale"`
	Doomed               int           `json:"doomed"`
	LedgerOverflow       int           `json:"ledgerOverflow"`
	Dirty                int           `json:"dirty"`
	HealthChanges        int           `json:"healthChanges"`
	DissolveTicks        int           `json:"dissolveTicks"`
	SubdivideBursts      int           `json:"subdivideBursts"`
	Procs                int           `json:"procs"`
	Spawns               int           `json:"spawns"`
	DroppedSpawns        int           `json:"droppedSpawns"`
	LoopTriggers         int           `json:"loopTriggers"`
	TargetsDestroyed     int           `json:"targetsDestroyed"`
	ProjectilesDestroyed int           `json:"projectilesDestroyed"`
	Duration             time.Duration `json:"durationNs"`
}

// Engine owns the arena and runs the combat pipeline one step at a time
type Engine struct {
	mu  sync.RWMutex
	cfg EngineConfig

	arena       *Arena
	projectiles []*Projectile
	view        []*combat.Projectile // combat view of projectiles, rebuilt each step
	grid        *spatial.SpatialGrid
	query       *worldQuery

	resolver *combat.Resolver
	spawner  *combat.SecondarySpawner
	loops    *combat.LoopQueues
	hasher   *stateHasher

	// Deferred structural changes, applied once at the end of each step
	mutations MutationLog

	// Per-step scratch buffers, reused to avoid allocation
	batch    combat.Batch
	dirty    []combat.Handle
	procs    []combat.DecimateProc
	requests []combat.SpawnRequest
	triggers []combat.LoopTrigger
	specs    []ProjectileSpec
	dead     map[combat.StableID]struct{}

	sinks []combat.HealthSink

	step      combat.Step
	stepSeed  uint64
	nextID    combat.StableID
	stateHash uint64
	lastStats StepStats

	// Inputs submitted between ticks
	inputMu sync.Mutex
	pending StepInput

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	// Snapshot system for lock-free readers
	snapshotPool *SnapshotPool

	// Event sourcing for replay and debugging
	eventLog *EventLog
}

// NewEngine creates a new engine with an empty arena
func NewEngine(cfg EngineConfig) *Engine {
	grid := spatial.NewSpatialGrid(cfg.Sim.WorldWidth, cfg.Sim.WorldHeight,
		float64(cfg.Spatial.GridCellSize), cfg.Limits.MaxTargets)
	arena := NewArena(cfg.Limits.MaxTargets)

	e := &Engine{
		cfg:         cfg,
		arena:       arena,
		projectiles: make([]*Projectile, 0, cfg.Limits.MaxProjectiles),
		view:        make([]*combat.Projectile, 0, cfg.Limits.MaxProjectiles),
		grid:        grid,
		query:       newWorldQuery(arena, grid),
		resolver:    combat.NewResolver(cfg.tuning()),
		spawner: &combat.SecondarySpawner{
			Catalogue:  SecondaryCatalogue(),
			SeekOffset: cfg.Combat.SeekOffset,
			SeekRadius: cfg.Combat.SeekRadius,
		},
		loops:        combat.NewLoopQueues(),
		hasher:       newStateHasher(),
		dead:         make(map[combat.StableID]struct{}),
		nextID:       1,
		snapshotPool: NewSnapshotPool(cfg.Limits),
		eventLog:     NewEventLog(),
	}
	e.sinks = append(e.sinks, eventSink{log: e.eventLog})
	e.stateHash = e.hasher.sum(e)
	return e
}

// AddSink registers a health-changed consumer. Sinks run on the step
// goroutine and must not block.
func (e *Engine) AddSink(s combat.HealthSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

// Start begins the fixed-rate step loop. A stopped engine may be started again.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.ticker = time.NewTicker(time.Second / time.Duration(e.cfg.Sim.StepsPerSecond))
	e.stopChan = make(chan struct{})
	ticker, stop := e.ticker, e.stopChan
	e.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				e.tick()
			case <-stop:
				return
			}
		}
	}()

	log.Printf("🎮 Combat engine started at %d steps/s (seed %d)", e.cfg.Sim.StepsPerSecond, e.cfg.Sim.WorldSeed)
}

// Stop stops the step loop
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("🛑 Combat engine stopped")
}

// Submit queues input for the next ticker-driven step.
func (e *Engine) Submit(in StepInput) {
	e.inputMu.Lock()
	defer e.inputMu.Unlock()
	e.pending.Targets = append(e.pending.Targets, in.Targets...)
	e.pending.Fire = append(e.pending.Fire, in.Fire...)
	e.pending.Projectiles = append(e.pending.Projectiles, in.Projectiles...)
}

func (e *Engine) tick() {
	e.inputMu.Lock()
	in := e.pending
	e.pending = StepInput{}
	e.inputMu.Unlock()

	e.Step(in)
}

// Step advances the simulation by exactly one step with the given input and
// returns what happened. The ticker loop calls it; lockstep drivers and tests
// call it directly.
func (e *Engine) Step(in StepInput) StepStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	stats := e.runStep(in)
	stats.Duration = time.Since(start)
	e.lastStats = stats

	e.produceSnapshot()

	telemetry.ObserveStep(telemetry.StepSample{
		Duration:          stats.Duration,
		Dirty:             stats.Dirty,
		Records:           int(stats.Records),
		HealthChanges:     stats.HealthChanges,
		Procs:             stats.Procs,
		Spawns:            stats.Spawns,
		LoopTriggers:      stats.LoopTriggers,
		CollectorOverflow: stats.CollectorOverflow,
		LedgerOverflow:    stats.LedgerOverflow,
		Stale:             int(stats.Stale),
		Targets:           e.arena.Len(),
		Projectiles:       len(e.projectiles),
	})
	return stats
}

// runStep executes the pipeline phases in their fixed order.
func (e *Engine) runStep(in StepInput) StepStats {
	e.step++
	now := e.step
	e.stepSeed = combat.StepSeed(e.cfg.Sim.WorldSeed, now)
	stats := StepStats{Step: uint64(now)}

	e.eventLog.EmitSimple(EventTypeStep, uint64(now), combat.NoID, StepPayload{
		StepSeed:    e.stepSeed,
		Targets:     e.arena.Len(),
		Projectiles: len(e.projectiles),
		StateHash:   e.stateHash,
	})

	// Intake: external spawns, then attacks from fire commands and the loop
	// triggers queued by the previous step
	for _, ts := range in.Targets {
		e.spawnTarget(ts)
	}
	e.triggers = e.loops.DrainAll(e.triggers[:0])
	for _, tr := range e.triggers {
		e.eventLog.EmitSimple(EventTypeLoopTrigger, uint64(now), tr.Owner, LoopTriggerPayload{
			Owner: uint64(tr.Owner), Ring: tr.Ring, LoopCount: tr.LoopCount, X: tr.Impact.Pos.X, Y: tr.Impact.Pos.Y,
		})
	}
	e.specs = append(e.specs[:0], in.Projectiles...)
	e.specs = e.generateAttacks(in.Fire, e.triggers, e.specs)
	for _, spec := range e.specs {
		if !e.spawnProjectile(spec, now) {
			stats.DroppedSpawns++
		}
	}

	// Motion
	for _, p := range e.projectiles {
		p.advance()
	}

	// Spatial query into the hit collectors
	e.rebuildView()
	e.query.rebuild()
	cs := combat.Collect(e.view, e.query, e.cfg.Combat.HitCap)
	stats.Hits = cs.Hits
	stats.CollectorOverflow = cs.Overflow

	// Enqueue, fanned out by status family
	es := combat.EnqueueAll(e.view, e.arena, e.cfg.Sim.StepsPerSecond)
	stats.Records = es.Records
	stats.Stale = es.Stale

	// Pierce and ledger
	ps := combat.ApplyPierce(e.view)
	stats.Doomed = ps.Doomed
	stats.LedgerOverflow = ps.LedgerOverflow

	// Resolve every dirty target, in parallel
	e.dirty = e.arena.DirtyHandles(e.dirty)
	stats.Dirty = len(e.dirty)
	outcomes := e.resolver.ResolveAll(e.arena, e.dirty, now, e.cfg.Sim.Workers, &e.batch)
	for _, s := range e.sinks {
		combat.Emit(outcomes, s)
	}
	for i := range outcomes {
		stats.HealthChanges += len(outcomes[i].Changes)
	}

	// Dissolve and subdivide ticks; their damage resolves next step
	for i := 0; i < e.arena.Len(); i++ {
		h := combat.Handle(i)
		res := e.resolver.Tick(e.arena.Target(h), e.arena.Queue(h), now)
		if res.Dissolve {
			stats.DissolveTicks++
		}
		if res.Burst {
			stats.SubdivideBursts++
		}
	}

	// Secondary spawns from decimation procs
	e.procs = combat.CollectProcs(outcomes, e.procs)
	stats.Procs = len(e.procs)
	e.requests = e.spawner.Spawn(e.stepSeed, e.procs, e.arena, e.query, e.requests[:0])
	for _, r := range e.requests {
		e.mutations.Append(Mutation{
			Kind: MutSpawnProjectile,
			Projectile: ProjectileSpec{
				Archetype: r.Archetype,
				Pos:       r.Pos,
				Vel:       r.Vel,
				Ignore:    r.Source,
			},
		})
		e.eventLog.EmitSimple(EventTypeSecondarySpawn, uint64(now), r.Source, ProcPayload{
			TargetID:  uint64(r.Source),
			Index:     r.Index,
			Archetype: r.Archetype,
		})
	}

	// Loop feedback for the next step's attack generation
	stats.LoopTriggers = combat.Feedback(e.view, e.arena, e.cfg.Combat.LoopMax, e.loops)

	// Cleanup
	stats.ProjectilesDestroyed = e.cleanupProjectiles(now)
	for _, t := range e.arena.Targets() {
		if t.Dead() {
			e.mutations.Append(Mutation{Kind: MutDestroyTarget, TargetID: t.ID})
		}
	}
	e.applyMutations(now, &stats)

	e.stateHash = e.hasher.sum(e)
	return stats
}

// rebuildView refreshes the combat view in id order. Projectiles are only
// ever appended with increasing ids and removed by in-place filtering, so
// the slice is already ordered; the sort is a cheap confirmation.
func (e *Engine) rebuildView() {
	e.view = e.view[:0]
	for _, p := range e.projectiles {
		e.view = append(e.view, &p.Projectile)
	}
	combat.SortByID(e.view)
}

func (e *Engine) allocID() combat.StableID {
	id := e.nextID
	e.nextID++
	return id
}

// spawnTarget adds a target immediately. Explicit ids advance the allocator
// past themselves so auto ids never collide with them.
func (e *Engine) spawnTarget(ts TargetSpec) bool {
	id := ts.ID
	if id == combat.NoID {
		id = e.allocID()
	} else if id >= e.nextID {
		e.nextID = id + 1
	}
	radius := ts.Radius
	if radius <= 0 {
		radius = DefaultTargetRadius
	}
	health := ts.MaxHealth
	if health == 0 {
		health = 100
	}

	t := combat.Target{ID: id, Pos: ts.Pos, Radius: radius, Health: health, MaxHealth: health}
	if !e.arena.Add(t) {
		return false
	}
	e.eventLog.EmitSimple(EventTypeTargetSpawn, uint64(e.step), id, TargetPayload{
		TargetID: uint64(id), X: ts.Pos.X, Y: ts.Pos.Y, Health: t.Health, MaxHealth: t.MaxHealth,
	})
	return true
}

// spawnProjectile adds a projectile immediately, dropping it at the cap.
func (e *Engine) spawnProjectile(spec ProjectileSpec, now combat.Step) bool {
	if len(e.projectiles) >= e.cfg.Limits.MaxProjectiles {
		return false
	}
	p := newProjectile(spec, e.allocID(), now)
	e.projectiles = append(e.projectiles, p)
	e.eventLog.EmitSimple(EventTypeProjectileSpawn, uint64(now), p.Owner, ProjectilePayload{
		ProjectileID: uint64(p.ID), Owner: uint64(p.Owner), Archetype: p.Archetype,
	})
	return true
}

// cleanupProjectiles removes doomed, expired and escaped projectiles in place
// and clears the hit collectors of the survivors.
func (e *Engine) cleanupProjectiles(now combat.Step) int {
	removed := 0
	n := 0
	for _, p := range e.projectiles {
		reason := ""
		switch {
		case p.Doomed:
			reason = "pierce"
		case p.Expired(now):
			reason = "expired"
		case p.outOfBounds(e.cfg.Sim.WorldWidth, e.cfg.Sim.WorldHeight):
			reason = "bounds"
		}
		if reason == "" {
			p.Hits.Clear()
			e.projectiles[n] = p
			n++
			continue
		}
		removed++
		e.eventLog.EmitSimple(EventTypeProjectileDestroyed, uint64(now), p.Owner, ProjectilePayload{
			ProjectileID: uint64(p.ID), Owner: uint64(p.Owner), Archetype: p.Archetype, Reason: reason,
		})
	}
	clear(e.projectiles[n:])
	e.projectiles = e.projectiles[:n]
	return removed
}

// applyMutations replays the mutation log: target destructions are batched
// into one compaction, spawns are applied in log order up to the per-step cap.
func (e *Engine) applyMutations(now combat.Step, stats *StepStats) {
	clear(e.dead)
	spawned := 0
	for _, m := range e.mutations.Entries() {
		switch m.Kind {
		case MutDestroyTarget:
			if t, ok := e.arena.Lookup(m.TargetID); ok {
				e.dead[m.TargetID] = struct{}{}
				e.eventLog.EmitSimple(EventTypeTargetDestroyed, uint64(now), t.ID, TargetPayload{
					TargetID: uint64(t.ID), X: t.Pos.X, Y: t.Pos.Y,
					Health: t.Health, MaxHealth: t.MaxHealth, DamageTaken: t.DamageTaken,
				})
			}
		case MutSpawnTarget:
			e.spawnTarget(m.Target)
		case MutSpawnProjectile:
			if spawned >= e.cfg.Limits.MaxSpawnsPerStep || !e.spawnProjectile(m.Projectile, now) {
				stats.DroppedSpawns++
				continue
			}
			spawned++
		}
	}
	stats.Spawns = spawned
	stats.TargetsDestroyed = e.arena.Remove(e.dead)
	e.mutations.Reset()
}

// produceSnapshot publishes the post-step state for lock-free readers
func (e *Engine) produceSnapshot() {
	snap := e.snapshotPool.AcquireWrite()
	snap.Step = uint64(e.step)
	snap.StepSeed = e.stepSeed
	snap.StateHash = e.stateHash
	snap.Stats = e.lastStats

	for _, t := range e.arena.Targets() {
		if len(snap.Targets) >= e.cfg.Limits.MaxSnapshotTargets {
			break
		}
		snap.Targets = append(snap.Targets, toTargetSnapshot(&t))
	}
	for _, p := range e.projectiles {
		if len(snap.Projectiles) >= e.cfg.Limits.MaxSnapshotProjectiles {
			break
		}
		snap.Projectiles = append(snap.Projectiles, p.ToSnapshot())
	}
	snap.TargetCount = e.arena.Len()
	snap.ProjectileCount = len(e.projectiles)

	e.snapshotPool.PublishWrite()
}

// GetSnapshot returns the latest immutable snapshot, nil before the first step
func (e *Engine) GetSnapshot() *GameSnapshot {
	return e.snapshotPool.AcquireRead()
}

// StateHash returns the current step and the digest of the state after it.
func (e *Engine) StateHash() (uint64, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return uint64(e.step), e.stateHash
}

// CurrentStep returns the number of steps run so far
func (e *Engine) CurrentStep() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return uint64(e.step)
}

// LastStats returns what the most recent step did
func (e *Engine) LastStats() StepStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastStats
}

// Target returns a copy of a live target
func (e *Engine) Target(id combat.StableID) (combat.Target, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.arena.Lookup(id)
}

// TargetCount returns the number of live targets
func (e *Engine) TargetCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.arena.Len()
}

// ProjectileCount returns the number of live projectiles
func (e *Engine) ProjectileCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.projectiles)
}

// PendingLoopTriggers returns the triggers waiting for the next step
func (e *Engine) PendingLoopTriggers() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loops.Len()
}

// GridStats returns broad-phase statistics for the last step
func (e *Engine) GridStats() spatial.GridStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.grid.Stats()
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig { return e.cfg }

// StartEventLog initializes the event logging system
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog gracefully stops the event logging system
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns event log statistics for monitoring
func (e *Engine) GetEventLogStats() map[string]any {
	return e.eventLog.GetStats()
}
