package combat

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// HealthChange is the fire-and-forget notification emitted for every health
// delta the resolver applies. Delta is signed: damage is negative.
type HealthChange struct {
	Target StableID
	Delta  int32
	Kind   Kind // KindCut marks the cut amplification event
	Step   Step
}

// HealthSink consumes health-changed notifications. Sinks are presentation
// and telemetry only and must never feed back into simulation state.
//
//go:generate go tool mockgen -destination=./mocks/health_sink_mock.go -package=mocks . HealthSink
type HealthSink interface {
	HealthChanged(c HealthChange)
}

// Arena is the view of the target store the pipeline works against.
type Arena interface {
	IdentityMap
	Target(h Handle) *Target
	Queue(h Handle) *PendingQueue
}

// Outcome is everything one resolver pass produced for one target.
type Outcome struct {
	Target  StableID
	Pos     Vec2
	Records int
	Procs   int
	Changes []HealthChange

	records []Record
}

func (o *Outcome) reset(t *Target) {
	o.Target = t.ID
	o.Pos = t.Pos
	o.Records = 0
	o.Procs = 0
	o.Changes = o.Changes[:0]
}

// Resolver is the single writer of target health and status counters.
type Resolver struct {
	tuning Tuning
	mult   *MultiplierTable
}

// NewResolver creates a resolver for the given tuning.
func NewResolver(t Tuning) *Resolver {
	return &Resolver{
		tuning: t,
		mult:   NewMultiplierTable(t.DegeneratePerPoint),
	}
}

// Multiplier returns the damage multiplier for a degenerate counter.
func (r *Resolver) Multiplier(degenerate uint8) float64 { return r.mult.At(degenerate) }

// Resolve drains q into t in one pass. It never fails: unknown kinds and
// inert records are skipped, and the queue is emptied unconditionally.
//
// Status records are accumulated first, the multiplier is read from the
// resulting degenerate counter, then damage records are applied. Because the
// queue is sorted canonically and every accumulation is a saturating sum, the
// result does not depend on the order records were appended in.
func (r *Resolver) Resolve(t *Target, q *PendingQueue, now Step, out *Outcome) {
	out.reset(t)
	out.records = q.drainInto(out.records)
	out.Records = len(out.records)

	s := &t.Status
	for _, rec := range out.records {
		if rec.Magnitude <= 0 {
			continue
		}
		switch rec.Kind {
		case KindCut:
			s.Cut = addU8(s.Cut, rec.Magnitude)
		case KindDegenerate:
			s.Degenerate = addU8(s.Degenerate, rec.Magnitude)
		case KindSubdivide:
			if s.Subdivide == 0 {
				s.SubdivideAt = now + r.tuning.SubdivideDelay
			}
			s.Subdivide = addU16(s.Subdivide, rec.Magnitude)
		case KindDecimate:
			total := int64(s.Decimate) + int64(rec.Magnitude)
			if total >= DecimateThreshold {
				out.Procs += int(total / DecimateThreshold)
				total %= DecimateThreshold
			}
			s.Decimate = uint8(total)
		case KindDissolve:
			s.Dissolve = addU16(s.Dissolve, rec.Magnitude)
		}
	}

	mult := r.mult.At(s.Degenerate)
	for _, rec := range out.records {
		if !rec.Kind.IsDamage() || rec.Magnitude <= 0 {
			continue
		}
		r.apply(t, scaled(rec.Magnitude, mult), rec.Kind, now, out)
		// cut amplifies every Damage record, including dissolve ticks
		if rec.Kind == KindDamage && s.Cut > 0 {
			r.apply(t, scaled(int32(s.Cut), mult), KindCut, now, out)
		}
	}

	t.Active = s.Mask()
}

func (r *Resolver) apply(t *Target, dmg int32, k Kind, now Step, out *Outcome) {
	if dmg <= 0 {
		return
	}
	t.DamageTaken += int64(dmg)
	if !t.Unlimited() {
		t.Health = subHealth(t.Health, dmg)
	}
	out.Changes = append(out.Changes, HealthChange{Target: t.ID, Delta: -dmg, Kind: k, Step: now})
}

// TickResult reports what a status tick enqueued.
type TickResult struct {
	Dissolve bool
	Burst    bool
}

// Tick runs the once-per-step status ticks for a target: the dissolve
// damage-over-time tick and the subdivide burst. Both enqueue Damage records
// that are resolved on the next pass, so cut and the multiplier apply to them.
func (r *Resolver) Tick(t *Target, q *PendingQueue, now Step) TickResult {
	var res TickResult
	if t.Active&(StatusDissolve|StatusSubdivide) == 0 {
		return res
	}
	s := &t.Status
	if s.Dissolve > 0 {
		q.Append(Record{Kind: KindDamage, Magnitude: int32(s.Dissolve)})
		s.Dissolve--
		res.Dissolve = true
	}
	if s.Subdivide > 0 && now >= s.SubdivideAt {
		burst := mulClamp(int64(s.Subdivide), int64(r.tuning.SubdivideBurst))
		q.Append(Record{Kind: KindDamage, Magnitude: burst})
		s.Subdivide = 0
		s.SubdivideAt = 0
		res.Burst = true
	}
	t.Active = s.Mask()
	return res
}

// Batch holds reusable outcome buffers across steps.
type Batch struct {
	Outcomes []Outcome
}

// ResolveAll resolves every handle in dirty, in parallel across workers.
// Each worker touches only its own targets and its own outcome slots, so
// Outcomes[i] always corresponds to dirty[i] regardless of scheduling.
func (r *Resolver) ResolveAll(arena Arena, dirty []Handle, now Step, workers int, b *Batch) []Outcome {
	if cap(b.Outcomes) < len(dirty) {
		grown := make([]Outcome, len(dirty))
		copy(grown, b.Outcomes[:cap(b.Outcomes)])
		b.Outcomes = grown
	}
	b.Outcomes = b.Outcomes[:len(dirty)]
	if len(dirty) == 0 {
		return b.Outcomes
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (len(dirty) + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < len(dirty); start += chunk {
		end := min(start+chunk, len(dirty))
		g.Go(func() error {
			for i := start; i < end; i++ {
				h := dirty[i]
				r.Resolve(arena.Target(h), arena.Queue(h), now, &b.Outcomes[i])
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return b.Outcomes
}

// Emit delivers every change in outcomes to sink in outcome order and
// returns how many were delivered.
func Emit(outcomes []Outcome, sink HealthSink) int {
	if sink == nil {
		return 0
	}
	n := 0
	for i := range outcomes {
		for _, c := range outcomes[i].Changes {
			sink.HealthChanged(c)
			n++
		}
	}
	return n
}
