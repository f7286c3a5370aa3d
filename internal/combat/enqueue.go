package combat

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Enqueuer maps one status family's payload onto pending records.
type Enqueuer struct {
	Family Family
	Kind   Kind
}

// Enqueuers lists one enqueuer per status family, in a fixed order.
var Enqueuers = [...]Enqueuer{
	{FamilyDamage, KindDamage},
	{FamilyCut, KindCut},
	{FamilyDegenerate, KindDegenerate},
	{FamilySubdivide, KindSubdivide},
	{FamilyDecimate, KindDecimate},
	{FamilyDissolve, KindDissolve},
	{FamilyPoke, KindPoke},
}

// EnqueueStats counts what the enqueue phase did.
type EnqueueStats struct {
	Records int64
	Stale   int64 // struck ids that no longer resolve
}

func (e Enqueuer) magnitude(p *Projectile, stepsPerSecond int) int32 {
	if e.Kind == KindDamage {
		return p.DamagePerHit(stepsPerSecond)
	}
	return p.Payload.Magnitude(e.Kind)
}

// Run appends one record per struck target for every projectile carrying
// this family. Struck ids are resolved fresh; ids that no longer resolve are
// skipped silently.
func (e Enqueuer) Run(ps []*Projectile, arena Arena, stepsPerSecond int, stats *EnqueueStats) {
	var records, stale int64
	for _, p := range ps {
		if !p.Payload.Families.Has(e.Family) || p.Hits.Len() == 0 {
			continue
		}
		rec := Record{Kind: e.Kind, Magnitude: e.magnitude(p, stepsPerSecond)}
		for _, id := range p.Hits.IDs() {
			h, ok := arena.Resolve(id)
			if !ok {
				stale++
				continue
			}
			arena.Queue(h).Append(rec)
			records++
		}
	}
	atomic.AddInt64(&stats.Records, records)
	atomic.AddInt64(&stats.Stale, stale)
}

// EnqueueAll runs every family's enqueuer concurrently. Projectiles are only
// read; all writes land in the targets' pending queues, which accept
// concurrent producers.
func EnqueueAll(ps []*Projectile, arena Arena, stepsPerSecond int) EnqueueStats {
	var stats EnqueueStats
	var g errgroup.Group
	for _, e := range Enqueuers {
		g.Go(func() error {
			e.Run(ps, arena, stepsPerSecond, &stats)
			return nil
		})
	}
	_ = g.Wait()
	return stats
}
