package combat

// PierceStats counts what the pierce phase did.
type PierceStats struct {
	Doomed         int
	LedgerOverflow int
}

// ApplyPierce decides, for every projectile that struck something this step,
// whether it survives. Survivors merge the struck targets into their Ledger
// and spend one charge per target; a projectile that struck more targets than
// it has charges left is flagged for destruction. Its Hit Collector is left
// intact so the remaining phases of this step still see the hits.
//
// DoT projectiles ignore pierce entirely and live until they expire.
func ApplyPierce(ps []*Projectile) PierceStats {
	var stats PierceStats
	for _, p := range ps {
		hits := p.Hits.Len()
		if hits == 0 || p.DoT || p.Doomed {
			continue
		}
		if p.Pierce != InfinitePierce {
			if hits > p.Pierce {
				p.Pierce = 0
				p.Doomed = true
				stats.Doomed++
				continue
			}
			p.Pierce -= hits
		}
		for _, id := range p.Hits.IDs() {
			if !p.Ledger.Add(id) {
				stats.LedgerOverflow++
			}
		}
	}
	return stats
}
