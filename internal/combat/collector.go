package combat

// Fixed capacities of the per-projectile buffers. Configured caps are clamped
// to these.
const (
	MaxHits   = 16
	MaxLedger = 32
)

// HitCollector is the per-step buffer of targets a projectile struck.
type HitCollector struct {
	ids [MaxHits]StableID
	n   uint8
}

// Add appends id. It returns false when the collector is full; the caller
// drops the candidate.
func (c *HitCollector) Add(id StableID) bool {
	if int(c.n) >= MaxHits {
		return false
	}
	c.ids[c.n] = id
	c.n++
	return true
}

// IDs returns the struck targets in insertion order.
func (c *HitCollector) IDs() []StableID { return c.ids[:c.n] }

// Len returns the number of struck targets.
func (c *HitCollector) Len() int { return int(c.n) }

// Clear empties the collector.
func (c *HitCollector) Clear() { c.n = 0 }

// Ledger is the set of targets a projectile has already resolved against.
// It keeps a continuously overlapping projectile from re-hitting a target
// every step.
type Ledger struct {
	ids [MaxLedger]StableID
	n   uint8
}

// Contains reports whether id was already resolved.
func (l *Ledger) Contains(id StableID) bool {
	for i := 0; i < int(l.n); i++ {
		if l.ids[i] == id {
			return true
		}
	}
	return false
}

// Add records id. Duplicates are a no-op; a full ledger drops and returns false.
func (l *Ledger) Add(id StableID) bool {
	if l.Contains(id) {
		return true
	}
	if int(l.n) >= MaxLedger {
		return false
	}
	l.ids[l.n] = id
	l.n++
	return true
}

// Len returns the number of remembered targets.
func (l *Ledger) Len() int { return int(l.n) }

// IDs returns the remembered targets.
func (l *Ledger) IDs() []StableID { return l.ids[:l.n] }
