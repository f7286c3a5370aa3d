package combat

// Kind tags a pending effect record.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindDamage
	KindCut
	KindDegenerate
	KindSubdivide
	KindDecimate
	KindDissolve
	KindPoke // push/impulse; damages but does not trigger cut amplification
)

// String returns the kind name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindDamage:
		return "damage"
	case KindCut:
		return "cut"
	case KindDegenerate:
		return "degenerate"
	case KindSubdivide:
		return "subdivide"
	case KindDecimate:
		return "decimate"
	case KindDissolve:
		return "dissolve"
	case KindPoke:
		return "poke"
	default:
		return "unknown"
	}
}

// IsStatus reports whether records of this kind accumulate into a counter.
func (k Kind) IsStatus() bool {
	switch k {
	case KindCut, KindDegenerate, KindSubdivide, KindDecimate, KindDissolve:
		return true
	}
	return false
}

// IsDamage reports whether records of this kind subtract health.
func (k Kind) IsDamage() bool {
	return k == KindDamage || k == KindPoke
}

// Record is a queued, typed, not-yet-applied combat effect.
// Records with a non-positive magnitude are inert.
type Record struct {
	Kind      Kind
	Magnitude int32
}

// recordLess is the canonical order used by the resolver. Sorting by value
// makes the drain independent of the order producers appended in.
func recordLess(a, b Record) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch {
	case a.Magnitude < b.Magnitude:
		return -1
	case a.Magnitude > b.Magnitude:
		return 1
	}
	return 0
}
