package combat

// Family is a bitset of the status families a projectile carries.
type Family uint16

const (
	FamilyDamage Family = 1 << iota
	FamilyCut
	FamilyDegenerate
	FamilySubdivide
	FamilyDecimate
	FamilyDissolve
	FamilyPoke
	FamilyLoop
)

// Has reports whether all bits in f are set.
func (p Family) Has(f Family) bool { return p&f == f }

// Payload describes what a projectile applies on hit.
type Payload struct {
	Families   Family
	Cut        int32
	Degenerate int32
	Subdivide  int32
	Decimate   int32
	Dissolve   int32
	Poke       int32
}

// Magnitude returns the payload magnitude for a status kind.
func (p Payload) Magnitude(k Kind) int32 {
	switch k {
	case KindCut:
		return p.Cut
	case KindDegenerate:
		return p.Degenerate
	case KindSubdivide:
		return p.Subdivide
	case KindDecimate:
		return p.Decimate
	case KindDissolve:
		return p.Dissolve
	case KindPoke:
		return p.Poke
	}
	return 0
}

// InfinitePierce marks a projectile that never runs out of pierce charges.
const InfinitePierce = -1

// Projectile is the combat state of a moving attack. Motion is integrated by
// the engine; this package only reads Prev/Pos to build the swept shape.
type Projectile struct {
	ID        StableID
	Owner     StableID // owning player, NoID for environmental spawns
	Ring      int      // ring/slot index that generated it
	LoopCount int

	Prev, Pos Vec2
	Vel       Vec2
	Radius    float64

	Base     int32 // damage per hit, or per second for DoT projectiles
	DoT      bool
	Payload  Payload
	Pierce   int  // remaining charges; 0 destroys on first hit
	ExpireAt Step // zero never expires

	Hits   HitCollector
	Ledger Ledger
	Doomed bool
}

// Shape returns the swept circle covering this step's motion.
func (p *Projectile) Shape() Shape {
	return Shape{From: p.Prev, To: p.Pos, Radius: p.Radius}
}

// DamagePerHit returns the Damage record magnitude for one struck target.
// DoT projectiles spread Base across a second of steps, rounding up.
func (p *Projectile) DamagePerHit(stepsPerSecond int) int32 {
	if !p.DoT || stepsPerSecond <= 1 {
		return p.Base
	}
	sps := int32(stepsPerSecond)
	return (p.Base + sps - 1) / sps
}

// Expired reports whether the destroy-at-time policy has elapsed.
func (p *Projectile) Expired(now Step) bool {
	return p.ExpireAt != 0 && now >= p.ExpireAt
}
