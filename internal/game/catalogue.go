package game

import (
	"math"
	"sort"

	"ring-arena/internal/combat"
)

// Archetype is a projectile configuration
type Archetype struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Base     int32          `json:"base"`     // damage per hit, per second when DoT
	DoT      bool           `json:"dot"`      // damages every overlapped target each step
	Pierce   int            `json:"pierce"`   // charges, combat.InfinitePierce for unlimited
	Speed    float64        `json:"speed"`    // world units per step
	Radius   float64        `json:"radius"`   // collision radius
	Lifetime combat.Step    `json:"lifetime"` // steps until expiry
	Payload  combat.Payload `json:"payload"`
	Color    string         `json:"color"`
}

// Archetypes is the map of all projectile archetypes
// NOTE: Speed should stay below the grid cell size so a swept query covers
// at most a handful of cells.
var Archetypes = map[string]Archetype{
	"bolt": {
		ID:       "bolt",
		Name:     "Bolt",
		Base:     15,
		Pierce:   0,
		Speed:    18,
		Radius:   4,
		Lifetime: 90,
		Payload: combat.Payload{
			Families: combat.FamilyDamage | combat.FamilyCut,
			Cut:      5,
		},
		Color: "#ffeb3b",
	},
	"lance": {
		ID:       "lance",
		Name:     "Lance",
		Base:     22,
		Pierce:   2,
		Speed:    24,
		Radius:   3,
		Lifetime: 60,
		Payload: combat.Payload{
			Families:   combat.FamilyDamage | combat.FamilyDegenerate,
			Degenerate: 6,
		},
		Color: "#2196f3",
	},
	"shatter": {
		ID:       "shatter",
		Name:     "Shatter Orb",
		Base:     10,
		Pierce:   0,
		Speed:    12,
		Radius:   8,
		Lifetime: 90,
		Payload: combat.Payload{
			Families: combat.FamilyDamage | combat.FamilyDecimate | combat.FamilyLoop,
			Decimate: 55,
		},
		Color: "#9c27b0",
	},
	"rift": {
		ID:       "rift",
		Name:     "Rift",
		Base:     8,
		Pierce:   combat.InfinitePierce,
		Speed:    10,
		Radius:   6,
		Lifetime: 75,
		Payload: combat.Payload{
			Families:  combat.FamilyDamage | combat.FamilySubdivide,
			Subdivide: 4,
		},
		Color: "#00bcd4",
	},
	"miasma": {
		ID:       "miasma",
		Name:     "Miasma Cloud",
		Base:     30, // per second
		DoT:      true,
		Speed:    2,
		Radius:   40,
		Lifetime: 150,
		Payload: combat.Payload{
			Families: combat.FamilyDamage | combat.FamilyDissolve,
			Dissolve: 2,
		},
		Color: "#8bc34a",
	},
	"ram": {
		ID:       "ram",
		Name:     "Battering Ram",
		Base:     0,
		Pierce:   1,
		Speed:    14,
		Radius:   10,
		Lifetime: 45,
		Payload: combat.Payload{
			Families: combat.FamilyPoke | combat.FamilyLoop,
			Poke:     12,
		},
		Color: "#ff5722",
	},
	"shard": {
		ID:       "shard",
		Name:     "Shard",
		Base:     6,
		Pierce:   0,
		Speed:    20,
		Radius:   3,
		Lifetime: 30,
		Payload: combat.Payload{
			Families: combat.FamilyDamage | combat.FamilyCut,
			Cut:      1,
		},
		Color: "#e91e63",
	},
	"splinter": {
		ID:       "splinter",
		Name:     "Splinter",
		Base:     4,
		Pierce:   1,
		Speed:    26,
		Radius:   2,
		Lifetime: 25,
		Payload: combat.Payload{
			Families:   combat.FamilyDamage | combat.FamilyDegenerate,
			Degenerate: 2,
		},
		Color: "#ff9800",
	},
}

// GetArchetype returns an archetype by ID, defaults to bolt
func GetArchetype(id string) Archetype {
	if a, ok := Archetypes[id]; ok {
		return a
	}
	return Archetypes["bolt"]
}

// GetAllArchetypes returns all archetypes sorted by ID
func GetAllArchetypes() []Archetype {
	all := make([]Archetype, 0, len(Archetypes))
	for _, a := range Archetypes {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Ring is one attack slot: the archetype it fires and the volley shape
type Ring struct {
	Index     int     `json:"index"`
	Archetype string  `json:"archetype"`
	Volley    int     `json:"volley"` // projectiles per activation
	Spread    float64 `json:"spread"` // total fan angle in radians
}

// Rings is the ring catalogue indexed by ring index
var Rings = []Ring{
	{Index: 0, Archetype: "bolt", Volley: 1},
	{Index: 1, Archetype: "lance", Volley: 1},
	{Index: 2, Archetype: "shatter", Volley: 3, Spread: math.Pi / 6},
	{Index: 3, Archetype: "rift", Volley: 1},
	{Index: 4, Archetype: "miasma", Volley: 1},
	{Index: 5, Archetype: "ram", Volley: 2, Spread: math.Pi / 8},
}

// GetRing returns the ring at index, defaults to ring 0
func GetRing(index int) Ring {
	if index >= 0 && index < len(Rings) {
		return Rings[index]
	}
	return Rings[0]
}

// SecondaryCatalogue lists what decimation procs may spawn
func SecondaryCatalogue() []combat.SecondaryPrefab {
	return []combat.SecondaryPrefab{
		{Archetype: "shard", Weight: 3, Speed: Archetypes["shard"].Speed},
		{Archetype: "splinter", Weight: 1, Speed: Archetypes["splinter"].Speed},
	}
}
