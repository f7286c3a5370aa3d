// Package combat implements the status-effect accumulation and damage
// resolution pipeline.
//
// Everything in this package is deterministic: given the same inputs and the
// same step seed, every peer produces bit-identical target state. Nothing here
// performs I/O, reads the wall clock, or iterates an unordered map.
package combat

// StableID is a network-portable reference to an actor. It is identical on
// every peer and is the only identifier carried across steps.
type StableID uint64

// NoID is never assigned to a live actor.
const NoID StableID = 0

// Handle is a local arena slot. Handles are NOT stable across steps: the arena
// compacts when targets are destroyed, so a handle must be resolved fresh from
// a StableID every time it is needed.
type Handle int32

// InvalidHandle is returned by failed resolutions.
const InvalidHandle Handle = -1

// Step is the simulation step counter. All timestamps in the pipeline are
// expressed in steps, never in wall-clock time.
type Step uint64

// IdentityMap resolves a stable identifier to the current local handle.
type IdentityMap interface {
	Resolve(id StableID) (Handle, bool)
}

// Vec2 is a world-space position or velocity.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Scale returns v*s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
