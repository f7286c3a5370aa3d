package game

import (
	"encoding/json"
	"time"

	"ring-arena/internal/combat"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeStep              // Step boundary with step seed
	EventTypeTargetSpawn
	EventTypeTargetDestroyed
	EventTypeProjectileSpawn
	EventTypeProjectileDestroyed
	EventTypeHealthChanged
	EventTypeDecimateProc
	EventTypeSecondarySpawn
	EventTypeLoopTrigger
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 3

// Event is the core event structure for the event log
type Event struct {
	Version   uint8           `json:"version"`   // Schema version
	RunID     string          `json:"runId"`     // Identifies one process lifetime
	Type      EventType       `json:"type"`      // Event type
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic sequence
	Step      uint64          `json:"step"`      // Simulation step this occurred in
	Source    combat.StableID `json:"source"`    // Target the event is attributed to; NoID for none
	Payload   json.RawMessage `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeStep:
		return "step"
	case EventTypeTargetSpawn:
		return "target_spawn"
	case EventTypeTargetDestroyed:
		return "target_destroyed"
	case EventTypeProjectileSpawn:
		return "projectile_spawn"
	case EventTypeProjectileDestroyed:
		return "projectile_destroyed"
	case EventTypeHealthChanged:
		return "health_changed"
	case EventTypeDecimateProc:
		return "decimate_proc"
	case EventTypeSecondarySpawn:
		return "secondary_spawn"
	case EventTypeLoopTrigger:
		return "loop_trigger"
	default:
		return "unknown"
	}
}

// MarshalText renders the type name in JSON output
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Typed payloads for different event types

// StepPayload contains step boundary information for replay
type StepPayload struct {
	StepSeed    uint64 `json:"stepSeed"`
	Targets     int    `json:"targets"`
	Projectiles int    `json:"projectiles"`
	StateHash   uint64 `json:"stateHash"` // hash of the state the step started from
}

// HealthChangedPayload mirrors one health-changed notification
type HealthChangedPayload struct {
	TargetID uint64 `json:"targetId"`
	Delta    int32  `json:"delta"`
	Kind     string `json:"kind"`
}

// TargetPayload describes a spawned or destroyed target
type TargetPayload struct {
	TargetID    uint64  `json:"targetId"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Health      int32   `json:"health"`
	MaxHealth   int32   `json:"maxHealth"`
	DamageTaken int64   `json:"damageTaken"`
}

// ProjectilePayload describes a spawned or destroyed projectile
type ProjectilePayload struct {
	ProjectileID uint64 `json:"projectileId"`
	Owner        uint64 `json:"owner"`
	Archetype    string `json:"archetype"`
	Reason       string `json:"reason,omitempty"` // pierce, expired, bounds
}

// ProcPayload contains one decimation proc and what it spawned
type ProcPayload struct {
	TargetID  uint64 `json:"targetId"`
	Index     int    `json:"index"`
	Archetype string `json:"archetype,omitempty"`
}

// LoopTriggerPayload contains one loop trigger
type LoopTriggerPayload struct {
	Owner     uint64  `json:"owner"`
	Ring      int     `json:"ring"`
	LoopCount int     `json:"loopCount"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload any) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, step uint64, source combat.StableID, payload any) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		Step:      step,
		Source:    source,
		Payload:   EncodePayload(payload),
	}
}
