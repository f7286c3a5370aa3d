package game

import (
	"ring-arena/internal/combat"
)

// eventSink records health changes in the event log. It is registered on
// every engine and is a no-op while the log is stopped.
type eventSink struct {
	log *EventLog
}

func (s eventSink) HealthChanged(c combat.HealthChange) {
	s.log.EmitSimple(EventTypeHealthChanged, uint64(c.Step), c.Target, HealthChangedPayload{
		TargetID: uint64(c.Target),
		Delta:    c.Delta,
		Kind:     c.Kind.String(),
	})
}

// SinkFunc adapts a plain function to combat.HealthSink
type SinkFunc func(combat.HealthChange)

// HealthChanged calls f(c).
func (f SinkFunc) HealthChanged(c combat.HealthChange) { f(c) }
