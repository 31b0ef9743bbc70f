package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick
	EventTypeCollision
	EventTypeTargetHit
	EventTypeTargetRespawn
	EventTypeBulletFired
	EventTypeReset
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event sources, used as per-source rate limit keys.
const (
	SourceAircraft    = "aircraft"
	SourceTargets     = "targets"
	SourceProjectiles = "projectiles"
	SourceEngine      = "engine"
)

// Event is the core event structure for the event log
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano, simulation clock
	Sequence  uint64          `json:"sequence"`
	TickNum   uint64          `json:"tickNum"`
	Source    string          `json:"source"`
	Payload   json.RawMessage `json:"payload"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeCollision:
		return "collision"
	case EventTypeTargetHit:
		return "target_hit"
	case EventTypeTargetRespawn:
		return "target_respawn"
	case EventTypeBulletFired:
		return "bullet_fired"
	case EventTypeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// MarshalText writes the type name so NDJSON output stays readable.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Typed payloads for different event types

// TickPayload marks a tick boundary.
type TickPayload struct {
	Score   int `json:"score"`
	Bullets int `json:"bullets"`
	Active  int `json:"activeTargets"`
}

// CollisionPayload records a rejected move.
type CollisionPayload struct {
	Position [3]float64 `json:"position"` // candidate that was rejected
	Penalty  int        `json:"penalty"`
	Score    int        `json:"score"`
}

// TargetHitPayload records one destroyed target.
type TargetHitPayload struct {
	TargetID int `json:"targetId"`
	Points   int `json:"points"`
	Score    int `json:"score"`
}

// TargetRespawnPayload records a target returning to its original placement.
type TargetRespawnPayload struct {
	TargetID int `json:"targetId"`
}

// BulletFiredPayload records an accepted fire.
type BulletFiredPayload struct {
	BulletID uint64     `json:"bulletId"`
	Origin   [3]float64 `json:"origin"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event stamped at ts.
func NewEvent(eventType EventType, ts time.Time, tickNum uint64, source string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: ts.UnixNano(),
		TickNum:   tickNum,
		Source:    source,
		Payload:   EncodePayload(payload),
	}
}
