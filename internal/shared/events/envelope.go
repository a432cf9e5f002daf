package events

import "time"

// Envelope is the notification shape every bus transport carries. Payload is
// the event body exactly as the publishing use case built it.
type Envelope struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	SourceService  string    `json:"source_service"`
	OccurredAtUTC  time.Time `json:"occurred_at_utc"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	PayloadVersion int       `json:"payload_version"`
	Summary        string    `json:"summary,omitempty"`
	Payload        any       `json:"payload"`
}
