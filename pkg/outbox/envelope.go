package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event. System-driven events use
// Kind "system" and no staff id.
type ActorRef struct {
	StaffID string `json:"staffId,omitempty"`
	Kind    string `json:"kind"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
