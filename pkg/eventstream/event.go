// Package eventstream defines the events emitted while replay sessions answer
// requests and the publishers that carry them.
package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeRequestResolved is emitted after a session resolves a request.
	EventTypeRequestResolved = "playback.request.resolved"
)

// ResolvedEvent is a transport-neutral payload for one resolved request.
type ResolvedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	// Session is the id of the replay session that answered.
	Session string `json:"session"`

	// Description is the live request as it was asked.
	Description string `json:"description"`

	// Matched is false when the trace had no candidate for the request.
	Matched bool `json:"matched"`

	// Key is the recorded request that answered, if any.
	Key string `json:"key,omitempty"`

	// Exact reports a literal key hit as opposed to a fuzzy match.
	Exact bool `json:"exact"`

	// Responses holds the raw response chunks of the replayed generation.
	Responses []string `json:"responses,omitempty"`

	// Error is set when resolving failed, e.g. on a forced exact mismatch.
	Error string `json:"error,omitempty"`
}

// NewResolvedEvent returns an event for session and description with its
// envelope fields filled in.
func NewResolvedEvent(session, description string) *ResolvedEvent {
	return &ResolvedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeRequestResolved,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Session:       session,
		Description:   description,
	}
}
