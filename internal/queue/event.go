// Package queue carries domain events over RabbitMQ: a topic-exchange
// publisher used by the services and a background consumer that appends
// every event to the audit log.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Event types, also used as routing keys on the topic exchange.
const (
	UserRegistered  = "user.registered"
	UserRoleChanged = "user.role_changed"
	UserDeleted     = "user.deleted"
	StoreCreated    = "store.created"
	StoreUpdated    = "store.updated"
	StoreDeleted    = "store.deleted"
	RatingSubmitted = "rating.submitted"
	RatingUpdated   = "rating.updated"
)

// Event is published after the mutation it describes has committed.  It
// carries enough context for the audit consumer to write a line without
// reading the database.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	ActorID    string            `json:"actor_id,omitempty"`
	SubjectID  string            `json:"subject_id"`
	Attrs      map[string]string `json:"attrs,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewEvent stamps an event with a fresh id and the current UTC time.
func NewEvent(typ, actorID, subjectID string, attrs map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		ActorID:    actorID,
		SubjectID:  subjectID,
		Attrs:      attrs,
		OccurredAt: time.Now().UTC(),
	}
}
