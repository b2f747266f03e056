package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/concierge-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventSessionEnded   EventType = "session_ended"
	EventRoleSwitched   EventType = "role_switched"
)

// Event is emitted by the auth gateway when the session of a browser profile changes.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Scope     string      `json:"scope"`
	UserID    string      `json:"user_id,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, scope, userID string, role domain.Role) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Scope:     scope,
		UserID:    userID,
		Role:      role,
		Timestamp: time.Now().UTC(),
	}
}
