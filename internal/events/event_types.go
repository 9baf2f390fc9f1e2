package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoggedIn        EventType = "session_logged_in"
	EventRegistered      EventType = "session_registered"
	EventLoggedOut       EventType = "session_logged_out"
	EventProfileEnriched EventType = "session_profile_enriched"
	EventSessionExpired  EventType = "session_expired"
)

// Event represents a session lifecycle event.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// SessionPayload describes the identity that a session event refers to.
type SessionPayload struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// ExpiredPayload describes the rejected call that ended a session.
type ExpiredPayload struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Code   string `json:"code,omitempty"`
}
