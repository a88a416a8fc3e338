package events

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEventCreated      EventType = "event_created"
	EventDispatchIssued    EventType = "dispatch_issued"
	EventDispatchResponded EventType = "dispatch_responded"
	EventMessagePosted     EventType = "message_posted"
	EventInviteCreated     EventType = "invite_created"
	EventProfileSynced     EventType = "profile_synced"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string          `json:"id"`
	Role domain.UserRole `json:"role"`
}

// Event represents a domain event emitted by services. EventID references
// the staffing event the notification concerns; it is empty for directory
// and invite events.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EventID   string      `json:"event_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// EventCreatedPayload payload.
type EventCreatedPayload struct {
	Title  string             `json:"title"`
	City   string             `json:"city"`
	Status domain.EventStatus `json:"status"`
}

// DispatchIssuedPayload payload.
type DispatchIssuedPayload struct {
	Role     domain.StaffRole `json:"role"`
	StaffIDs []string         `json:"staff_ids"`
}

// DispatchRespondedPayload payload.
type DispatchRespondedPayload struct {
	DispatchID string                `json:"dispatch_id"`
	StaffID    string                `json:"staff_id"`
	Role       domain.StaffRole      `json:"role"`
	NewStatus  domain.DispatchStatus `json:"new_status"`
}

// MessagePostedPayload payload.
type MessagePostedPayload struct {
	MessageID   string `json:"message_id"`
	SenderID    string `json:"sender_id"`
	IsPrivate   bool   `json:"is_private"`
	BodyPreview string `json:"body_preview"`
}

// InviteCreatedPayload payload.
type InviteCreatedPayload struct {
	Email string             `json:"email"`
	City  string             `json:"city"`
	Roles []domain.StaffRole `json:"roles"`
}

// ProfileSyncedPayload payload.
type ProfileSyncedPayload struct {
	ProfileID string          `json:"profile_id"`
	Role      domain.UserRole `json:"role"`
	Action    string          `json:"action"`
}
