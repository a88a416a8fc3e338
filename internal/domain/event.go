package domain

import "time"

// EventStatus enumerates event lifecycle states.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusOpen      EventStatus = "open"
	EventStatusLive      EventStatus = "live"
	EventStatusCompleted EventStatus = "completed"
)

// Event is the aggregate for a staffed engagement.
type Event struct {
	ID           string
	Title        string
	Description  *string
	Date         time.Time
	StartTime    string
	EndTime      string
	Location     string
	City         string
	ClientID     *string
	VendorID     *string
	CreatedBy    string
	Status       EventStatus
	Requirements []RoleRequirement
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleRequirement declares the need for Quantity staff of Role at an event.
// Unique per (event, role); quantity is never negative.
type RoleRequirement struct {
	ID       string
	EventID  string
	Role     StaffRole
	Quantity int
}
