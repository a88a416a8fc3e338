package domain

import "time"

// DispatchStatus enumerates the dispatch-request state machine:
// pending (initial) -> accepted | declined, both terminal.
type DispatchStatus string

const (
	DispatchStatusPending  DispatchStatus = "pending"
	DispatchStatusAccepted DispatchStatus = "accepted"
	DispatchStatusDeclined DispatchStatus = "declined"
)

// DispatchRequest is a job offer for one role at one event sent to one
// staff candidate. Multiple requests may exist per (event, role), one per
// candidate contacted; re-offers to the same candidate are not prevented.
type DispatchRequest struct {
	ID          string
	EventID     string
	StaffID     string
	Role        StaffRole
	Status      DispatchStatus
	SentAt      time.Time
	RespondedAt *time.Time
}
