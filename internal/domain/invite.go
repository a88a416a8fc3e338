package domain

import "time"

// StaffInvite is a single-use onboarding token with pre-assigned city and
// capabilities. Once accepted or expired it is permanently invalid.
type StaffInvite struct {
	ID         string
	Email      string
	InvitedBy  string
	StaffRoles []StaffRole
	City       string
	Token      string
	Accepted   bool
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the invite is past its expiry at the given instant.
func (i *StaffInvite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
