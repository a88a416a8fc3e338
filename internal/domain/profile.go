package domain

import "time"

// UserRole enumerates top-level account roles.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleStaff  UserRole = "staff"
	RoleClient UserRole = "client"
	RoleVendor UserRole = "vendor"
)

// ValidUserRole reports whether the role is a known account role.
func ValidUserRole(role UserRole) bool {
	switch role {
	case RoleAdmin, RoleStaff, RoleClient, RoleVendor:
		return true
	}
	return false
}

// Profile is the identity record for every account in the directory.
// PasswordHash is nil for accounts provisioned through the identity-provider
// webhook; those accounts authenticate upstream.
type Profile struct {
	ID           string
	Email        string
	Name         string
	Role         UserRole
	Phone        *string
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
