package domain

// StaffRole enumerates event-staff capabilities.
type StaffRole string

const (
	StaffRoleBartender   StaffRole = "bartender"
	StaffRoleServer      StaffRole = "server"
	StaffRoleKitchen     StaffRole = "kitchen"
	StaffRoleCoordinator StaffRole = "coordinator"
	StaffRoleSecurity    StaffRole = "security"
)

// ValidStaffRole reports whether the role is a known capability.
func ValidStaffRole(role StaffRole) bool {
	switch role {
	case StaffRoleBartender, StaffRoleServer, StaffRoleKitchen, StaffRoleCoordinator, StaffRoleSecurity:
		return true
	}
	return false
}

// StaffStatus represents a staff member's placement state.
type StaffStatus string

const (
	StaffStatusAvailable   StaffStatus = "available"
	StaffStatusAssigned    StaffStatus = "assigned"
	StaffStatusUnavailable StaffStatus = "unavailable"
)

// ValidStaffStatus reports whether the status is a known placement state.
func ValidStaffStatus(status StaffStatus) bool {
	switch status {
	case StaffStatusAvailable, StaffStatusAssigned, StaffStatusUnavailable:
		return true
	}
	return false
}

// StaffProfile is the 1:1 extension of a staff-role Profile. Status is the
// externally observable truth for "is this person currently placed"; only
// dispatch acceptance sets it to assigned.
type StaffProfile struct {
	ID         string
	StaffRoles []StaffRole
	City       string
	Status     StaffStatus
}

// HasRole reports whether the staff member carries the given capability.
func (s *StaffProfile) HasRole(role StaffRole) bool {
	for _, r := range s.StaffRoles {
		if r == role {
			return true
		}
	}
	return false
}
