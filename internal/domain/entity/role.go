// Package entity contains the core business objects of the project.
package entity

// Role represents the type of role a user can have in the system.
type Role string

const (
	// RoleUser indicates a regular user role.
	RoleUser Role = "user"
	// RoleOrganizer indicates an event organizer role.
	RoleOrganizer Role = "organizer"
	// RoleOwner indicates a venue owner role.
	RoleOwner Role = "owner"
	// RoleSuperadmin indicates the administrative role.
	RoleSuperadmin Role = "superadmin"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleOrganizer, RoleOwner, RoleSuperadmin:
		return true
	default:
		return false
	}
}

// RoleFromString converts a string to a Role, falling back to RoleUser for
// unknown values so a corrupt claim never grants an elevated role.
func RoleFromString(s string) Role {
	role := Role(s)
	if role.IsValid() {
		return role
	}

	return RoleUser
}
