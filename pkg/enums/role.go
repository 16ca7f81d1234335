package enums

import "fmt"

// Role is the workshop staff role attached to a user account.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleWarehouse Role = "warehouse"
	RoleDelivery  Role = "delivery"
)

var validRoles = []Role{
	RoleOwner,
	RoleAdmin,
	RoleWarehouse,
	RoleDelivery,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsManager reports whether the role carries owner/admin privileges.
func (r Role) IsManager() bool {
	return r == RoleOwner || r == RoleAdmin
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
