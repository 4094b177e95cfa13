package enums

import "fmt"

// Role is the primary role assigned to every portal user.
type Role string

const (
	RoleReferee    Role = "referee"
	RoleJTAdmin    Role = "jt_admin"
	RoleVBMember   Role = "vb_member"
	RoleInspector  Role = "inspector"
	RoleAccountant Role = "accountant"
	RoleAdmin      Role = "admin"
)

var validRoles = []Role{
	RoleReferee,
	RoleJTAdmin,
	RoleVBMember,
	RoleInspector,
	RoleAccountant,
	RoleAdmin,
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

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
