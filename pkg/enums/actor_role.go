package enums

import "fmt"

// ActorRole is the coarse role the trusted gateway asserts for a caller.
type ActorRole string

const (
	ActorRoleRequester ActorRole = "requester"
	ActorRoleStaff     ActorRole = "staff"
	ActorRoleAdmin     ActorRole = "admin"
)

var validActorRoles = []ActorRole{
	ActorRoleRequester,
	ActorRoleStaff,
	ActorRoleAdmin,
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanModerate reports whether the role may act on other users' reservations.
func (r ActorRole) CanModerate() bool {
	return r == ActorRoleStaff || r == ActorRoleAdmin
}

// CanAdministerBlackouts reports whether the role may manage blackout slots.
func (r ActorRole) CanAdministerBlackouts() bool {
	return r == ActorRoleAdmin
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
