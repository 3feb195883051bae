package types

import (
	"strings"

	"github.com/gearbookhq/gearbook-backend/pkg/enums"
)

// Actor is the caller identity asserted by the trusted gateway.
type Actor struct {
	UserID string
	Email  string
	Name   string
	Role   enums.ActorRole
}

// IsZero reports whether no identity was asserted.
func (a Actor) IsZero() bool {
	return strings.TrimSpace(a.UserID) == ""
}

// CanModerate reports whether the actor may act on other users' reservations.
func (a Actor) CanModerate() bool {
	return a.Role.CanModerate()
}

// CanAdministerBlackouts reports whether the actor may manage blackout slots.
func (a Actor) CanAdministerBlackouts() bool {
	return a.Role.CanAdministerBlackouts()
}

// Owns reports whether the actor is the requester identified by externalUserID.
func (a Actor) Owns(externalUserID string) bool {
	return !a.IsZero() && a.UserID == externalUserID
}

// AuditLabel is the value written into history rows for this actor.
func (a Actor) AuditLabel() string {
	if a.Email != "" {
		return a.Email
	}
	return a.UserID
}
