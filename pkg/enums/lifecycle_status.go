package enums

import "fmt"

// LifecycleStatus tracks a reservation from submission through physical
// checkout and return.
type LifecycleStatus string

const (
	LifecycleStatusPending             LifecycleStatus = "pending"
	LifecycleStatusConfirmed           LifecycleStatus = "confirmed"
	LifecycleStatusCompleted           LifecycleStatus = "completed"
	LifecycleStatusCancelled           LifecycleStatus = "cancelled"
	LifecycleStatusMaintenanceRequired LifecycleStatus = "maintenance_required"
)

var validLifecycleStatuses = []LifecycleStatus{
	LifecycleStatusPending,
	LifecycleStatusConfirmed,
	LifecycleStatusCompleted,
	LifecycleStatusCancelled,
	LifecycleStatusMaintenanceRequired,
}

// ActiveLifecycleStatuses are the states that hold capacity against a target.
var ActiveLifecycleStatuses = []LifecycleStatus{
	LifecycleStatusPending,
	LifecycleStatusConfirmed,
}

// String implements fmt.Stringer.
func (l LifecycleStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LifecycleStatus.
func (l LifecycleStatus) IsValid() bool {
	for _, candidate := range validLifecycleStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further lifecycle transition is allowed.
func (l LifecycleStatus) IsTerminal() bool {
	switch l {
	case LifecycleStatusCompleted, LifecycleStatusCancelled, LifecycleStatusMaintenanceRequired:
		return true
	}
	return false
}

// HoldsCapacity reports whether a reservation in this state counts toward
// committed units in availability queries.
func (l LifecycleStatus) HoldsCapacity() bool {
	return l == LifecycleStatusPending || l == LifecycleStatusConfirmed
}

// ParseLifecycleStatus converts raw input into a LifecycleStatus.
func ParseLifecycleStatus(value string) (LifecycleStatus, error) {
	for _, candidate := range validLifecycleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lifecycle status %q", value)
}
