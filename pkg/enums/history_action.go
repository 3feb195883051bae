package enums

import "fmt"

// HistoryAction labels the append-only audit entries recorded for every
// approval and lifecycle transition.
type HistoryAction string

const (
	HistoryActionSubmitted          HistoryAction = "submitted"
	HistoryActionApproved           HistoryAction = "approved"
	HistoryActionAutoApproved       HistoryAction = "auto_approved"
	HistoryActionRejected           HistoryAction = "rejected"
	HistoryActionCheckedOut         HistoryAction = "checked_out"
	HistoryActionCheckedIn          HistoryAction = "checked_in"
	HistoryActionMaintenanceFlagged HistoryAction = "maintenance_flagged"
	HistoryActionCancelled          HistoryAction = "cancelled"
	HistoryActionDeleted            HistoryAction = "deleted"
)

var validHistoryActions = []HistoryAction{
	HistoryActionSubmitted,
	HistoryActionApproved,
	HistoryActionAutoApproved,
	HistoryActionRejected,
	HistoryActionCheckedOut,
	HistoryActionCheckedIn,
	HistoryActionMaintenanceFlagged,
	HistoryActionCancelled,
	HistoryActionDeleted,
}

// String implements fmt.Stringer.
func (h HistoryAction) String() string {
	return string(h)
}

// IsValid reports whether the value is a known HistoryAction.
func (h HistoryAction) IsValid() bool {
	for _, candidate := range validHistoryActions {
		if candidate == h {
			return true
		}
	}
	return false
}

// ParseHistoryAction converts raw input into a HistoryAction.
func ParseHistoryAction(value string) (HistoryAction, error) {
	for _, candidate := range validHistoryActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid history action %q", value)
}
