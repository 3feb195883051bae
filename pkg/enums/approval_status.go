package enums

import "fmt"

// ApprovalStatus tracks the approval gate a reservation passes through
// before checkout becomes possible.
type ApprovalStatus string

const (
	ApprovalStatusPendingApproval ApprovalStatus = "pending_approval"
	ApprovalStatusApproved        ApprovalStatus = "approved"
	ApprovalStatusRejected        ApprovalStatus = "rejected"
	ApprovalStatusAutoApproved    ApprovalStatus = "auto_approved"
)

var validApprovalStatuses = []ApprovalStatus{
	ApprovalStatusPendingApproval,
	ApprovalStatusApproved,
	ApprovalStatusRejected,
	ApprovalStatusAutoApproved,
}

// String implements fmt.Stringer.
func (a ApprovalStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ApprovalStatus.
func (a ApprovalStatus) IsValid() bool {
	for _, candidate := range validApprovalStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the approval decision is final. Only
// pending_approval accepts further transitions.
func (a ApprovalStatus) IsTerminal() bool {
	return a != ApprovalStatusPendingApproval
}

// AllowsCheckout reports whether a reservation with this approval state may
// proceed to physical checkout.
func (a ApprovalStatus) AllowsCheckout() bool {
	return a == ApprovalStatusApproved || a == ApprovalStatusAutoApproved
}

// ParseApprovalStatus converts raw input into an ApprovalStatus.
func ParseApprovalStatus(value string) (ApprovalStatus, error) {
	for _, candidate := range validApprovalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approval status %q", value)
}
