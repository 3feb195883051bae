package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateReservation  OutboxAggregateType = "reservation"
	AggregateBlackoutSlot OutboxAggregateType = "blackout_slot"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateReservation,
	AggregateBlackoutSlot,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventReservationSubmitted    OutboxEventType = "reservation_submitted"
	EventReservationApproved     OutboxEventType = "reservation_approved"
	EventReservationAutoApproved OutboxEventType = "reservation_auto_approved"
	EventReservationRejected     OutboxEventType = "reservation_rejected"
	EventReservationCheckedOut   OutboxEventType = "reservation_checked_out"
	EventReservationCheckedIn    OutboxEventType = "reservation_checked_in"
	EventReservationMaintenance  OutboxEventType = "reservation_maintenance_flagged"
	EventReservationCancelled    OutboxEventType = "reservation_cancelled"
	EventReservationDeleted      OutboxEventType = "reservation_deleted"
	EventBlackoutCreated         OutboxEventType = "blackout_created"
	EventBlackoutDeleted         OutboxEventType = "blackout_deleted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventReservationSubmitted,
	EventReservationApproved,
	EventReservationAutoApproved,
	EventReservationRejected,
	EventReservationCheckedOut,
	EventReservationCheckedIn,
	EventReservationMaintenance,
	EventReservationCancelled,
	EventReservationDeleted,
	EventBlackoutCreated,
	EventBlackoutDeleted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
