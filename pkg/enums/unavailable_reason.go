package enums

// UnavailableReason explains why a capacity snapshot reports no usable
// units. Blackout, exhausted capacity, and an unreachable inventory read are
// deliberately distinct so callers never confuse "zero free" with "unknown".
type UnavailableReason string

const (
	UnavailableReasonNone            UnavailableReason = ""
	UnavailableReasonNoCapacity      UnavailableReason = "no_capacity"
	UnavailableReasonBlackout        UnavailableReason = "blackout"
	UnavailableReasonCapacityUnknown UnavailableReason = "capacity_unknown"
)

// String implements fmt.Stringer.
func (u UnavailableReason) String() string {
	return string(u)
}
