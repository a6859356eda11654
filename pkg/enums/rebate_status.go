package enums

import "fmt"

// RebateStatus tracks the rebate state machine.
type RebateStatus string

const (
	RebateStatusNew      RebateStatus = "new"
	RebateStatusComplete RebateStatus = "complete"
)

var validRebateStatuses = []RebateStatus{
	RebateStatusNew,
	RebateStatusComplete,
}

// String implements fmt.Stringer.
func (r RebateStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RebateStatus.
func (r RebateStatus) IsValid() bool {
	for _, candidate := range validRebateStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRebateStatus converts raw input into a RebateStatus.
func ParseRebateStatus(value string) (RebateStatus, error) {
	for _, candidate := range validRebateStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rebate status %q", value)
}
