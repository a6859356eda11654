package enums

import "fmt"

// ApplyPhase marks when in the purchase lifecycle a discount applies.
type ApplyPhase string

const (
	ApplyPhasePreOrder    ApplyPhase = "pre_order"
	ApplyPhasePointOfSale ApplyPhase = "point_of_sale"
	ApplyPhasePostOrder   ApplyPhase = "post_order"
)

var validApplyPhases = []ApplyPhase{
	ApplyPhasePreOrder,
	ApplyPhasePointOfSale,
	ApplyPhasePostOrder,
}

// String implements fmt.Stringer.
func (a ApplyPhase) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ApplyPhase.
func (a ApplyPhase) IsValid() bool {
	for _, candidate := range validApplyPhases {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseApplyPhase converts raw input into an ApplyPhase.
func ParseApplyPhase(value string) (ApplyPhase, error) {
	for _, candidate := range validApplyPhases {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid apply phase %q", value)
}
