package enums

import "fmt"

// CostType distinguishes the two priced components of a product at a client.
type CostType string

const (
	CostTypeUnit   CostType = "unit"
	CostTypeSystem CostType = "system"
)

var validCostTypes = []CostType{
	CostTypeUnit,
	CostTypeSystem,
}

// String implements fmt.Stringer.
func (c CostType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CostType.
func (c CostType) IsValid() bool {
	for _, candidate := range validCostTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCostType converts raw input into a CostType.
func ParseCostType(value string) (CostType, error) {
	for _, candidate := range validCostTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cost type %q", value)
}

// CostTypes returns every known cost type.
func CostTypes() []CostType {
	out := make([]CostType, len(validCostTypes))
	copy(out, validCostTypes)
	return out
}
