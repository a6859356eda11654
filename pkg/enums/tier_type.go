package enums

import "fmt"

// TierType selects the metric a rebate tier is evaluated against.
type TierType string

const (
	TierTypeSpend          TierType = "spend"
	TierTypeMarketshare    TierType = "marketshare"
	TierTypePurchasedUnits TierType = "purchased_units"
	TierTypeUsedUnits      TierType = "used_units"
)

var validTierTypes = []TierType{
	TierTypeSpend,
	TierTypeMarketshare,
	TierTypePurchasedUnits,
	TierTypeUsedUnits,
}

// String implements fmt.Stringer.
func (t TierType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TierType.
func (t TierType) IsValid() bool {
	for _, candidate := range validTierTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTierType converts raw input into a TierType.
func ParseTierType(value string) (TierType, error) {
	for _, candidate := range validTierTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tier type %q", value)
}
