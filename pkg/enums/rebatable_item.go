package enums

import "fmt"

// RebatableScope names the catalog level a rebate scope row points at.
type RebatableScope string

const (
	RebatableScopeProduct   RebatableScope = "product"
	RebatableScopeCategory  RebatableScope = "category"
	RebatableScopeSpecialty RebatableScope = "specialty"
)

var validRebatableScopes = []RebatableScope{
	RebatableScopeProduct,
	RebatableScopeCategory,
	RebatableScopeSpecialty,
}

// String implements fmt.Stringer.
func (s RebatableScope) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RebatableScope.
func (s RebatableScope) IsValid() bool {
	for _, candidate := range validRebatableScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRebatableScope converts raw input into a RebatableScope.
func ParseRebatableScope(value string) (RebatableScope, error) {
	for _, candidate := range validRebatableScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rebatable scope %q", value)
}

// RebatableRole tags a scope row as driving eligibility or receiving discounts.
type RebatableRole string

const (
	RebatableRoleEligible RebatableRole = "eligible"
	RebatableRoleRebated  RebatableRole = "rebated"
)

var validRebatableRoles = []RebatableRole{
	RebatableRoleEligible,
	RebatableRoleRebated,
}

// String implements fmt.Stringer.
func (r RebatableRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RebatableRole.
func (r RebatableRole) IsValid() bool {
	for _, candidate := range validRebatableRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRebatableRole converts raw input into a RebatableRole.
func ParseRebatableRole(value string) (RebatableRole, error) {
	for _, candidate := range validRebatableRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rebatable role %q", value)
}
