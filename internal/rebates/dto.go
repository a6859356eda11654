package rebates

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// ScopeInput declares one catalog target a rebate covers.
type ScopeInput struct {
	Scope    enums.RebatableScope
	TargetID uuid.UUID
	Role     enums.RebatableRole
}

// TierInput declares one eligibility bracket and its discount template.
type TierInput struct {
	TierType     enums.TierType
	LowerBound   decimal.Decimal
	UpperBound   *decimal.Decimal
	DiscountType enums.DiscountType
	Percent      decimal.Decimal
	Value        decimal.Decimal
	Order        int
}

// CreateInput carries everything needed to define a rebate program.
type CreateInput struct {
	Name           string
	ClientID       uuid.UUID
	ManufacturerID uuid.UUID
	StartDate      *time.Time
	EndDate        *time.Time
	Scopes         []ScopeInput
	Tiers          []TierInput
}
