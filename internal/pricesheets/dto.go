package pricesheets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// CreateInput carries the fields needed to open a price sheet for a product
// at a client.
type CreateInput struct {
	ClientID   uuid.UUID
	ProductID  uuid.UUID
	UnitCost   decimal.Decimal
	SystemCost decimal.Decimal
}

// DiscountInput is an admin-defined discount row on a price sheet.
type DiscountInput struct {
	Name         string
	CostType     enums.CostType
	DiscountType enums.DiscountType
	ApplyPhase   enums.ApplyPhase
	Percent      decimal.Decimal
	Value        decimal.Decimal
	Order        int
	StartDate    *time.Time
	EndDate      *time.Time
}
