package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// Discount is a single priced adjustment on a price sheet. Rows with a RebateID
// were materialized by a rebate apply and are removed on unapply.
type Discount struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string             `gorm:"column:name;not null"`
	PriceSheetID uuid.UUID          `gorm:"column:price_sheet_id;type:uuid;not null"`
	CostType     enums.CostType     `gorm:"column:cost_type;type:cost_type;not null"`
	DiscountType enums.DiscountType `gorm:"column:discount_type;type:discount_type;not null;default:'percent'"`
	ApplyPhase   enums.ApplyPhase   `gorm:"column:apply_phase;type:apply_phase;not null;default:'point_of_sale'"`
	Percent      decimal.Decimal    `gorm:"column:percent;type:numeric(5,2);not null;default:0"`
	Value        decimal.Decimal    `gorm:"column:value;type:numeric(20,2);not null;default:0"`
	Order        int                `gorm:"column:ord;not null;default:1"`
	StartDate    *time.Time         `gorm:"column:start_date;type:date"`
	EndDate      *time.Time         `gorm:"column:end_date;type:date"`
	RebateID     *uuid.UUID         `gorm:"column:rebate_id;type:uuid"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	PriceSheet *PriceSheet `gorm:"foreignKey:PriceSheetID"`
}

// ValidOn reports whether the discount's validity window covers the reference
// date. A missing reference date always means invalid: a discount cannot apply
// without a dated event.
func (d Discount) ValidOn(ref *time.Time) bool {
	if ref == nil {
		return false
	}
	if d.StartDate != nil && d.StartDate.After(*ref) {
		return false
	}
	if d.EndDate != nil && d.EndDate.Before(*ref) {
		return false
	}
	return true
}

// ValueAgainst computes the discounted amount off the given base cost. Percent
// discounts scale with the base; value discounts are flat. The result is never
// clamped, so a misconfigured sheet can push a total below zero.
func (d Discount) ValueAgainst(cost decimal.Decimal) decimal.Decimal {
	if d.DiscountType == enums.DiscountTypePercent {
		return cost.Mul(d.Percent).Div(decimal.NewFromInt(100))
	}
	return d.Value
}

// DisplayLabel renders the admin-facing label for the discount.
func (d Discount) DisplayLabel() string {
	if d.DiscountType == enums.DiscountTypePercent {
		return fmt.Sprintf("%s -%s%%", d.Name, d.Percent)
	}
	return fmt.Sprintf("%s -$%s", d.Name, d.Value)
}
