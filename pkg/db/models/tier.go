package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// Tier is one eligibility bracket of a rebate. The discount fields are a
// template: when the tier qualifies, apply stamps them onto a real post-order
// discount per affected price sheet.
type Tier struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RebateID     uuid.UUID          `gorm:"column:rebate_id;type:uuid;not null"`
	TierType     enums.TierType     `gorm:"column:tier_type;type:tier_type;not null;default:'spend'"`
	LowerBound   decimal.Decimal    `gorm:"column:lower_bound;type:numeric(20,2);not null;default:0"`
	UpperBound   *decimal.Decimal   `gorm:"column:upper_bound;type:numeric(20,2)"`
	DiscountType enums.DiscountType `gorm:"column:discount_type;type:discount_type;not null;default:'percent'"`
	Percent      decimal.Decimal    `gorm:"column:percent;type:numeric(5,2);not null;default:0"`
	Value        decimal.Decimal    `gorm:"column:value;type:numeric(20,2);not null;default:0"`
	Order        int                `gorm:"column:ord;not null;default:1"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}

// Label renders the tier for rebate discount names and admin listings.
func (t Tier) Label() string {
	upper := "none"
	if t.UpperBound != nil {
		upper = t.UpperBound.String()
	}
	return fmt.Sprintf("%s in range (%s, %s)", t.TierType, t.LowerBound, upper)
}
