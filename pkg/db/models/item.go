package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// Item is one physical unit of a device at a client. Cost and saving always
// hold the last redemption output for the item's current discount set.
type Item struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DeviceID           uuid.UUID          `gorm:"column:device_id;type:uuid;not null"`
	RepCaseID          *uuid.UUID         `gorm:"column:rep_case_id;type:uuid"`
	SerialNumber       *string            `gorm:"column:serial_number;uniqueIndex"`
	LotNumber          *string            `gorm:"column:lot_number"`
	Identifier         string             `gorm:"column:identifier;not null;uniqueIndex"`
	Seq                int64              `gorm:"column:seq;not null;default:0"`
	ExpiredDate        *time.Time         `gorm:"column:expired_date;type:date"`
	PurchasedDate      *time.Time         `gorm:"column:purchased_date;type:date"`
	Cost               decimal.Decimal    `gorm:"column:cost;type:numeric(20,2);not null;default:0"`
	Saving             decimal.Decimal    `gorm:"column:saving;type:numeric(20,2);not null;default:0"`
	IsUsed             bool               `gorm:"column:is_used;not null;default:false"`
	PurchaseType       enums.PurchaseType `gorm:"column:purchase_type;type:purchase_type;not null;default:'bulk'"`
	CostType           enums.CostType     `gorm:"column:cost_type;type:cost_type;not null;default:'unit'"`
	NotImplantedReason *string            `gorm:"column:not_implanted_reason"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	Device    *Device    `gorm:"foreignKey:DeviceID"`
	RepCase   *RepCase   `gorm:"foreignKey:RepCaseID"`
	Discounts []Discount `gorm:"many2many:item_discounts"`
}

// ProcedureDate returns the date of the associated procedure, if any.
func (i Item) ProcedureDate() *time.Time {
	if i.RepCase == nil {
		return nil
	}
	return i.RepCase.ProcedureDate
}

// BulkDiscount returns the first pre-order discount matching the item's cost
// type. Inventory listings show this as the item's negotiated bulk price cut.
func (i Item) BulkDiscount() *Discount {
	for idx := range i.Discounts {
		d := i.Discounts[idx]
		if d.ApplyPhase == enums.ApplyPhasePreOrder && d.CostType == i.CostType {
			return &i.Discounts[idx]
		}
	}
	return nil
}
