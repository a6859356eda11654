package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// PriceSheet holds the negotiated unit and system cost of a product at a client,
// plus the discounts defined against them. One row per (client, product).
type PriceSheet struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID   uuid.UUID       `gorm:"column:client_id;type:uuid;not null;uniqueIndex:idx_price_sheets_client_product"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_price_sheets_client_product"`
	UnitCost   decimal.Decimal `gorm:"column:unit_cost;type:numeric(20,2);not null;default:0"`
	SystemCost decimal.Decimal `gorm:"column:system_cost;type:numeric(20,2);not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Client    *Client    `gorm:"foreignKey:ClientID"`
	Product   *Product   `gorm:"foreignKey:ProductID"`
	Discounts []Discount `gorm:"foreignKey:PriceSheetID"`
}

// OriginalCost returns the undiscounted cost for the given cost type.
func (p PriceSheet) OriginalCost(costType enums.CostType) decimal.Decimal {
	if costType == enums.CostTypeUnit {
		return p.UnitCost
	}
	return p.SystemCost
}
