package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// PurchasePrice is the derived avg/min/max purchase price of used items in one
// (category, client, year, level, cost type) bucket. Refreshed whenever an
// item in the bucket is used or its cost changes.
type PurchasePrice struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID uuid.UUID        `gorm:"column:category_id;type:uuid;not null;uniqueIndex:idx_purchase_prices_bucket"`
	ClientID   uuid.UUID        `gorm:"column:client_id;type:uuid;not null;uniqueIndex:idx_purchase_prices_bucket"`
	Year       int              `gorm:"column:year;not null;uniqueIndex:idx_purchase_prices_bucket"`
	Level      int              `gorm:"column:level;not null;default:1;uniqueIndex:idx_purchase_prices_bucket"`
	CostType   enums.CostType   `gorm:"column:cost_type;type:cost_type;not null;default:'unit';uniqueIndex:idx_purchase_prices_bucket"`
	Avg        decimal.Decimal  `gorm:"column:avg;type:numeric(20,2);not null;default:0"`
	Min        *decimal.Decimal `gorm:"column:min;type:numeric(20,2)"`
	Max        decimal.Decimal  `gorm:"column:max;type:numeric(20,2);not null;default:0"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
