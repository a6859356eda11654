package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a purchasable medical device model.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string    `gorm:"column:name;not null"`
	ManufacturerID uuid.UUID `gorm:"column:manufacturer_id;type:uuid;not null"`
	CategoryID     uuid.UUID `gorm:"column:category_id;type:uuid;not null"`
	Level          int       `gorm:"column:level;not null;default:1"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`

	Manufacturer *Manufacturer `gorm:"foreignKey:ManufacturerID"`
	Category     *Category     `gorm:"foreignKey:CategoryID"`
}
