package models

import (
	"time"

	"github.com/google/uuid"
)

// Manufacturer produces device products and funds rebate programs.
type Manufacturer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
