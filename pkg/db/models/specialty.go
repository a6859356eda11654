package models

import (
	"time"

	"github.com/google/uuid"
)

// Specialty is the top level of the device catalog hierarchy.
type Specialty struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
