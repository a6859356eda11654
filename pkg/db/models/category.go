package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products beneath a specialty.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	SpecialtyID uuid.UUID `gorm:"column:specialty_id;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`

	Specialty *Specialty `gorm:"foreignKey:SpecialtyID"`
}
