package models

import (
	"time"

	"github.com/google/uuid"
)

// RepCase records the procedure event an item was implanted in.
type RepCase struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID      uuid.UUID  `gorm:"column:client_id;type:uuid;not null"`
	PhysicianName *string    `gorm:"column:physician_name"`
	ProcedureDate *time.Time `gorm:"column:procedure_date;type:date"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}
