package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a hospital account that stocks devices and buys under negotiated prices.
type Client struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	City      *string   `gorm:"column:city"`
	State     *string   `gorm:"column:state"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
