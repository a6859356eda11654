package models

import (
	"time"

	"github.com/google/uuid"
)

// Device links a product into a client's inventory. One row per (client, product).
type Device struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID       uuid.UUID `gorm:"column:client_id;type:uuid;not null;uniqueIndex:idx_devices_client_product"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_devices_client_product"`
	HospitalNumber *string   `gorm:"column:hospital_number"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`

	Client  *Client  `gorm:"foreignKey:ClientID"`
	Product *Product `gorm:"foreignKey:ProductID"`
}
