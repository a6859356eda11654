package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// Rebate is a manufacturer-funded retroactive discount program for one client.
// Status moves new -> complete on apply and back on unapply; no other
// transitions exist.
type Rebate struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string             `gorm:"column:name;not null"`
	ClientID       uuid.UUID          `gorm:"column:client_id;type:uuid;not null"`
	ManufacturerID uuid.UUID          `gorm:"column:manufacturer_id;type:uuid;not null"`
	StartDate      *time.Time         `gorm:"column:start_date;type:date"`
	EndDate        *time.Time         `gorm:"column:end_date;type:date"`
	Status         enums.RebateStatus `gorm:"column:status;type:rebate_status;not null;default:'new'"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	Client         *Client         `gorm:"foreignKey:ClientID"`
	Manufacturer   *Manufacturer   `gorm:"foreignKey:ManufacturerID"`
	Tiers          []Tier          `gorm:"foreignKey:RebateID"`
	RebatableItems []RebatableItem `gorm:"foreignKey:RebateID"`
}

// EligibleScopes returns the scope rows that drive tier eligibility.
func (r Rebate) EligibleScopes() []RebatableItem {
	return r.scopesByRole(enums.RebatableRoleEligible)
}

// RebatedScopes returns the scope rows that receive rebate discounts.
func (r Rebate) RebatedScopes() []RebatableItem {
	return r.scopesByRole(enums.RebatableRoleRebated)
}

func (r Rebate) scopesByRole(role enums.RebatableRole) []RebatableItem {
	var out []RebatableItem
	for _, scope := range r.RebatableItems {
		if scope.Role == role {
			out = append(out, scope)
		}
	}
	return out
}
