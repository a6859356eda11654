package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// RebatableItem scopes a rebate to one catalog target: a product, a category,
// or a specialty. Category and specialty rows expand to every product they
// contain when the rebate resolves its item sets.
type RebatableItem struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RebateID  uuid.UUID            `gorm:"column:rebate_id;type:uuid;not null;uniqueIndex:idx_rebatable_items_target"`
	Scope     enums.RebatableScope `gorm:"column:scope;type:rebatable_scope;not null;uniqueIndex:idx_rebatable_items_target"`
	TargetID  uuid.UUID            `gorm:"column:target_id;type:uuid;not null;uniqueIndex:idx_rebatable_items_target"`
	Role      enums.RebatableRole  `gorm:"column:role;type:rebatable_role;not null;default:'eligible';uniqueIndex:idx_rebatable_items_target"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}
