package items

import (
	"time"

	"github.com/google/uuid"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// CreateInput carries the fields captured at purchase intake.
type CreateInput struct {
	ClientID      uuid.UUID
	ProductID     uuid.UUID
	SerialNumber  *string
	LotNumber     *string
	CostType      enums.CostType
	PurchaseType  enums.PurchaseType
	PurchasedDate *time.Time
	ExpiredDate   *time.Time
	RepCaseID     *uuid.UUID
	IsUsed        bool
	DiscountIDs   []uuid.UUID
}

// UpdateInput edits an item's identity and dates. Nil fields are left
// unchanged.
type UpdateInput struct {
	SerialNumber  *string
	LotNumber     *string
	PurchasedDate *time.Time
	ExpiredDate   *time.Time
}

// ListParams narrows and pages an item listing.
type ListParams struct {
	Filter Filter
	Limit  int
	Cursor string
}

// ListResult is one page of items plus the cursor for the next page.
type ListResult struct {
	Items      []models.Item
	NextCursor string
}
