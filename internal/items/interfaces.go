package items

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/pagination"
)

// Filter narrows item queries to a client's purchases. Nil/zero fields are
// skipped; a nil ProductIDs slice means no product filter at all.
type Filter struct {
	ClientID       uuid.UUID
	ManufacturerID uuid.UUID
	ProductIDs     []uuid.UUID
	PurchasedFrom  *time.Time
	PurchasedTo    *time.Time
}

// Repository is the persistence surface for purchased items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	Find(ctx context.Context, filter Filter) ([]models.Item, error)
	ListPage(ctx context.Context, filter Filter, limit int, cursor *pagination.Cursor) ([]models.Item, *pagination.Cursor, error)

	ReplaceDiscounts(ctx context.Context, item *models.Item, discounts []models.Discount) error
	AddDiscount(ctx context.Context, item *models.Item, discount *models.Discount) error

	NextSeq(ctx context.Context) (int64, error)
	ClientSpendBetween(ctx context.Context, clientID uuid.UUID, from, to *time.Time) (decimal.Decimal, error)
}
