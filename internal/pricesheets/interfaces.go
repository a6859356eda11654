package pricesheets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// Repository is the persistence surface for price sheets and their discounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, sheet *models.PriceSheet) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PriceSheet, error)
	FindByClientProduct(ctx context.Context, clientID, productID uuid.UUID) (*models.PriceSheet, error)
	EnsureDevice(ctx context.Context, clientID, productID uuid.UUID) (*models.Device, error)

	CreateDiscount(ctx context.Context, discount *models.Discount) error
	ListDiscounts(ctx context.Context, priceSheetID uuid.UUID, costType enums.CostType) ([]models.Discount, error)
	FindDiscountsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Discount, error)
	GetOrCreateRebateDiscount(ctx context.Context, discount *models.Discount) (*models.Discount, error)
	DeleteDiscountsByRebate(ctx context.Context, rebateID uuid.UUID) error
}
