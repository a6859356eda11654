package pricesheets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a price sheet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sheet *models.PriceSheet) error {
	return r.db.WithContext(ctx).Create(sheet).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PriceSheet, error) {
	var sheet models.PriceSheet
	err := r.db.WithContext(ctx).
		Preload("Discounts").
		Where("id = ?", id).
		First(&sheet).Error
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (r *repository) FindByClientProduct(ctx context.Context, clientID, productID uuid.UUID) (*models.PriceSheet, error) {
	var sheet models.PriceSheet
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND product_id = ?", clientID, productID).
		First(&sheet).Error
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (r *repository) EnsureDevice(ctx context.Context, clientID, productID uuid.UUID) (*models.Device, error) {
	var device models.Device
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND product_id = ?", clientID, productID).
		First(&device).Error
	if err == nil {
		return &device, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	device = models.Device{ClientID: clientID, ProductID: productID}
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(&device).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *repository) CreateDiscount(ctx context.Context, discount *models.Discount) error {
	return r.db.WithContext(ctx).Create(discount).Error
}

func (r *repository) ListDiscounts(ctx context.Context, priceSheetID uuid.UUID, costType enums.CostType) ([]models.Discount, error) {
	var discounts []models.Discount
	err := r.db.WithContext(ctx).
		Where("price_sheet_id = ? AND cost_type = ?", priceSheetID, costType).
		Order("CASE apply_phase WHEN 'pre_order' THEN 1 WHEN 'point_of_sale' THEN 2 ELSE 3 END, ord ASC").
		Find(&discounts).Error
	if err != nil {
		return nil, err
	}
	return discounts, nil
}

func (r *repository) FindDiscountsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Discount, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var discounts []models.Discount
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&discounts).Error
	if err != nil {
		return nil, err
	}
	return discounts, nil
}

// GetOrCreateRebateDiscount reuses an existing rebate discount keyed by
// (name, cost type, price sheet, rebate) or creates it from the template.
func (r *repository) GetOrCreateRebateDiscount(ctx context.Context, discount *models.Discount) (*models.Discount, error) {
	var existing models.Discount
	err := r.db.WithContext(ctx).
		Where("name = ? AND cost_type = ? AND price_sheet_id = ? AND rebate_id = ?",
			discount.Name, discount.CostType, discount.PriceSheetID, discount.RebateID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if discount.ID == uuid.Nil {
		discount.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(discount).Error; err != nil {
		return nil, err
	}
	return discount, nil
}

// DeleteDiscountsByRebate removes every discount a rebate materialized,
// detaching them from items first.
func (r *repository) DeleteDiscountsByRebate(ctx context.Context, rebateID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Exec("DELETE FROM item_discounts WHERE discount_id IN (SELECT id FROM discounts WHERE rebate_id = ?)", rebateID).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("rebate_id = ?", rebateID).
		Delete(&models.Discount{}).Error
}
