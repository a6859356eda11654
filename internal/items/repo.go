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

type repository struct {
	db *gorm.DB
}

// NewRepository builds an item repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Omit("Discounts").Create(item).Error
}

func (r *repository) Update(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Omit("Discounts").Save(item).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Preload("Device.Product").
		Preload("RepCase").
		Preload("Discounts").
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) Find(ctx context.Context, filter Filter) ([]models.Item, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Joins("JOIN devices ON devices.id = items.device_id").
		Joins("JOIN products ON products.id = devices.product_id").
		Where("devices.client_id = ?", filter.ClientID)

	if filter.ManufacturerID != uuid.Nil {
		q = q.Where("products.manufacturer_id = ?", filter.ManufacturerID)
	}
	if filter.ProductIDs != nil {
		q = q.Where("devices.product_id IN ?", filter.ProductIDs)
	}
	if filter.PurchasedFrom != nil {
		q = q.Where("items.purchased_date >= ?", filter.PurchasedFrom)
	}
	if filter.PurchasedTo != nil {
		q = q.Where("items.purchased_date <= ?", filter.PurchasedTo)
	}

	var items []models.Item
	err := q.
		Preload("Device.Product").
		Preload("RepCase").
		Preload("Discounts").
		Order("items.created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListPage(ctx context.Context, filter Filter, limit int, cursor *pagination.Cursor) ([]models.Item, *pagination.Cursor, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Joins("JOIN devices ON devices.id = items.device_id").
		Joins("JOIN products ON products.id = devices.product_id").
		Where("devices.client_id = ?", filter.ClientID)

	if filter.ManufacturerID != uuid.Nil {
		q = q.Where("products.manufacturer_id = ?", filter.ManufacturerID)
	}
	if filter.ProductIDs != nil {
		q = q.Where("devices.product_id IN ?", filter.ProductIDs)
	}
	if filter.PurchasedFrom != nil {
		q = q.Where("items.purchased_date >= ?", filter.PurchasedFrom)
	}
	if filter.PurchasedTo != nil {
		q = q.Where("items.purchased_date <= ?", filter.PurchasedTo)
	}
	if cursor != nil {
		q = q.Where(
			"items.created_at < ? OR (items.created_at = ? AND items.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	fetch := pagination.LimitWithBuffer(limit)

	var items []models.Item
	err := q.
		Preload("Device.Product").
		Preload("RepCase").
		Preload("Discounts").
		Order("items.created_at DESC, items.id DESC").
		Limit(fetch).
		Find(&items).Error
	if err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(items) == fetch {
		items = items[:fetch-1]
		last := items[len(items)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return items, next, nil
}

func (r *repository) ReplaceDiscounts(ctx context.Context, item *models.Item, discounts []models.Discount) error {
	if err := r.db.WithContext(ctx).Model(item).Association("Discounts").Replace(discounts); err != nil {
		return err
	}
	item.Discounts = discounts
	return nil
}

func (r *repository) AddDiscount(ctx context.Context, item *models.Item, discount *models.Discount) error {
	for _, existing := range item.Discounts {
		if existing.ID == discount.ID {
			return nil
		}
	}
	if err := r.db.WithContext(ctx).Model(item).Association("Discounts").Append(discount); err != nil {
		return err
	}
	item.Discounts = append(item.Discounts, *discount)
	return nil
}

func (r *repository) NextSeq(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Select("COALESCE(MAX(seq), 0) + 1").
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repository) ClientSpendBetween(ctx context.Context, clientID uuid.UUID, from, to *time.Time) (decimal.Decimal, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Joins("JOIN devices ON devices.id = items.device_id").
		Where("devices.client_id = ?", clientID)

	if from != nil {
		q = q.Where("items.purchased_date >= ?", from)
	}
	if to != nil {
		q = q.Where("items.purchased_date <= ?", to)
	}

	var spend *decimal.Decimal
	if err := q.Select("SUM(items.cost)").Scan(&spend).Error; err != nil {
		return decimal.Zero, err
	}
	if spend == nil {
		return decimal.Zero, nil
	}
	return *spend, nil
}
