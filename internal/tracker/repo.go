package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// Repository is the persistence surface for purchase price buckets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrCreateBucket(ctx context.Context, key BucketKey) (*models.PurchasePrice, error)
	AggregateUsedCosts(ctx context.Context, key BucketKey) (CostAggregate, error)
	SaveBucket(ctx context.Context, bucket *models.PurchasePrice) error
}

// BucketKey identifies one purchase price aggregate bucket.
type BucketKey struct {
	CategoryID uuid.UUID
	ClientID   uuid.UUID
	Year       int
	Level      int
	CostType   enums.CostType
}

// CostAggregate is the min/max/avg of used item costs within a bucket.
type CostAggregate struct {
	Avg *decimal.Decimal
	Min *decimal.Decimal
	Max *decimal.Decimal
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tracker repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetOrCreateBucket(ctx context.Context, key BucketKey) (*models.PurchasePrice, error) {
	var bucket models.PurchasePrice
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND client_id = ? AND year = ? AND level = ? AND cost_type = ?",
			key.CategoryID, key.ClientID, key.Year, key.Level, key.CostType).
		First(&bucket).Error
	if err == nil {
		return &bucket, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	bucket = models.PurchasePrice{
		ID:         uuid.New(),
		CategoryID: key.CategoryID,
		ClientID:   key.ClientID,
		Year:       key.Year,
		Level:      key.Level,
		CostType:   key.CostType,
	}
	if err := r.db.WithContext(ctx).Create(&bucket).Error; err != nil {
		return nil, err
	}
	return &bucket, nil
}

func (r *repository) AggregateUsedCosts(ctx context.Context, key BucketKey) (CostAggregate, error) {
	yearStart := time.Date(key.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	var agg struct {
		Avg *decimal.Decimal
		Min *decimal.Decimal
		Max *decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Select("AVG(items.cost) AS avg, MIN(items.cost) AS min, MAX(items.cost) AS max").
		Joins("JOIN devices ON devices.id = items.device_id").
		Joins("JOIN products ON products.id = devices.product_id").
		Joins("JOIN rep_cases ON rep_cases.id = items.rep_case_id").
		Where("devices.client_id = ?", key.ClientID).
		Where("products.category_id = ?", key.CategoryID).
		Where("products.level = ?", key.Level).
		Where("items.is_used = ?", true).
		Where("items.cost_type = ?", key.CostType).
		Where("items.cost > 0").
		Where("rep_cases.procedure_date >= ? AND rep_cases.procedure_date < ?", yearStart, yearEnd).
		Scan(&agg).Error
	if err != nil {
		return CostAggregate{}, err
	}
	return CostAggregate{Avg: agg.Avg, Min: agg.Min, Max: agg.Max}, nil
}

func (r *repository) SaveBucket(ctx context.Context, bucket *models.PurchasePrice) error {
	return r.db.WithContext(ctx).Save(bucket).Error
}
