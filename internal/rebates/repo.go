package rebates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a rebate repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRebate(ctx context.Context, rebate *models.Rebate) error {
	return r.db.WithContext(ctx).Create(rebate).Error
}

func (r *repository) FindRebate(ctx context.Context, id uuid.UUID) (*models.Rebate, error) {
	var rebate models.Rebate
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("ord ASC")
		}).
		Preload("RebatableItems").
		Where("id = ?", id).
		First(&rebate).Error
	if err != nil {
		return nil, err
	}
	return &rebate, nil
}

func (r *repository) ListRebates(ctx context.Context, clientID uuid.UUID) ([]models.Rebate, error) {
	var rebates []models.Rebate
	q := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("ord ASC")
		}).
		Preload("RebatableItems").
		Order("created_at ASC")
	if clientID != uuid.Nil {
		q = q.Where("client_id = ?", clientID)
	}
	if err := q.Find(&rebates).Error; err != nil {
		return nil, err
	}
	return rebates, nil
}

func (r *repository) ResolveProductIDs(ctx context.Context, scopes []models.RebatableItem) ([]uuid.UUID, error) {
	var productIDs, categoryIDs, specialtyIDs []uuid.UUID
	for _, scope := range scopes {
		switch scope.Scope {
		case enums.RebatableScopeProduct:
			productIDs = append(productIDs, scope.TargetID)
		case enums.RebatableScopeCategory:
			categoryIDs = append(categoryIDs, scope.TargetID)
		case enums.RebatableScopeSpecialty:
			specialtyIDs = append(specialtyIDs, scope.TargetID)
		}
	}

	if len(categoryIDs) > 0 {
		var ids []uuid.UUID
		err := r.db.WithContext(ctx).
			Model(&models.Product{}).
			Where("category_id IN ?", categoryIDs).
			Pluck("id", &ids).Error
		if err != nil {
			return nil, err
		}
		productIDs = append(productIDs, ids...)
	}

	if len(specialtyIDs) > 0 {
		var ids []uuid.UUID
		err := r.db.WithContext(ctx).
			Model(&models.Product{}).
			Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.specialty_id IN ?", specialtyIDs).
			Pluck("products.id", &ids).Error
		if err != nil {
			return nil, err
		}
		productIDs = append(productIDs, ids...)
	}

	seen := make(map[uuid.UUID]struct{}, len(productIDs))
	out := productIDs[:0]
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func (r *repository) UpdateStatusIf(ctx context.Context, rebateID uuid.UUID, from, to enums.RebateStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Rebate{}).
		Where("id = ? AND status = ?", rebateID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
