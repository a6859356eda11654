package pricesheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
	pkgerrors "github.com/helixmedical/devicecost-backend/pkg/errors"
	"github.com/helixmedical/devicecost-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages price sheets and admin-defined discounts.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.PriceSheet, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PriceSheet, error)
	AddDiscount(ctx context.Context, priceSheetID uuid.UUID, input DiscountInput) (*models.Discount, error)
	DiscountsByCostType(ctx context.Context, priceSheetID uuid.UUID) (map[enums.CostType][]models.Discount, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds a price sheet service with the required dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("price sheet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// Create opens the price sheet and guarantees the client carries the product
// as a device, so purchased items can link against it immediately.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.PriceSheet, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	sheet := &models.PriceSheet{
		ID:         uuid.New(),
		ClientID:   input.ClientID,
		ProductID:  input.ProductID,
		UnitCost:   input.UnitCost,
		SystemCost: input.SystemCost,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, sheet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create price sheet")
		}
		if _, err := repo.EnsureDevice(ctx, input.ClientID, input.ProductID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure device link")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PriceSheet, error) {
	sheet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "price sheet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price sheet")
	}
	return sheet, nil
}

func (s *service) AddDiscount(ctx context.Context, priceSheetID uuid.UUID, input DiscountInput) (*models.Discount, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount name required")
	}
	if !input.CostType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cost type")
	}
	if input.Order < 1 {
		input.Order = 1
	}

	if _, err := s.Get(ctx, priceSheetID); err != nil {
		return nil, err
	}

	discount := &models.Discount{
		ID:           uuid.New(),
		Name:         input.Name,
		PriceSheetID: priceSheetID,
		CostType:     input.CostType,
		DiscountType: input.DiscountType,
		ApplyPhase:   input.ApplyPhase,
		Percent:      input.Percent,
		Value:        input.Value,
		Order:        input.Order,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
	}
	if err := s.repo.CreateDiscount(ctx, discount); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount")
	}
	return discount, nil
}

// DiscountsByCostType returns the sheet's discounts grouped per cost type in
// display order, the shape the admin editing screen renders.
func (s *service) DiscountsByCostType(ctx context.Context, priceSheetID uuid.UUID) (map[enums.CostType][]models.Discount, error) {
	if _, err := s.Get(ctx, priceSheetID); err != nil {
		return nil, err
	}

	grouped := make(map[enums.CostType][]models.Discount, 2)
	for _, costType := range enums.CostTypes() {
		discounts, err := s.repo.ListDiscounts(ctx, priceSheetID, costType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discounts")
		}
		grouped[costType] = discounts
	}
	return grouped, nil
}
