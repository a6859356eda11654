package pricesheets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
	pkgerrors "github.com/helixmedical/devicecost-backend/pkg/errors"
)

type stubRepo struct {
	sheet     *models.PriceSheet
	discounts map[enums.CostType][]models.Discount

	createdSheet    *models.PriceSheet
	createdDiscount *models.Discount
	ensuredDevice   bool
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }
func (s *stubRepo) Create(ctx context.Context, sheet *models.PriceSheet) error {
	s.createdSheet = sheet
	return nil
}
func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PriceSheet, error) {
	if s.sheet == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.sheet, nil
}
func (s *stubRepo) FindByClientProduct(ctx context.Context, clientID, productID uuid.UUID) (*models.PriceSheet, error) {
	if s.sheet == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.sheet, nil
}
func (s *stubRepo) EnsureDevice(ctx context.Context, clientID, productID uuid.UUID) (*models.Device, error) {
	s.ensuredDevice = true
	return &models.Device{ID: uuid.New(), ClientID: clientID, ProductID: productID}, nil
}
func (s *stubRepo) CreateDiscount(ctx context.Context, discount *models.Discount) error {
	s.createdDiscount = discount
	return nil
}
func (s *stubRepo) ListDiscounts(ctx context.Context, priceSheetID uuid.UUID, costType enums.CostType) ([]models.Discount, error) {
	return s.discounts[costType], nil
}
func (s *stubRepo) FindDiscountsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Discount, error) {
	return nil, nil
}
func (s *stubRepo) GetOrCreateRebateDiscount(ctx context.Context, discount *models.Discount) (*models.Discount, error) {
	return discount, nil
}
func (s *stubRepo) DeleteDiscountsByRebate(ctx context.Context, rebateID uuid.UUID) error {
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *stubRepo) Service {
	t.Helper()
	svc, err := NewService(repo, stubTx{}, nil)
	if err != nil {
		t.Fatalf("unexpected error building service: %v", err)
	}
	return svc
}

func TestServiceCreateRequiresClient(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	_, err := svc.Create(context.Background(), CreateInput{ProductID: uuid.New()})
	if err == nil {
		t.Fatal("expected error when client id is missing")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceCreateEnsuresDevice(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	sheet, err := svc.Create(context.Background(), CreateInput{
		ClientID:   uuid.New(),
		ProductID:  uuid.New(),
		UnitCost:   decimal.NewFromInt(1200),
		SystemCost: decimal.NewFromInt(6000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.createdSheet == nil {
		t.Fatal("expected sheet persisted")
	}
	if !repo.ensuredDevice {
		t.Fatal("creating a sheet should link the product as a device")
	}
	if !sheet.UnitCost.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("expected unit cost 1200, got %s", sheet.UnitCost)
	}
}

func TestServiceAddDiscountRequiresName(t *testing.T) {
	svc := newTestService(t, &stubRepo{sheet: &models.PriceSheet{ID: uuid.New()}})
	_, err := svc.AddDiscount(context.Background(), uuid.New(), DiscountInput{CostType: enums.CostTypeUnit})
	if err == nil {
		t.Fatal("expected error for empty name")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceAddDiscountUnknownSheet(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	_, err := svc.AddDiscount(context.Background(), uuid.New(), DiscountInput{
		Name:     "volume",
		CostType: enums.CostTypeUnit,
	})
	if err == nil {
		t.Fatal("expected error for unknown sheet")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestServiceAddDiscountDefaultsOrder(t *testing.T) {
	repo := &stubRepo{sheet: &models.PriceSheet{ID: uuid.New()}}
	svc := newTestService(t, repo)

	discount, err := svc.AddDiscount(context.Background(), repo.sheet.ID, DiscountInput{
		Name:         "volume",
		CostType:     enums.CostTypeUnit,
		DiscountType: enums.DiscountTypePercent,
		ApplyPhase:   enums.ApplyPhasePreOrder,
		Percent:      decimal.NewFromInt(10),
		Order:        0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount.Order != 1 {
		t.Fatalf("expected order defaulted to 1, got %d", discount.Order)
	}
	if repo.createdDiscount == nil {
		t.Fatal("expected discount persisted")
	}
}

func TestServiceDiscountsByCostTypeGroups(t *testing.T) {
	sheetID := uuid.New()
	repo := &stubRepo{
		sheet: &models.PriceSheet{ID: sheetID},
		discounts: map[enums.CostType][]models.Discount{
			enums.CostTypeUnit: {
				{ID: uuid.New(), Name: "volume", CostType: enums.CostTypeUnit},
				{ID: uuid.New(), Name: "trade-in", CostType: enums.CostTypeUnit},
			},
			enums.CostTypeSystem: {
				{ID: uuid.New(), Name: "bundle", CostType: enums.CostTypeSystem},
			},
		},
	}
	svc := newTestService(t, repo)

	grouped, err := svc.DiscountsByCostType(context.Background(), sheetID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(grouped[enums.CostTypeUnit]) != 2 {
		t.Fatalf("expected two unit discounts, got %d", len(grouped[enums.CostTypeUnit]))
	}
	if len(grouped[enums.CostTypeSystem]) != 1 {
		t.Fatalf("expected one system discount, got %d", len(grouped[enums.CostTypeSystem]))
	}
}
