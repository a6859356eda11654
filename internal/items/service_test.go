package items

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/internal/pricesheets"
	"github.com/helixmedical/devicecost-backend/internal/tracker"
	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
	pkgerrors "github.com/helixmedical/devicecost-backend/pkg/errors"
	"github.com/helixmedical/devicecost-backend/pkg/pagination"
)

type stubItemRepo struct {
	item    *models.Item
	nextSeq int64

	created  *models.Item
	updated  *models.Item
	replaced []models.Discount
}

func (s *stubItemRepo) WithTx(tx *gorm.DB) Repository { return s }
func (s *stubItemRepo) Create(ctx context.Context, item *models.Item) error {
	if item.Device == nil {
		item.Device = &models.Device{ID: item.DeviceID, ClientID: uuid.New(), ProductID: uuid.New()}
	}
	s.created = item
	if s.item == nil {
		s.item = item
	}
	return nil
}
func (s *stubItemRepo) Update(ctx context.Context, item *models.Item) error {
	s.updated = item
	return nil
}
func (s *stubItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if s.item == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.item, nil
}
func (s *stubItemRepo) Find(ctx context.Context, filter Filter) ([]models.Item, error) {
	return nil, nil
}
func (s *stubItemRepo) ListPage(ctx context.Context, filter Filter, limit int, cursor *pagination.Cursor) ([]models.Item, *pagination.Cursor, error) {
	if s.item == nil {
		return nil, nil, nil
	}
	return []models.Item{*s.item}, nil, nil
}
func (s *stubItemRepo) ReplaceDiscounts(ctx context.Context, item *models.Item, discounts []models.Discount) error {
	s.replaced = discounts
	item.Discounts = discounts
	return nil
}
func (s *stubItemRepo) AddDiscount(ctx context.Context, item *models.Item, discount *models.Discount) error {
	item.Discounts = append(item.Discounts, *discount)
	return nil
}
func (s *stubItemRepo) NextSeq(ctx context.Context) (int64, error) {
	if s.nextSeq == 0 {
		s.nextSeq = 1
	}
	return s.nextSeq, nil
}
func (s *stubItemRepo) ClientSpendBetween(ctx context.Context, clientID uuid.UUID, from, to *time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type stubSheetRepo struct {
	sheet     *models.PriceSheet
	device    *models.Device
	discounts []models.Discount
}

func (s *stubSheetRepo) WithTx(tx *gorm.DB) pricesheets.Repository { return s }
func (s *stubSheetRepo) Create(ctx context.Context, sheet *models.PriceSheet) error {
	return nil
}
func (s *stubSheetRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PriceSheet, error) {
	if s.sheet == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.sheet, nil
}
func (s *stubSheetRepo) FindByClientProduct(ctx context.Context, clientID, productID uuid.UUID) (*models.PriceSheet, error) {
	if s.sheet == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.sheet, nil
}
func (s *stubSheetRepo) EnsureDevice(ctx context.Context, clientID, productID uuid.UUID) (*models.Device, error) {
	if s.device == nil {
		s.device = &models.Device{ID: uuid.New(), ClientID: clientID, ProductID: productID}
	}
	return s.device, nil
}
func (s *stubSheetRepo) CreateDiscount(ctx context.Context, discount *models.Discount) error {
	return nil
}
func (s *stubSheetRepo) ListDiscounts(ctx context.Context, priceSheetID uuid.UUID, costType enums.CostType) ([]models.Discount, error) {
	return s.discounts, nil
}
func (s *stubSheetRepo) FindDiscountsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Discount, error) {
	return s.discounts, nil
}
func (s *stubSheetRepo) GetOrCreateRebateDiscount(ctx context.Context, discount *models.Discount) (*models.Discount, error) {
	return discount, nil
}
func (s *stubSheetRepo) DeleteDiscountsByRebate(ctx context.Context, rebateID uuid.UUID) error {
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubAggregates struct {
	keys []tracker.BucketKey
}

func (s *stubAggregates) Refresh(ctx context.Context, tx *gorm.DB, key tracker.BucketKey) error {
	s.keys = append(s.keys, key)
	return nil
}

func newTestService(t *testing.T, repo *stubItemRepo, sheets *stubSheetRepo, agg *stubAggregates) Service {
	t.Helper()
	svc, err := NewService(repo, sheets, agg, stubTx{}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error building service: %v", err)
	}
	return svc
}

func usedItem(cost decimal.Decimal) *models.Item {
	clientID := uuid.New()
	productID := uuid.New()
	procedure := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	purchased := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &models.Item{
		ID:            uuid.New(),
		Identifier:    "SN-1",
		SerialNumber:  strPtr("SN-1"),
		PurchasedDate: &purchased,
		Cost:          cost,
		IsUsed:        true,
		CostType:      enums.CostTypeUnit,
		Device: &models.Device{
			ID:        uuid.New(),
			ClientID:  clientID,
			ProductID: productID,
			Product: &models.Product{
				ID:         productID,
				CategoryID: uuid.New(),
				Level:      2,
			},
		},
		RepCase: &models.RepCase{
			ID:            uuid.New(),
			ProcedureDate: &procedure,
		},
	}
}

func TestServiceCreateRequiresClient(t *testing.T) {
	svc := newTestService(t, &stubItemRepo{}, &stubSheetRepo{}, &stubAggregates{})
	_, err := svc.Create(context.Background(), CreateInput{ProductID: uuid.New()})
	if err == nil {
		t.Fatal("expected error when client id is missing")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceCreateBindsCostFromSheet(t *testing.T) {
	purchased := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	sheets := &stubSheetRepo{
		sheet: &models.PriceSheet{
			ID:       uuid.New(),
			UnitCost: decimal.NewFromInt(100),
		},
		discounts: []models.Discount{
			{
				ID:           uuid.New(),
				Name:         "bulk",
				CostType:     enums.CostTypeUnit,
				DiscountType: enums.DiscountTypePercent,
				ApplyPhase:   enums.ApplyPhasePreOrder,
				Percent:      decimal.NewFromInt(10),
				Order:        1,
			},
		},
	}
	repo := &stubItemRepo{}
	svc := newTestService(t, repo, sheets, &stubAggregates{})

	item, err := svc.Create(context.Background(), CreateInput{
		ClientID:      uuid.New(),
		ProductID:     uuid.New(),
		SerialNumber:  strPtr("SN-77"),
		CostType:      enums.CostTypeUnit,
		PurchasedDate: &purchased,
		DiscountIDs:   []uuid.UUID{sheets.discounts[0].ID},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Identifier != "SN-77" {
		t.Fatalf("expected serial identifier, got %q", item.Identifier)
	}
	if !item.Cost.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected cost 90 after 10%% pre-order discount, got %s", item.Cost)
	}
	if repo.updated == nil {
		t.Fatal("expected item saved after cost binding")
	}
}

func TestServiceAssignDiscountsMissingSheetKeepsCost(t *testing.T) {
	item := usedItem(decimal.NewFromInt(450))
	repo := &stubItemRepo{item: item}
	svc := newTestService(t, repo, &stubSheetRepo{}, &stubAggregates{})

	out, err := svc.AssignDiscounts(context.Background(), item.ID, []uuid.UUID{uuid.New()})
	if err != nil {
		t.Fatalf("missing price sheet should be a no-op, got %v", err)
	}
	if !out.Cost.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("expected cost untouched, got %s", out.Cost)
	}
	if repo.updated == nil {
		t.Fatal("item should still be saved with its previous numbers")
	}
}

func TestServiceMarkUsedRefreshesAggregateOnFlagChange(t *testing.T) {
	item := usedItem(decimal.NewFromInt(100))
	item.IsUsed = false
	agg := &stubAggregates{}
	svc := newTestService(t, &stubItemRepo{item: item}, &stubSheetRepo{}, agg)

	out, err := svc.MarkUsed(context.Background(), item.ID, true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsUsed {
		t.Fatal("expected item marked used")
	}
	if len(agg.keys) != 1 {
		t.Fatalf("expected one aggregate refresh, got %d", len(agg.keys))
	}
	key := agg.keys[0]
	if key.ClientID != item.Device.ClientID {
		t.Fatal("aggregate key should carry the item's client")
	}
	if key.Year != item.RepCase.ProcedureDate.Year() {
		t.Fatalf("aggregate key should carry the procedure year, got %d", key.Year)
	}
	if key.Level != item.Device.Product.Level {
		t.Fatalf("aggregate key should carry the product level, got %d", key.Level)
	}
}

func TestServiceMarkUsedNoChangeSkipsAggregate(t *testing.T) {
	item := usedItem(decimal.NewFromInt(100))
	agg := &stubAggregates{}
	svc := newTestService(t, &stubItemRepo{item: item}, &stubSheetRepo{}, agg)

	if _, err := svc.MarkUsed(context.Background(), item.ID, true, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agg.keys) != 0 {
		t.Fatalf("unchanged used flag should not refresh aggregates, got %d", len(agg.keys))
	}
}

func TestServiceRecomputeAndSaveForcesAggregate(t *testing.T) {
	item := usedItem(decimal.NewFromInt(100))
	agg := &stubAggregates{}
	svc := newTestService(t, &stubItemRepo{item: item}, &stubSheetRepo{}, agg)

	force := true
	if err := svc.RecomputeAndSave(context.Background(), nil, item.ID, &force); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agg.keys) != 1 {
		t.Fatalf("expected forced aggregate refresh, got %d", len(agg.keys))
	}

	agg.keys = nil
	if err := svc.RecomputeAndSave(context.Background(), nil, item.ID, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agg.keys) != 0 {
		t.Fatalf("nil force should skip the refresh, got %d", len(agg.keys))
	}
}

func TestServiceUpdateRederivesIdentifierOnSerialChange(t *testing.T) {
	item := usedItem(decimal.NewFromInt(100))
	repo := &stubItemRepo{item: item}
	svc := newTestService(t, repo, &stubSheetRepo{}, &stubAggregates{})

	out, err := svc.Update(context.Background(), item.ID, UpdateInput{SerialNumber: strPtr("SN-2")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Identifier != "SN-2" {
		t.Fatalf("expected identifier rederived from new serial, got %q", out.Identifier)
	}
	if repo.updated == nil {
		t.Fatal("expected item saved")
	}
}

func TestServiceUpdateDoesNotRefreshAggregate(t *testing.T) {
	item := usedItem(decimal.NewFromInt(100))
	agg := &stubAggregates{}
	svc := newTestService(t, &stubItemRepo{item: item}, &stubSheetRepo{}, agg)

	if _, err := svc.Update(context.Background(), item.ID, UpdateInput{SerialNumber: strPtr("SN-9")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agg.keys) != 0 {
		t.Fatalf("identity edit should not refresh aggregates, got %d", len(agg.keys))
	}
}

func TestServiceUpdateKeepsIdentifierWhenIdentityUnchanged(t *testing.T) {
	item := usedItem(decimal.NewFromInt(100))
	purchased := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(t, &stubItemRepo{item: item}, &stubSheetRepo{}, &stubAggregates{})

	out, err := svc.Update(context.Background(), item.ID, UpdateInput{PurchasedDate: &purchased})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Identifier != "SN-1" {
		t.Fatalf("expected identifier untouched, got %q", out.Identifier)
	}
	if out.PurchasedDate == nil || !out.PurchasedDate.Equal(purchased) {
		t.Fatalf("expected purchased date updated, got %v", out.PurchasedDate)
	}
}

func TestServiceListRequiresClient(t *testing.T) {
	svc := newTestService(t, &stubItemRepo{}, &stubSheetRepo{}, &stubAggregates{})
	_, err := svc.List(context.Background(), ListParams{})
	if err == nil {
		t.Fatal("expected error when client id is missing")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceListRejectsBadCursor(t *testing.T) {
	svc := newTestService(t, &stubItemRepo{}, &stubSheetRepo{}, &stubAggregates{})
	_, err := svc.List(context.Background(), ListParams{
		Filter: Filter{ClientID: uuid.New()},
		Cursor: "not-a-cursor",
	})
	if err == nil {
		t.Fatal("expected error for malformed cursor")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceListReturnsPage(t *testing.T) {
	item := usedItem(decimal.NewFromInt(100))
	svc := newTestService(t, &stubItemRepo{item: item}, &stubSheetRepo{}, &stubAggregates{})

	result, err := svc.List(context.Background(), ListParams{
		Filter: Filter{ClientID: item.Device.ClientID},
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(result.Items))
	}
	if result.NextCursor != "" {
		t.Fatalf("expected empty next cursor on final page, got %q", result.NextCursor)
	}
}

func TestServiceGetNotFound(t *testing.T) {
	svc := newTestService(t, &stubItemRepo{}, &stubSheetRepo{}, &stubAggregates{})
	_, err := svc.Get(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error for unknown item")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
