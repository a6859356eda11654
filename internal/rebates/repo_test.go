package rebates

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/internal/items"
	"github.com/helixmedical/devicecost-backend/internal/pricesheets"
	"github.com/helixmedical/devicecost-backend/internal/tracker"
	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
	pkgerrors "github.com/helixmedical/devicecost-backend/pkg/errors"
)

func setupRebatesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  specialty_id TEXT NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  manufacturer_id TEXT NOT NULL,
  category_id TEXT NOT NULL,
  level INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS devices (
  id TEXT PRIMARY KEY,
  client_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  hospital_number TEXT,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS rep_cases (
  id TEXT PRIMARY KEY,
  client_id TEXT NOT NULL,
  physician_name TEXT,
  procedure_date DATE,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS price_sheets (
  id TEXT PRIMARY KEY,
  client_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  unit_cost NUMERIC NOT NULL DEFAULT 0,
  system_cost NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS discounts (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price_sheet_id TEXT NOT NULL,
  cost_type TEXT NOT NULL,
  discount_type TEXT NOT NULL DEFAULT 'percent',
  apply_phase TEXT NOT NULL DEFAULT 'point_of_sale',
  percent NUMERIC NOT NULL DEFAULT 0,
  value NUMERIC NOT NULL DEFAULT 0,
  ord INTEGER NOT NULL DEFAULT 1,
  start_date DATE,
  end_date DATE,
  rebate_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  device_id TEXT NOT NULL,
  rep_case_id TEXT,
  serial_number TEXT,
  lot_number TEXT,
  identifier TEXT NOT NULL,
  seq INTEGER NOT NULL DEFAULT 0,
  expired_date DATE,
  purchased_date DATE,
  cost NUMERIC NOT NULL DEFAULT 0,
  saving NUMERIC NOT NULL DEFAULT 0,
  is_used INTEGER NOT NULL DEFAULT 0,
  purchase_type TEXT NOT NULL DEFAULT 'bulk',
  cost_type TEXT NOT NULL DEFAULT 'unit',
  not_implanted_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS item_discounts (
  item_id TEXT NOT NULL,
  discount_id TEXT NOT NULL,
  PRIMARY KEY (item_id, discount_id)
);`, `
CREATE TABLE IF NOT EXISTS rebates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  client_id TEXT NOT NULL,
  manufacturer_id TEXT NOT NULL,
  start_date DATE,
  end_date DATE,
  status TEXT NOT NULL DEFAULT 'new',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS rebatable_items (
  id TEXT PRIMARY KEY,
  rebate_id TEXT NOT NULL,
  scope TEXT NOT NULL,
  target_id TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'eligible',
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS tiers (
  id TEXT PRIMARY KEY,
  rebate_id TEXT NOT NULL,
  tier_type TEXT NOT NULL DEFAULT 'spend',
  lower_bound NUMERIC NOT NULL DEFAULT 0,
  upper_bound NUMERIC,
  discount_type TEXT NOT NULL DEFAULT 'percent',
  percent NUMERIC NOT NULL DEFAULT 0,
  value NUMERIC NOT NULL DEFAULT 0,
  ord INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTx struct {
	db *gorm.DB
}

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type rebateStack struct {
	rebates  Service
	items    items.Service
	itemRepo items.Repository
}

func newRebateStack(t *testing.T, db *gorm.DB) rebateStack {
	t.Helper()

	sheetRepo := pricesheets.NewRepository(db)
	itemRepo := items.NewRepository(db)
	rebateRepo := NewRepository(db)

	aggregates, err := tracker.NewUpdater(tracker.NewRepository(db), nil)
	require.NoError(t, err)

	itemSvc, err := items.NewService(itemRepo, sheetRepo, aggregates, gormTx{db}, nil, nil)
	require.NoError(t, err)

	rebateSvc, err := NewService(rebateRepo, itemRepo, sheetRepo, itemSvc, gormTx{db}, nil, nil)
	require.NoError(t, err)

	return rebateStack{rebates: rebateSvc, items: itemSvc, itemRepo: itemRepo}
}

// seedPricedItem creates a product with a 1000 unit-cost sheet, a 15% order-1
// pre-order discount, and one purchased item carrying that discount. The item
// lands at cost 850.
func seedPricedItem(t *testing.T, db *gorm.DB, stack rebateStack, clientID, manufacturerID uuid.UUID) *models.Item {
	t.Helper()

	product := &models.Product{
		ID:             uuid.New(),
		Name:           "Mitral Clip",
		ManufacturerID: manufacturerID,
		CategoryID:     uuid.New(),
	}
	require.NoError(t, db.Create(product).Error)

	sheet := &models.PriceSheet{
		ID:        uuid.New(),
		ClientID:  clientID,
		ProductID: product.ID,
		UnitCost:  decimal.NewFromInt(1000),
	}
	require.NoError(t, db.Create(sheet).Error)

	bulk := &models.Discount{
		ID:           uuid.New(),
		Name:         "bulk",
		PriceSheetID: sheet.ID,
		CostType:     enums.CostTypeUnit,
		DiscountType: enums.DiscountTypePercent,
		ApplyPhase:   enums.ApplyPhasePreOrder,
		Percent:      decimal.NewFromInt(15),
		Order:        1,
	}
	require.NoError(t, db.Create(bulk).Error)

	purchased := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	serial := "SN-RT-1"
	item, err := stack.items.Create(context.Background(), items.CreateInput{
		ClientID:      clientID,
		ProductID:     product.ID,
		SerialNumber:  &serial,
		CostType:      enums.CostTypeUnit,
		PurchaseType:  enums.PurchaseTypeBulk,
		PurchasedDate: &purchased,
		DiscountIDs:   []uuid.UUID{bulk.ID},
	})
	require.NoError(t, err)
	require.True(t, item.Cost.Equal(decimal.NewFromInt(850)), "cost %s", item.Cost)
	return item
}

func createSpendRebate(t *testing.T, stack rebateStack, clientID, manufacturerID uuid.UUID) *models.Rebate {
	t.Helper()

	rebate, err := stack.rebates.Create(context.Background(), CreateInput{
		Name:           "Annual volume",
		ClientID:       clientID,
		ManufacturerID: manufacturerID,
		Tiers: []TierInput{{
			TierType:     enums.TierTypeSpend,
			LowerBound:   decimal.NewFromInt(100),
			DiscountType: enums.DiscountTypePercent,
			Percent:      decimal.NewFromInt(10),
			Order:        2,
		}},
	})
	require.NoError(t, err)
	return rebate
}

func TestRebateApplyUnapplyRestoresCosts(t *testing.T) {
	db := setupRebatesTestDB(t)
	stack := newRebateStack(t, db)

	clientID := uuid.New()
	manufacturerID := uuid.New()
	item := seedPricedItem(t, db, stack, clientID, manufacturerID)
	rebate := createSpendRebate(t, stack, clientID, manufacturerID)

	applied, err := stack.rebates.Apply(context.Background(), rebate.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RebateStatusComplete, applied.Status)

	// Spend 850 qualifies the tier; its 10% computes off the order-2 wave
	// base of 850, stacking on the 15% bulk discount.
	afterApply, err := stack.itemRepo.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, afterApply.Cost.Equal(decimal.NewFromInt(765)), "cost %s", afterApply.Cost)
	require.Len(t, afterApply.Discounts, 2)

	var rebateDiscounts int64
	require.NoError(t, db.Model(&models.Discount{}).Where("rebate_id = ?", rebate.ID).Count(&rebateDiscounts).Error)
	assert.Equal(t, int64(1), rebateDiscounts)

	unapplied, err := stack.rebates.Unapply(context.Background(), rebate.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RebateStatusNew, unapplied.Status)

	afterUnapply, err := stack.itemRepo.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, afterUnapply.Cost.Equal(decimal.NewFromInt(850)), "cost %s", afterUnapply.Cost)
	assert.True(t, afterUnapply.Saving.IsZero(), "saving %s", afterUnapply.Saving)
	require.Len(t, afterUnapply.Discounts, 1)
	assert.Equal(t, "bulk", afterUnapply.Discounts[0].Name)

	require.NoError(t, db.Model(&models.Discount{}).Where("rebate_id = ?", rebate.ID).Count(&rebateDiscounts).Error)
	assert.Equal(t, int64(0), rebateDiscounts)
}

func TestRebateApplyTwiceRejected(t *testing.T) {
	db := setupRebatesTestDB(t)
	stack := newRebateStack(t, db)

	clientID := uuid.New()
	manufacturerID := uuid.New()
	item := seedPricedItem(t, db, stack, clientID, manufacturerID)
	rebate := createSpendRebate(t, stack, clientID, manufacturerID)

	_, err := stack.rebates.Apply(context.Background(), rebate.ID)
	require.NoError(t, err)

	_, err = stack.rebates.Apply(context.Background(), rebate.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	// The rejected apply must not double-stack the tier discount.
	reloaded, err := stack.itemRepo.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Cost.Equal(decimal.NewFromInt(765)), "cost %s", reloaded.Cost)
	require.Len(t, reloaded.Discounts, 2)
}

func TestRepositoryResolveProductIDs(t *testing.T) {
	db := setupRebatesTestDB(t)
	repo := NewRepository(db)

	specialtyID := uuid.New()
	category := &models.Category{ID: uuid.New(), Name: "Structural Heart", SpecialtyID: specialtyID}
	require.NoError(t, db.Create(category).Error)

	inCategory := &models.Product{ID: uuid.New(), Name: "Valve", ManufacturerID: uuid.New(), CategoryID: category.ID}
	alsoInCategory := &models.Product{ID: uuid.New(), Name: "Ring", ManufacturerID: uuid.New(), CategoryID: category.ID}
	elsewhere := &models.Product{ID: uuid.New(), Name: "Stent", ManufacturerID: uuid.New(), CategoryID: uuid.New()}
	require.NoError(t, db.Create(inCategory).Error)
	require.NoError(t, db.Create(alsoInCategory).Error)
	require.NoError(t, db.Create(elsewhere).Error)

	resolved, err := repo.ResolveProductIDs(context.Background(), []models.RebatableItem{
		{Scope: enums.RebatableScopeProduct, TargetID: inCategory.ID},
		{Scope: enums.RebatableScopeCategory, TargetID: category.ID},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{inCategory.ID, alsoInCategory.ID}, resolved)

	resolved, err = repo.ResolveProductIDs(context.Background(), []models.RebatableItem{
		{Scope: enums.RebatableScopeSpecialty, TargetID: specialtyID},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{inCategory.ID, alsoInCategory.ID}, resolved)
}

func TestRepositoryUpdateStatusIf(t *testing.T) {
	db := setupRebatesTestDB(t)
	repo := NewRepository(db)

	rebate := &models.Rebate{
		ID:             uuid.New(),
		Name:           "Quarterly units",
		ClientID:       uuid.New(),
		ManufacturerID: uuid.New(),
		Status:         enums.RebateStatusNew,
	}
	require.NoError(t, db.Create(rebate).Error)

	flipped, err := repo.UpdateStatusIf(context.Background(), rebate.ID, enums.RebateStatusNew, enums.RebateStatusComplete)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.UpdateStatusIf(context.Background(), rebate.ID, enums.RebateStatusNew, enums.RebateStatusComplete)
	require.NoError(t, err)
	assert.False(t, flipped)

	flipped, err = repo.UpdateStatusIf(context.Background(), uuid.New(), enums.RebateStatusNew, enums.RebateStatusComplete)
	require.NoError(t, err)
	assert.False(t, flipped)
}
