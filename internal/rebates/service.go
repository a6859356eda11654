package rebates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/internal/items"
	"github.com/helixmedical/devicecost-backend/internal/pricesheets"
	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
	pkgerrors "github.com/helixmedical/devicecost-backend/pkg/errors"
	"github.com/helixmedical/devicecost-backend/pkg/logger"
	"github.com/helixmedical/devicecost-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// itemRecomputer rebinds one item's cost inside the rebate transaction.
type itemRecomputer interface {
	RecomputeAndSave(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, forceAggregate *bool) error
}

// Service owns the rebate lifecycle, including the apply/unapply state
// machine that materializes and removes tier discounts.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Rebate, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Rebate, error)
	List(ctx context.Context, clientID uuid.UUID) ([]models.Rebate, error)
	Apply(ctx context.Context, id uuid.UUID) (*models.Rebate, error)
	Unapply(ctx context.Context, id uuid.UUID) (*models.Rebate, error)
}

type service struct {
	repo      Repository
	items     items.Repository
	sheets    pricesheets.Repository
	recompute itemRecomputer
	tx        txRunner
	logg      *logger.Logger
	metrics   *metrics.PricingMetrics
}

// NewService builds a rebate service with the required dependencies.
func NewService(repo Repository, itemRepo items.Repository, sheets pricesheets.Repository, recompute itemRecomputer, tx txRunner, logg *logger.Logger, pricingMetrics *metrics.PricingMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rebate repository required")
	}
	if itemRepo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if sheets == nil {
		return nil, fmt.Errorf("price sheet repository required")
	}
	if recompute == nil {
		return nil, fmt.Errorf("item recomputer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:      repo,
		items:     itemRepo,
		sheets:    sheets,
		recompute: recompute,
		tx:        tx,
		logg:      logg,
		metrics:   pricingMetrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Rebate, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rebate name required")
	}
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	if input.ManufacturerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "manufacturer id required")
	}
	for _, scope := range input.Scopes {
		if !scope.Scope.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid scope %q", scope.Scope))
		}
		if !scope.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid scope role %q", scope.Role))
		}
	}
	for _, tier := range input.Tiers {
		if !tier.TierType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid tier type %q", tier.TierType))
		}
	}

	rebate := &models.Rebate{
		ID:             uuid.New(),
		Name:           input.Name,
		ClientID:       input.ClientID,
		ManufacturerID: input.ManufacturerID,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		Status:         enums.RebateStatusNew,
	}
	for _, scope := range input.Scopes {
		rebate.RebatableItems = append(rebate.RebatableItems, models.RebatableItem{
			ID:       uuid.New(),
			RebateID: rebate.ID,
			Scope:    scope.Scope,
			TargetID: scope.TargetID,
			Role:     scope.Role,
		})
	}
	for _, tier := range input.Tiers {
		rebate.Tiers = append(rebate.Tiers, models.Tier{
			ID:           uuid.New(),
			RebateID:     rebate.ID,
			TierType:     tier.TierType,
			LowerBound:   tier.LowerBound,
			UpperBound:   tier.UpperBound,
			DiscountType: tier.DiscountType,
			Percent:      tier.Percent,
			Value:        tier.Value,
			Order:        tier.Order,
		})
	}

	if err := s.repo.CreateRebate(ctx, rebate); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rebate")
	}
	return rebate, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Rebate, error) {
	rebate, err := s.repo.FindRebate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rebate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rebate")
	}
	return rebate, nil
}

func (s *service) List(ctx context.Context, clientID uuid.UUID) ([]models.Rebate, error) {
	rebates, err := s.repo.ListRebates(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rebates")
	}
	return rebates, nil
}

// Apply materializes tier discounts across every rebated item and flips the
// rebate to complete. The whole transition runs in one transaction: the
// conditional status write up front rejects concurrent or repeated applies.
func (s *service) Apply(ctx context.Context, id uuid.UUID) (*models.Rebate, error) {
	return s.transition(ctx, id, "apply", enums.RebateStatusNew, enums.RebateStatusComplete, s.applyLocked)
}

// Unapply deletes every discount the rebate created, rebinds affected item
// costs from their remaining discounts, and flips the rebate back to new.
func (s *service) Unapply(ctx context.Context, id uuid.UUID) (*models.Rebate, error) {
	return s.transition(ctx, id, "unapply", enums.RebateStatusComplete, enums.RebateStatusNew, s.unapplyLocked)
}

func (s *service) transition(ctx context.Context, id uuid.UUID, action string, from, to enums.RebateStatus, mutate func(ctx context.Context, tx *gorm.DB, rebate *models.Rebate) error) (*models.Rebate, error) {
	started := time.Now()
	var out *models.Rebate

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// The conditional write takes the row lock and enforces the
		// precondition in one statement. Zero rows means either the rebate
		// is missing or it is in the wrong state.
		flipped, err := repo.UpdateStatusIf(ctx, id, from, to)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rebate status")
		}
		if !flipped {
			if _, err := repo.FindRebate(ctx, id); errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "rebate not found")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("rebate must be %s to %s", from, action))
		}

		rebate, err := repo.FindRebate(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rebate")
		}

		if err := mutate(ctx, tx, rebate); err != nil {
			return err
		}

		out = rebate
		return nil
	})
	if err != nil {
		outcome := "failure"
		if pkgerrors.As(err).Code() == pkgerrors.CodeStateConflict {
			outcome = "rejected"
		}
		s.metrics.IncRebateTransition(action, outcome)
		return nil, err
	}

	s.metrics.IncRebateTransition(action, "success")
	s.metrics.ObserveRebateDuration(action, time.Since(started))
	if s.logg != nil {
		s.logg.Info(s.logg.WithRebateID(ctx, id.String()), fmt.Sprintf("rebate %s complete", action))
	}
	return out, nil
}

func (s *service) applyLocked(ctx context.Context, tx *gorm.DB, rebate *models.Rebate) error {
	repo := s.repo.WithTx(tx)
	itemRepo := s.items.WithTx(tx)
	sheetRepo := s.sheets.WithTx(tx)

	eligibleItems, err := s.scopedItems(ctx, repo, itemRepo, rebate, rebate.EligibleScopes())
	if err != nil {
		return err
	}
	rebatedItems, err := s.scopedItems(ctx, repo, itemRepo, rebate, rebate.RebatedScopes())
	if err != nil {
		return err
	}

	clientTotalSpend, err := itemRepo.ClientSpendBetween(ctx, rebate.ClientID, rebate.StartDate, rebate.EndDate)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute client spend")
	}

	// Tiers are independent: each qualifying tier contributes its own
	// discount, materialized once per (price sheet, cost type) and attached
	// to every rebated item of that cost type.
	sheetCache := make(map[uuid.UUID]*models.PriceSheet)
	for _, tier := range rebate.Tiers {
		if !Qualifies(tier, eligibleItems, clientTotalSpend) {
			continue
		}
		if err := s.materializeTier(ctx, sheetRepo, itemRepo, rebate, tier, rebatedItems, sheetCache); err != nil {
			return err
		}
	}

	return s.recomputeAll(ctx, tx, rebatedItems)
}

func (s *service) unapplyLocked(ctx context.Context, tx *gorm.DB, rebate *models.Rebate) error {
	repo := s.repo.WithTx(tx)
	itemRepo := s.items.WithTx(tx)
	sheetRepo := s.sheets.WithTx(tx)

	// Items must be resolved before the delete severs the discount links;
	// scope resolution itself is unaffected but keeping the order explicit
	// mirrors apply.
	rebatedItems, err := s.scopedItems(ctx, repo, itemRepo, rebate, rebate.RebatedScopes())
	if err != nil {
		return err
	}

	if err := sheetRepo.DeleteDiscountsByRebate(ctx, rebate.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete rebate discounts")
	}

	return s.recomputeAll(ctx, tx, rebatedItems)
}

// scopedItems resolves a role's scope rows to the concrete item set: the
// client's purchases of the manufacturer's products, narrowed to the scope's
// products and the rebate window. No scope rows means no product filter.
func (s *service) scopedItems(ctx context.Context, repo Repository, itemRepo items.Repository, rebate *models.Rebate, scopes []models.RebatableItem) ([]models.Item, error) {
	filter := items.Filter{
		ClientID:       rebate.ClientID,
		ManufacturerID: rebate.ManufacturerID,
		PurchasedFrom:  rebate.StartDate,
		PurchasedTo:    rebate.EndDate,
	}
	if len(scopes) > 0 {
		productIDs, err := repo.ResolveProductIDs(ctx, scopes)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve scope products")
		}
		if productIDs == nil {
			productIDs = []uuid.UUID{}
		}
		filter.ProductIDs = productIDs
	}

	scoped, err := itemRepo.Find(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve scoped items")
	}
	return scoped, nil
}

func (s *service) materializeTier(ctx context.Context, sheetRepo pricesheets.Repository, itemRepo items.Repository, rebate *models.Rebate, tier models.Tier, rebatedItems []models.Item, sheetCache map[uuid.UUID]*models.PriceSheet) error {
	for i := range rebatedItems {
		item := &rebatedItems[i]
		if item.Device == nil {
			continue
		}

		sheet, ok := sheetCache[item.DeviceID]
		if !ok {
			found, err := sheetRepo.FindByClientProduct(ctx, item.Device.ClientID, item.Device.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					sheetCache[item.DeviceID] = nil
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price sheet")
			}
			sheet = found
			sheetCache[item.DeviceID] = sheet
		}
		if sheet == nil {
			continue
		}

		rebateID := rebate.ID
		discount, err := sheetRepo.GetOrCreateRebateDiscount(ctx, &models.Discount{
			ID:           uuid.New(),
			Name:         fmt.Sprintf("%s: %s", rebate.Name, tier.Label()),
			PriceSheetID: sheet.ID,
			CostType:     item.CostType,
			DiscountType: tier.DiscountType,
			ApplyPhase:   enums.ApplyPhasePostOrder,
			Percent:      tier.Percent,
			Value:        tier.Value,
			Order:        tier.Order,
			StartDate:    rebate.StartDate,
			EndDate:      rebate.EndDate,
			RebateID:     &rebateID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "materialize tier discount")
		}

		if err := itemRepo.AddDiscount(ctx, item, discount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach tier discount")
		}
	}
	return nil
}

// recomputeAll rebinds every rebated item's cost from its full current
// discount set. Used items force an aggregate refresh even though the used
// flag did not change: their post-rebate costs feed purchase price stats.
func (s *service) recomputeAll(ctx context.Context, tx *gorm.DB, rebatedItems []models.Item) error {
	for i := range rebatedItems {
		force := rebatedItems[i].IsUsed
		if err := s.recompute.RecomputeAndSave(ctx, tx, rebatedItems[i].ID, &force); err != nil {
			return err
		}
	}
	return nil
}
