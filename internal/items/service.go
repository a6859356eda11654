package items

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/internal/pricesheets"
	"github.com/helixmedical/devicecost-backend/internal/pricing"
	"github.com/helixmedical/devicecost-backend/internal/tracker"
	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
	pkgerrors "github.com/helixmedical/devicecost-backend/pkg/errors"
	"github.com/helixmedical/devicecost-backend/pkg/logger"
	"github.com/helixmedical/devicecost-backend/pkg/metrics"
	"github.com/helixmedical/devicecost-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type aggregateRefresher interface {
	Refresh(ctx context.Context, tx *gorm.DB, key tracker.BucketKey) error
}

// Service owns the purchased-item lifecycle: intake, discount binding, usage
// marking, and the redemption preview.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Item, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Item, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, itemID uuid.UUID, input UpdateInput) (*models.Item, error)
	AssignDiscounts(ctx context.Context, itemID uuid.UUID, discountIDs []uuid.UUID) (*models.Item, error)
	MarkUsed(ctx context.Context, itemID uuid.UUID, used bool, notImplantedReason *string) (*models.Item, error)
	Redemption(ctx context.Context, itemID uuid.UUID) (*pricing.Result, error)

	// RecomputeAndSave rebinds an item's cost from its full current discount
	// set inside the caller's transaction. forceAggregate overrides the
	// derived aggregate-refresh trigger; rebate apply/unapply forces it to
	// the item's used flag so post-rebate costs refresh aggregate stats.
	RecomputeAndSave(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, forceAggregate *bool) error
}

type service struct {
	repo       Repository
	sheets     pricesheets.Repository
	aggregates aggregateRefresher
	tx         txRunner
	logg       *logger.Logger
	metrics    *metrics.PricingMetrics
}

// NewService builds an item service with the required dependencies.
func NewService(repo Repository, sheets pricesheets.Repository, aggregates aggregateRefresher, tx txRunner, logg *logger.Logger, pricingMetrics *metrics.PricingMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if sheets == nil {
		return nil, fmt.Errorf("price sheet repository required")
	}
	if aggregates == nil {
		return nil, fmt.Errorf("aggregate refresher required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       repo,
		sheets:     sheets,
		aggregates: aggregates,
		tx:         tx,
		logg:       logg,
		metrics:    pricingMetrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Item, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !input.CostType.IsValid() {
		input.CostType = enums.CostTypeUnit
	}

	var created *models.Item
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sheets := s.sheets.WithTx(tx)

		device, err := sheets.EnsureDevice(ctx, input.ClientID, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure device link")
		}

		item := &models.Item{
			ID:            uuid.New(),
			DeviceID:      device.ID,
			RepCaseID:     input.RepCaseID,
			SerialNumber:  input.SerialNumber,
			LotNumber:     input.LotNumber,
			PurchasedDate: input.PurchasedDate,
			ExpiredDate:   input.ExpiredDate,
			IsUsed:        input.IsUsed,
			PurchaseType:  input.PurchaseType,
			CostType:      input.CostType,
		}

		seq, err := repo.NextSeq(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate item sequence")
		}
		if err := setIdentifier(item, seq); err != nil {
			return err
		}

		if err := repo.Create(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
		}

		// Reload so discount binding sees the device/product/rep case graph.
		item, err = repo.FindByID(ctx, item.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload item")
		}

		if len(input.DiscountIDs) > 0 {
			discounts, err := sheets.FindDiscountsByIDs(ctx, input.DiscountIDs)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discounts")
			}
			if err := repo.ReplaceDiscounts(ctx, item, discounts); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach discounts")
			}
		}
		if err := s.bindCost(ctx, sheets, item); err != nil {
			return err
		}

		if err := repo.Update(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save item")
		}
		if item.IsUsed {
			if err := s.refreshAggregate(ctx, tx, item); err != nil {
				return err
			}
		}

		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

// List returns one cursor page of a client's items, newest first.
func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Filter.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	items, next, err := s.repo.ListPage(ctx, params.Filter, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}

	result := &ListResult{Items: items}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// Update edits an item's identity and dates. The identifier is rederived only
// when serial or lot number actually changed; lot-numbered items keep their
// allocated sequence.
func (s *service) Update(ctx context.Context, itemID uuid.UUID, input UpdateInput) (*models.Item, error) {
	var out *models.Item
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sheets := s.sheets.WithTx(tx)

		item, err := repo.FindByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
		}

		incoming := *item
		if input.SerialNumber != nil {
			incoming.SerialNumber = input.SerialNumber
		}
		if input.LotNumber != nil {
			incoming.LotNumber = input.LotNumber
		}
		if identityChanged(item, &incoming) {
			seq := item.Seq
			if seq == 0 {
				if seq, err = repo.NextSeq(ctx); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate item sequence")
				}
			}
			item.SerialNumber = incoming.SerialNumber
			item.LotNumber = incoming.LotNumber
			if err := setIdentifier(item, seq); err != nil {
				return err
			}
		}
		if input.PurchasedDate != nil {
			item.PurchasedDate = input.PurchasedDate
		}
		if input.ExpiredDate != nil {
			item.ExpiredDate = input.ExpiredDate
		}

		if err := s.bindCost(ctx, sheets, item); err != nil {
			return err
		}
		// The used flag cannot change here, so the aggregate trigger never
		// fires on an identity or date edit.
		if err := repo.Update(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save item")
		}

		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AssignDiscounts replaces the item's discount set and rebinds cost/saving
// from the redemption result.
func (s *service) AssignDiscounts(ctx context.Context, itemID uuid.UUID, discountIDs []uuid.UUID) (*models.Item, error) {
	var out *models.Item
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sheets := s.sheets.WithTx(tx)

		item, err := repo.FindByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
		}

		discounts, err := sheets.FindDiscountsByIDs(ctx, discountIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discounts")
		}

		if err := repo.ReplaceDiscounts(ctx, item, discounts); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace discounts")
		}
		if err := s.bindCost(ctx, sheets, item); err != nil {
			return err
		}
		if err := repo.Update(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save item")
		}

		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) MarkUsed(ctx context.Context, itemID uuid.UUID, used bool, notImplantedReason *string) (*models.Item, error) {
	var out *models.Item
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
		}

		wasUsed := item.IsUsed
		item.IsUsed = used
		item.NotImplantedReason = notImplantedReason

		if err := repo.Update(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save item")
		}
		if wasUsed != item.IsUsed {
			if err := s.refreshAggregate(ctx, tx, item); err != nil {
				return err
			}
		}

		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Redemption computes the admin-facing cost breakdown for an item without
// persisting anything.
func (s *service) Redemption(ctx context.Context, itemID uuid.UUID) (*pricing.Result, error) {
	item, err := s.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}

	sheet, err := s.sheets.FindByClientProduct(ctx, item.Device.ClientID, item.Device.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no price sheet for item's product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price sheet")
	}

	result := pricing.Redeem(sheet.OriginalCost(item.CostType), item.Discounts, item.CostType, pricing.ReferenceDatesForItem(*item))
	s.metrics.IncRedemption(item.CostType.String())
	return &result, nil
}

func (s *service) RecomputeAndSave(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, forceAggregate *bool) error {
	repo := s.repo.WithTx(tx)
	sheets := s.sheets.WithTx(tx)

	item, err := repo.FindByID(ctx, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item for recompute")
	}

	if err := s.bindCost(ctx, sheets, item); err != nil {
		return err
	}
	if err := repo.Update(ctx, item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save recomputed item")
	}

	trigger := false
	if forceAggregate != nil {
		trigger = *forceAggregate
	}
	if trigger {
		return s.refreshAggregate(ctx, tx, item)
	}
	return nil
}

// bindCost runs the redemption engine against the item's price sheet and
// stamps the resulting cost/saving. A missing sheet is a configuration gap,
// not an error: the item keeps its previous numbers.
func (s *service) bindCost(ctx context.Context, sheets pricesheets.Repository, item *models.Item) error {
	sheet, err := sheets.FindByClientProduct(ctx, item.Device.ClientID, item.Device.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "item_id", item.ID.String()), "no price sheet for item, keeping previous cost")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load price sheet")
	}

	result := pricing.Redeem(sheet.OriginalCost(item.CostType), item.Discounts, item.CostType, pricing.ReferenceDatesForItem(*item))
	item.Cost = result.TotalCost
	item.Saving = result.PointOfSaleSaving
	s.metrics.IncRedemption(item.CostType.String())
	return nil
}

// refreshAggregate recomputes the purchase price bucket the item feeds, when
// the item is tied to a dated procedure.
func (s *service) refreshAggregate(ctx context.Context, tx *gorm.DB, item *models.Item) error {
	if item.RepCase == nil || item.RepCase.ProcedureDate == nil {
		return nil
	}
	if item.Device == nil || item.Device.Product == nil {
		return nil
	}

	key := tracker.BucketKey{
		CategoryID: item.Device.Product.CategoryID,
		ClientID:   item.Device.ClientID,
		Year:       item.RepCase.ProcedureDate.Year(),
		Level:      item.Device.Product.Level,
		CostType:   item.CostType,
	}
	if err := s.aggregates.Refresh(ctx, tx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh purchase price aggregate")
	}
	return nil
}
