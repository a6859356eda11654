package tracker

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/pkg/logger"
)

// Updater refreshes purchase price aggregates when items in a bucket are used
// or change cost.
type Updater struct {
	repo Repository
	logg *logger.Logger
}

// NewUpdater builds an aggregate updater with the required dependencies.
func NewUpdater(repo Repository, logg *logger.Logger) (*Updater, error) {
	if repo == nil {
		return nil, fmt.Errorf("tracker repository required")
	}
	return &Updater{repo: repo, logg: logg}, nil
}

// Refresh recomputes the avg/min/max of one bucket from its current items.
func (u *Updater) Refresh(ctx context.Context, tx *gorm.DB, key BucketKey) error {
	repo := u.repo.WithTx(tx)

	bucket, err := repo.GetOrCreateBucket(ctx, key)
	if err != nil {
		return fmt.Errorf("get purchase price bucket: %w", err)
	}

	agg, err := repo.AggregateUsedCosts(ctx, key)
	if err != nil {
		return fmt.Errorf("aggregate used costs: %w", err)
	}

	bucket.Avg = decimal.Zero
	if agg.Avg != nil {
		bucket.Avg = *agg.Avg
	}
	bucket.Min = agg.Min
	bucket.Max = decimal.Zero
	if agg.Max != nil {
		bucket.Max = *agg.Max
	}

	if err := repo.SaveBucket(ctx, bucket); err != nil {
		return fmt.Errorf("save purchase price bucket: %w", err)
	}

	if u.logg != nil {
		u.logg.Info(u.logg.WithFields(ctx, map[string]any{
			"category_id": key.CategoryID,
			"client_id":   key.ClientID,
			"year":        key.Year,
			"cost_type":   key.CostType,
		}), "purchase price bucket refreshed")
	}
	return nil
}

// RefreshMany refreshes a set of buckets, reporting every failure.
func (u *Updater) RefreshMany(ctx context.Context, tx *gorm.DB, keys []BucketKey) error {
	seen := make(map[BucketKey]struct{}, len(keys))
	var errs error
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		errs = multierr.Append(errs, u.Refresh(ctx, tx, key))
	}
	return errs
}
