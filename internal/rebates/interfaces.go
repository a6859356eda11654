package rebates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// Repository is the persistence surface for rebates, their scopes and tiers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateRebate(ctx context.Context, rebate *models.Rebate) error
	FindRebate(ctx context.Context, id uuid.UUID) (*models.Rebate, error)
	ListRebates(ctx context.Context, clientID uuid.UUID) ([]models.Rebate, error)

	// ResolveProductIDs expands scope rows to the concrete product IDs they
	// cover. Product scopes pass through; category and specialty scopes fan
	// out to every product underneath them.
	ResolveProductIDs(ctx context.Context, scopes []models.RebatableItem) ([]uuid.UUID, error)

	// UpdateStatusIf flips the rebate status only when the current status
	// matches from, returning whether a row changed. The conditional write
	// doubles as the state-machine guard under concurrent transitions.
	UpdateStatusIf(ctx context.Context, rebateID uuid.UUID, from, to enums.RebateStatus) (bool, error)
}
