package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

// ReferenceDates carries the dated events a discount's validity is checked
// against. Pre-order and post-order discounts validate against the purchase
// date; point-of-sale discounts validate against the procedure date.
type ReferenceDates struct {
	PurchasedDate *time.Time
	ProcedureDate *time.Time
}

// RedeemedDiscount reports one discount's contribution. Value holds the raw
// computed amount even when the discount is outside its validity window, so
// callers can display would-be savings.
type RedeemedDiscount struct {
	Discount models.Discount
	IsValid  bool
	Value    decimal.Decimal
}

// Result is the output of a redemption run.
type Result struct {
	OriginalCost      decimal.Decimal
	TotalCost         decimal.Decimal
	PointOfSaleSaving decimal.Decimal
	Discounts         []RedeemedDiscount
}

// Redeem computes the final cost of an item from its base cost and discount
// set. Discounts of the wrong cost type are dropped. The rest are walked in
// ascending Order (stable, so equal orders keep their input position) and
// grouped into waves: discounts sharing an Order value are computed against
// the same base, and the base only drops once the order number advances.
func Redeem(originalCost decimal.Decimal, discounts []models.Discount, costType enums.CostType, dates ReferenceDates) Result {
	matching := make([]models.Discount, 0, len(discounts))
	for _, d := range discounts {
		if d.CostType == costType {
			matching = append(matching, d)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Order < matching[j].Order
	})

	runningCost := originalCost
	pendingWaveValue := decimal.Zero
	totalDiscounted := decimal.Zero
	pointOfSaleSaving := decimal.Zero
	previousOrder := 0
	previousOrderSet := false

	redeemed := make([]RedeemedDiscount, 0, len(matching))
	for _, d := range matching {
		if previousOrderSet && previousOrder < d.Order {
			runningCost = runningCost.Sub(pendingWaveValue)
			pendingWaveValue = decimal.Zero
		}

		value := d.ValueAgainst(runningCost)

		ref := dates.PurchasedDate
		if d.ApplyPhase == enums.ApplyPhasePointOfSale {
			ref = dates.ProcedureDate
		}
		valid := d.ValidOn(ref)

		redeemed = append(redeemed, RedeemedDiscount{
			Discount: d,
			IsValid:  valid,
			Value:    value,
		})

		applied := decimal.Zero
		if valid {
			applied = value
		}

		totalDiscounted = totalDiscounted.Add(applied)
		if d.ApplyPhase == enums.ApplyPhasePointOfSale {
			pointOfSaleSaving = pointOfSaleSaving.Add(applied)
		}

		pendingWaveValue = pendingWaveValue.Add(applied)
		previousOrder = d.Order
		previousOrderSet = true
	}

	return Result{
		OriginalCost:      originalCost,
		TotalCost:         originalCost.Sub(totalDiscounted),
		PointOfSaleSaving: pointOfSaleSaving,
		Discounts:         redeemed,
	}
}

// ReferenceDatesForItem extracts the dated events from an item. The rep case
// must be preloaded for point-of-sale validity to resolve.
func ReferenceDatesForItem(item models.Item) ReferenceDates {
	return ReferenceDates{
		PurchasedDate: item.PurchasedDate,
		ProcedureDate: item.ProcedureDate(),
	}
}
