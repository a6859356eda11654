package rebates

import (
	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// Spend sums cost across the item set.
func Spend(items []models.Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Cost)
	}
	return total
}

// PurchasedUnits counts the items in the set.
func PurchasedUnits(items []models.Item) int {
	return len(items)
}

// UsedUnits counts the items marked used.
func UsedUnits(items []models.Item) int {
	used := 0
	for _, item := range items {
		if item.IsUsed {
			used++
		}
	}
	return used
}

// Marketshare is the set's spend as a percentage of the client's total spend
// in the rebate window. A zero or unknown total yields 0, never a division
// error.
func Marketshare(items []models.Item, clientTotalSpend decimal.Decimal) decimal.Decimal {
	if clientTotalSpend.IsZero() {
		return decimal.Zero
	}
	return Spend(items).Mul(hundred).Div(clientTotalSpend)
}

// Qualifies evaluates the tier's metric against the eligible item set. Both
// bounds are inclusive; a nil upper bound is unbounded above.
func Qualifies(tier models.Tier, items []models.Item, clientTotalSpend decimal.Decimal) bool {
	var metric decimal.Decimal
	switch tier.TierType {
	case enums.TierTypeSpend:
		metric = Spend(items)
	case enums.TierTypeMarketshare:
		metric = Marketshare(items, clientTotalSpend)
	case enums.TierTypePurchasedUnits:
		metric = decimal.NewFromInt(int64(PurchasedUnits(items)))
	case enums.TierTypeUsedUnits:
		metric = decimal.NewFromInt(int64(UsedUnits(items)))
	default:
		return false
	}

	if metric.LessThan(tier.LowerBound) {
		return false
	}
	if tier.UpperBound != nil && metric.GreaterThan(*tier.UpperBound) {
		return false
	}
	return true
}
