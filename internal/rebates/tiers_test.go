package rebates

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/helixmedical/devicecost-backend/pkg/db/models"
	"github.com/helixmedical/devicecost-backend/pkg/enums"
)

func itemsWithCosts(costs ...int64) []models.Item {
	out := make([]models.Item, 0, len(costs))
	for _, c := range costs {
		out = append(out, models.Item{Cost: decimal.NewFromInt(c)})
	}
	return out
}

func TestSpend(t *testing.T) {
	if !Spend(nil).IsZero() {
		t.Fatal("empty set should spend zero")
	}
	total := Spend(itemsWithCosts(100, 250, 50))
	if !total.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected 400, got %s", total)
	}
}

func TestUnitCounts(t *testing.T) {
	set := itemsWithCosts(10, 20, 30)
	set[0].IsUsed = true
	set[2].IsUsed = true

	if got := PurchasedUnits(set); got != 3 {
		t.Fatalf("expected 3 purchased units, got %d", got)
	}
	if got := UsedUnits(set); got != 2 {
		t.Fatalf("expected 2 used units, got %d", got)
	}
}

func TestMarketshareZeroClientSpend(t *testing.T) {
	share := Marketshare(itemsWithCosts(100), decimal.Zero)
	if !share.IsZero() {
		t.Fatalf("zero client spend must yield 0, got %s", share)
	}
}

func TestMarketshare(t *testing.T) {
	share := Marketshare(itemsWithCosts(100, 150), decimal.NewFromInt(1000))
	if !share.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected 25, got %s", share)
	}
}

func TestQualifiesBoundsInclusive(t *testing.T) {
	upper := decimal.NewFromInt(20)
	tier := models.Tier{
		TierType:   enums.TierTypeSpend,
		LowerBound: decimal.NewFromInt(10),
		UpperBound: &upper,
	}

	cases := []struct {
		name  string
		spend string
		want  bool
	}{
		{"below lower", "9.99", false},
		{"at lower", "10", true},
		{"inside", "15", true},
		{"at upper", "20", true},
		{"above upper", "20.01", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spend, err := decimal.NewFromString(tc.spend)
			if err != nil {
				t.Fatalf("bad fixture: %v", err)
			}
			set := []models.Item{{Cost: spend}}
			if got := Qualifies(tier, set, decimal.Zero); got != tc.want {
				t.Fatalf("spend %s: expected %v, got %v", tc.spend, tc.want, got)
			}
		})
	}
}

func TestQualifiesUnboundedAbove(t *testing.T) {
	tier := models.Tier{
		TierType:   enums.TierTypeSpend,
		LowerBound: decimal.NewFromInt(10),
	}
	if !Qualifies(tier, itemsWithCosts(1_000_000), decimal.Zero) {
		t.Fatal("nil upper bound should accept any value at or above the lower bound")
	}
	if Qualifies(tier, itemsWithCosts(9), decimal.Zero) {
		t.Fatal("values below the lower bound never qualify")
	}
}

func TestQualifiesMalformedBoundsNeverMatch(t *testing.T) {
	upper := decimal.NewFromInt(5)
	tier := models.Tier{
		TierType:   enums.TierTypeSpend,
		LowerBound: decimal.NewFromInt(10),
		UpperBound: &upper,
	}
	for _, spend := range []int64{1, 7, 10, 100} {
		if Qualifies(tier, itemsWithCosts(spend), decimal.Zero) {
			t.Fatalf("upper < lower should never qualify, matched at %d", spend)
		}
	}
}

func TestQualifiesUsedUnits(t *testing.T) {
	tier := models.Tier{
		TierType:   enums.TierTypeUsedUnits,
		LowerBound: decimal.NewFromInt(2),
	}
	set := itemsWithCosts(10, 10, 10)
	set[0].IsUsed = true
	if Qualifies(tier, set, decimal.Zero) {
		t.Fatal("one used unit should not satisfy a lower bound of two")
	}
	set[1].IsUsed = true
	if !Qualifies(tier, set, decimal.Zero) {
		t.Fatal("two used units should satisfy a lower bound of two")
	}
}
