package billing

import (
	"testing"

	"crediflow/internal/core"
)

func TestBuildDashboard(t *testing.T) {
	a := card("a", 5)
	a.LimitTotal = dec("5000")
	b := card("b", 20)
	b.LimitTotal = dec("15000")
	purchases := []core.Purchase{
		purchase("p1", "a", "45.90", d(2024, 5, 1), 1, core.Alimentacao),
		purchase("p2", "b", "200", d(2024, 5, 2), 1, core.Transporte),
		purchase("p3", "a", "1500", d(2024, 5, 3), 10, core.Outros),
		purchase("p4", "gone", "999", d(2024, 5, 3), 1, core.Outros),
	}

	got := BuildDashboard(purchases, []core.Card{a, b})

	if !got.TotalSpent.Equal(dec("1745.90")) {
		t.Errorf("total spent = %s", got.TotalSpent)
	}
	if !got.TotalLimit.Equal(dec("20000")) || !got.Available.Equal(dec("18254.10")) {
		t.Errorf("limit = %s, available = %s", got.TotalLimit, got.Available)
	}
	if got.PurchaseCount != 3 || got.DanglingIgnored != 1 {
		t.Errorf("count = %d, dangling = %d", got.PurchaseCount, got.DanglingIgnored)
	}
	if len(got.Cards) != 2 || !got.Cards[0].Spent.Equal(dec("1545.90")) || !got.Cards[1].Spent.Equal(dec("200")) {
		t.Fatalf("cards = %+v", got.Cards)
	}
	if !got.Cards[1].UsagePercent.Round(2).Equal(dec("1.33")) {
		t.Errorf("card b usage = %s", got.Cards[1].UsagePercent)
	}
	if len(got.ByCategory) != 3 || got.ByCategory[0].Category != core.Alimentacao {
		t.Errorf("categories = %+v", got.ByCategory)
	}
}

func TestBuildDashboardZeroLimit(t *testing.T) {
	c := card("a", 5)
	c.LimitTotal = dec("0")
	got := BuildDashboard([]core.Purchase{purchase("p", "a", "10", d(2024, 1, 1), 1, core.Lazer)}, []core.Card{c})
	if !got.UsagePercent.IsZero() || !got.Cards[0].UsagePercent.IsZero() {
		t.Errorf("usage with zero limit must be zero, got %s", got.UsagePercent)
	}
}

func TestBuildDashboardEmpty(t *testing.T) {
	got := BuildDashboard(nil, nil)
	if !got.TotalSpent.IsZero() || len(got.Cards) != 0 || len(got.ByCategory) != 0 {
		t.Errorf("got %+v", got)
	}
}
