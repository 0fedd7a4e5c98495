package billing

import (
	"testing"

	"github.com/shopspring/decimal"

	"crediflow/internal/core"
)

func TestBuildYearlyReportSingleMonth(t *testing.T) {
	cards := []core.Card{card("c1", 5)}
	purchases := []core.Purchase{purchase("p1", "c1", "300", d(2024, 6, 15), 1, core.Transporte)}

	r, err := BuildYearlyReport(purchases, cards, 2024, AllCards)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range r.Monthly {
		want := decimal.Zero
		if i == 5 {
			want = dec("300")
		}
		if !v.Equal(want) {
			t.Errorf("month %d = %s, want %s", i+1, v, want)
		}
	}
	if len(r.ByCategory) != 1 || r.ByCategory[0].Category != core.Transporte || !r.ByCategory[0].Amount.Equal(dec("300")) {
		t.Errorf("by category = %+v", r.ByCategory)
	}
	if r.TopCategory != core.Transporte {
		t.Errorf("top category = %q", r.TopCategory)
	}
	if !r.Total.Equal(dec("300")) || !r.MonthlyAverage.Equal(dec("25")) {
		t.Errorf("total = %s, average = %s", r.Total, r.MonthlyAverage)
	}
}

func TestBuildYearlyReportUsesNominalMonth(t *testing.T) {
	// Closing day 5 bills the 10th in the following month; the report must
	// still bucket by the day the money was spent.
	cards := []core.Card{card("c1", 5)}
	purchases := []core.Purchase{purchase("p1", "c1", "1200", d(2024, 11, 10), 3, core.Outros)}

	r, err := BuildYearlyReport(purchases, cards, 2024, AllCards)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Monthly[10].Equal(dec("400")) || !r.Monthly[11].Equal(dec("400")) {
		t.Errorf("nov = %s, dec = %s", r.Monthly[10], r.Monthly[11])
	}
	if !r.Total.Equal(dec("800")) {
		t.Errorf("installment in next year must be excluded, total = %s", r.Total)
	}
	if len(r.Items) != 2 {
		t.Errorf("items = %d, want 2", len(r.Items))
	}

	next, err := BuildYearlyReport(purchases, cards, 2025, AllCards)
	if err != nil {
		t.Fatal(err)
	}
	if !next.Monthly[0].Equal(dec("400")) || !next.Total.Equal(dec("400")) {
		t.Errorf("2025: jan = %s, total = %s", next.Monthly[0], next.Total)
	}
}

func TestBuildYearlyReportCategories(t *testing.T) {
	cards := []core.Card{card("a", 10), card("b", 20)}
	purchases := []core.Purchase{
		purchase("p1", "a", "100", d(2024, 1, 3), 1, core.Lazer),
		purchase("p2", "b", "60", d(2024, 2, 3), 2, core.Saude),
		purchase("p3", "a", "40", d(2024, 3, 3), 1, core.Saude),
		purchase("p4", "b", "20", d(2024, 3, 4), 1, core.Moradia),
	}
	r, err := BuildYearlyReport(purchases, cards, 2024, AllCards)
	if err != nil {
		t.Fatal(err)
	}
	want := []core.CategoryAmount{
		{Category: core.Lazer, Amount: dec("100")},
		{Category: core.Saude, Amount: dec("100")},
		{Category: core.Moradia, Amount: dec("20")},
	}
	if len(r.ByCategory) != len(want) {
		t.Fatalf("by category = %+v", r.ByCategory)
	}
	for i := range want {
		if r.ByCategory[i].Category != want[i].Category || !r.ByCategory[i].Amount.Equal(want[i].Amount) {
			t.Errorf("category %d = %+v, want %+v", i, r.ByCategory[i], want[i])
		}
	}
	if r.TopCategory != core.Lazer {
		t.Errorf("tie must go to first encountered, got %q", r.TopCategory)
	}
	if !r.LargestShare.Equal(dec("100")) {
		t.Errorf("largest share = %s", r.LargestShare)
	}

	onlyB, err := BuildYearlyReport(purchases, cards, 2024, "b")
	if err != nil {
		t.Fatal(err)
	}
	if !onlyB.Total.Equal(dec("80")) || onlyB.TopCategory != core.Saude {
		t.Errorf("filtered total = %s, top = %q", onlyB.Total, onlyB.TopCategory)
	}
}

func TestBuildYearlyReportSkipsDangling(t *testing.T) {
	cards := []core.Card{card("c1", 10)}
	purchases := []core.Purchase{purchase("orphan", "missing", "500", d(2024, 4, 1), 1, core.Lazer)}
	r, err := BuildYearlyReport(purchases, cards, 2024, AllCards)
	if err != nil {
		t.Fatalf("dangling reference must not error: %v", err)
	}
	if !r.Total.IsZero() || len(r.ByCategory) != 0 || r.TopCategory != "" {
		t.Fatalf("expected empty report, got %+v", r)
	}
}

func TestBuildYearlyReportNegativeAmounts(t *testing.T) {
	cards := []core.Card{card("c1", 10)}
	purchases := []core.Purchase{
		purchase("buy", "c1", "200", d(2024, 4, 1), 1, core.Lazer),
		purchase("refund", "c1", "-50", d(2024, 4, 2), 1, core.Lazer),
	}
	r, err := BuildYearlyReport(purchases, cards, 2024, AllCards)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Monthly[3].Equal(dec("150")) {
		t.Errorf("april = %s, want 150", r.Monthly[3])
	}
}
