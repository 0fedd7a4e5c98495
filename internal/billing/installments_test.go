package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"crediflow/internal/core"
)

func d(y, m, day int) core.Date { return core.NewDate(y, m, day) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		in   core.Date
		k    int
		want core.Date
	}{
		{"zero months", d(2024, 1, 31), 0, d(2024, 1, 31)},
		{"plain", d(2024, 1, 10), 1, d(2024, 2, 10)},
		{"year rollover", d(2024, 12, 15), 1, d(2025, 1, 15)},
		{"jan 31 non-leap", d(2023, 1, 31), 1, d(2023, 3, 3)},
		{"jan 31 leap", d(2024, 1, 31), 1, d(2024, 3, 2)},
		{"31 into 30-day month", d(2024, 10, 31), 1, d(2024, 12, 1)},
		{"30 into february across year", d(2024, 11, 30), 3, d(2025, 3, 2)},
		{"dec 31 into february", d(2024, 12, 31), 2, d(2025, 3, 3)},
		{"two years", d(2024, 2, 29), 24, d(2026, 3, 1)},
		{"leap to leap", d(2024, 2, 29), 48, d(2028, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(tt.in, tt.k)
			if !got.Equal(tt.want.Time) {
				t.Fatalf("AddMonths(%s, %d) = %s, want %s", tt.in, tt.k, got, tt.want)
			}
		})
	}
}

func TestAddMonthsMatchesCalendarNormalization(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 3*366; day++ {
		base := start.AddDate(0, 0, day)
		in := d(base.Year(), int(base.Month()), base.Day())
		for k := 0; k <= 24; k++ {
			want := base.AddDate(0, k, 0)
			if got := AddMonths(in, k); !got.Equal(want) {
				t.Fatalf("AddMonths(%s, %d) = %s, want %s", in, k, got, want.Format(core.DateLayout))
			}
		}
	}
}

func TestExpandSingleShot(t *testing.T) {
	p := core.Purchase{ID: "p1", CardID: "c1", Amount: dec("45.90"), Date: d(2024, 5, 10), Installments: 1, Category: core.Alimentacao}
	occs, err := Expand(p)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(occs) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(occs))
	}
	o := occs[0]
	if o.Numbered || o.Label() != "" {
		t.Errorf("single-shot purchase should not be numbered, got %+v", o)
	}
	if !o.Amount.Equal(p.Amount) {
		t.Errorf("amount = %s, want %s", o.Amount, p.Amount)
	}
	if !o.Date.Equal(p.Date.Time) {
		t.Errorf("date = %s, want %s", o.Date, p.Date)
	}
}

func TestExpandInstallments(t *testing.T) {
	p := core.Purchase{ID: "p1", CardID: "c1", Amount: dec("1200"), Date: d(2024, 1, 10), Installments: 3, Category: core.Outros}
	occs, err := Expand(p)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	wantDates := []core.Date{d(2024, 1, 10), d(2024, 2, 10), d(2024, 3, 10)}
	if len(occs) != len(wantDates) {
		t.Fatalf("got %d occurrences, want %d", len(occs), len(wantDates))
	}
	for i, o := range occs {
		if !o.Date.Equal(wantDates[i].Time) {
			t.Errorf("occurrence %d date = %s, want %s", i, o.Date, wantDates[i])
		}
		if !o.Amount.Equal(dec("400")) {
			t.Errorf("occurrence %d amount = %s, want 400", i, o.Amount)
		}
		if o.Index != i+1 || o.Of != 3 || !o.Numbered {
			t.Errorf("occurrence %d numbering = %d/%d numbered=%v", i, o.Index, o.Of, o.Numbered)
		}
	}
	if occs[1].Label() != "2/3" {
		t.Errorf("label = %q, want 2/3", occs[1].Label())
	}
}

func TestExpandRejectsNonPositiveInstallments(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := Expand(core.Purchase{ID: "bad", Amount: dec("10"), Date: d(2024, 1, 1), Installments: n})
		if !errors.Is(err, core.ErrInvalidInstallments) {
			t.Errorf("installments=%d: err = %v, want ErrInvalidInstallments", n, err)
		}
	}
}

func TestExpandSharesSumToAmount(t *testing.T) {
	epsilon := dec("0.000000001")
	amounts := []string{"100", "1200", "0.01", "999.99", "1500", "-250", "12345.67"}
	for _, a := range amounts {
		for n := 2; n <= 36; n++ {
			p := core.Purchase{ID: "p", Amount: dec(a), Date: d(2024, 1, 31), Installments: n}
			occs, err := Expand(p)
			if err != nil {
				t.Fatalf("Expand(%s, %d): %v", a, n, err)
			}
			if len(occs) != n {
				t.Fatalf("Expand(%s, %d) returned %d occurrences", a, n, len(occs))
			}
			sum := decimal.Zero
			for _, o := range occs {
				sum = sum.Add(o.Amount)
			}
			if sum.Sub(p.Amount).Abs().GreaterThan(epsilon) {
				t.Errorf("amount %s over %d installments sums to %s", a, n, sum)
			}
		}
	}
}

func TestExpandDoesNotMutateInput(t *testing.T) {
	p := core.Purchase{ID: "p", Amount: dec("300"), Date: d(2024, 1, 31), Installments: 3}
	before := p
	if _, err := Expand(p); err != nil {
		t.Fatal(err)
	}
	if !p.Date.Equal(before.Date.Time) || !p.Amount.Equal(before.Amount) || p.Installments != before.Installments {
		t.Fatalf("purchase mutated: %+v", p)
	}
}
