// Package billing allocates purchase installments to card invoices and
// aggregates them into invoices, yearly reports and dashboards.
//
// Everything in this package is a pure function of its inputs. Callers load
// cards and purchases from a store and pass the slices in; nothing here
// mutates them or keeps state between calls.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"crediflow/internal/core"
)

// Occurrence is one dated slice of a purchase.
type Occurrence struct {
	Purchase core.Purchase   `json:"purchase"`
	Index    int             `json:"index"` // 1-based
	Of       int             `json:"of"`
	Date     core.Date       `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	// Numbered is false for single-shot purchases, which carry no
	// installment label.
	Numbered bool `json:"numbered"`
}

// Label renders "3/10" for installments and "" for single-shot purchases.
func (o Occurrence) Label() string {
	if !o.Numbered {
		return ""
	}
	return fmt.Sprintf("%d/%d", o.Index, o.Of)
}

// Expand splits a purchase into its installment occurrences. Occurrence k
// (0-based) is dated AddMonths(p.Date, k) and carries amount/installments
// with no rounding.
func Expand(p core.Purchase) ([]Occurrence, error) {
	n := p.Installments
	if n < 1 {
		return nil, fmt.Errorf("expand purchase %q: %w", p.ID, core.ErrInvalidInstallments)
	}
	share := Share(p.Amount, n)
	out := make([]Occurrence, n)
	for k := 0; k < n; k++ {
		out[k] = Occurrence{
			Purchase: p,
			Index:    k + 1,
			Of:       n,
			Date:     AddMonths(p.Date, k),
			Amount:   share,
			Numbered: n > 1,
		}
	}
	return out, nil
}

// Share divides amount into n equal parts.
func Share(amount decimal.Decimal, n int) decimal.Decimal {
	if n == 1 {
		return amount
	}
	return amount.Div(decimal.NewFromInt(int64(n)))
}

// AddMonths moves d forward by k whole months.
//
// When d's day does not exist in the target month, the surplus days spill
// into the following month: a target month of length L turns day D into
// day D-L of the month after it. Jan 31 + 1 month is therefore Mar 3
// (Mar 2 in leap years) and Oct 31 + 1 month is Dec 1.
func AddMonths(d core.Date, k int) core.Date {
	total := d.Month() - 1 + k
	year := d.Year() + floorDiv(total, 12)
	month := total - floorDiv(total, 12)*12 + 1

	day := d.Day()
	if last := core.DaysIn(year, month); day > last {
		day -= last
		next := core.YearMonth{Year: year, Month: month}.Next()
		return core.NewDate(next.Year, next.Month, day)
	}
	return core.NewDate(year, month, day)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
