package billing

import (
	"fmt"

	"crediflow/internal/core"
)

// EffectiveClosingDay clamps a closing day to the length of the given month,
// so a card closing on the 31st closes on the 28th/29th in February and on
// the 30th in April.
func EffectiveClosingDay(closingDay, year, month int) int {
	return min(closingDay, core.DaysIn(year, month))
}

// ResolveInvoiceMonth returns the invoice a charge on date belongs to.
// Charges after the (clamped) closing day roll to the next month's invoice.
func ResolveInvoiceMonth(date core.Date, closingDay int) (core.YearMonth, error) {
	if closingDay < 1 || closingDay > 31 {
		return core.YearMonth{}, fmt.Errorf("resolve invoice month for closing day %d: %w", closingDay, core.ErrInvalidClosingDay)
	}
	ym := core.Of(date)
	if date.Day() > EffectiveClosingDay(closingDay, ym.Year, ym.Month) {
		return ym.Next(), nil
	}
	return ym, nil
}
