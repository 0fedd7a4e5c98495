package billing

import (
	"time"

	"crediflow/internal/core"
)

type InvoiceStatus string

const (
	StatusPaid     InvoiceStatus = "paid"
	StatusOpen     InvoiceStatus = "open"
	StatusForecast InvoiceStatus = "forecast"
)

// StatusOf classifies an invoice month relative to today: months that ended
// before today are paid, months starting after today are a forecast and the
// current month is open.
func StatusOf(ym core.YearMonth, today time.Time) InvoiceStatus {
	now := core.YearMonth{Year: today.Year(), Month: int(today.Month())}
	switch {
	case before(ym, now):
		return StatusPaid
	case before(now, ym):
		return StatusForecast
	default:
		return StatusOpen
	}
}

func before(a, b core.YearMonth) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}
