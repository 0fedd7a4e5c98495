package billing

import (
	"github.com/shopspring/decimal"

	"crediflow/internal/core"
)

// YearlyReport aggregates a year of spending by the month the money was
// spent, which is not the month it was billed.
type YearlyReport struct {
	Year           int                   `json:"year"`
	Filter         CardFilter            `json:"filter"`
	Monthly        [12]decimal.Decimal   `json:"monthly"` // Jan..Dec
	ByCategory     []core.CategoryAmount `json:"byCategory"`
	TopCategory    core.Category         `json:"topCategory"`
	Total          decimal.Decimal       `json:"total"`
	MonthlyAverage decimal.Decimal       `json:"monthlyAverage"`
	LargestShare   decimal.Decimal       `json:"largestShare"`
	Items          []Occurrence          `json:"items"`
}

// BuildYearlyReport buckets every occurrence whose nominal date falls in
// year by its own month. Card and filter handling match BuildInvoice, but
// closing days play no part.
func BuildYearlyReport(purchases []core.Purchase, cards []core.Card, year int, filter CardFilter) (YearlyReport, error) {
	byID := indexCards(cards)
	report := YearlyReport{
		Year:           year,
		Filter:         normalizeFilter(filter),
		ByCategory:     []core.CategoryAmount{},
		Items:          []Occurrence{},
		Total:          decimal.Zero,
		MonthlyAverage: decimal.Zero,
		LargestShare:   decimal.Zero,
	}
	for i := range report.Monthly {
		report.Monthly[i] = decimal.Zero
	}

	catIndex := make(map[core.Category]int)
	for _, p := range purchases {
		if _, ok := byID[p.CardID]; !ok || !filter.Matches(p.CardID) {
			continue
		}
		occs, err := Expand(p)
		if err != nil {
			return YearlyReport{}, err
		}
		for _, o := range occs {
			if o.Date.Year() != year {
				continue
			}
			m := o.Date.Month() - 1
			report.Monthly[m] = report.Monthly[m].Add(o.Amount)
			report.Total = report.Total.Add(o.Amount)

			idx, seen := catIndex[p.Category]
			if !seen {
				idx = len(report.ByCategory)
				catIndex[p.Category] = idx
				report.ByCategory = append(report.ByCategory, core.CategoryAmount{Category: p.Category, Amount: decimal.Zero})
			}
			report.ByCategory[idx].Amount = report.ByCategory[idx].Amount.Add(o.Amount)

			if len(report.Items) == 0 || o.Amount.GreaterThan(report.LargestShare) {
				report.LargestShare = o.Amount
			}
			report.Items = append(report.Items, o)
		}
	}

	report.TopCategory = topCategory(report.ByCategory)
	report.MonthlyAverage = report.Total.Div(decimal.NewFromInt(12))
	return report, nil
}

// topCategory returns the category with the largest total; ties go to the
// one encountered first.
func topCategory(totals []core.CategoryAmount) core.Category {
	var top core.Category
	var best decimal.Decimal
	for i, ca := range totals {
		if i == 0 || ca.Amount.GreaterThan(best) {
			top, best = ca.Category, ca.Amount
		}
	}
	return top
}
