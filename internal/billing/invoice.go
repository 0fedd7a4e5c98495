package billing

import (
	"sort"

	"github.com/shopspring/decimal"

	"crediflow/internal/core"
)

// AllCards selects every card in a query.
const AllCards = "all"

// CardFilter is AllCards or a single card id.
type CardFilter string

// Matches reports whether cardID passes the filter. An empty filter means
// all cards.
func (f CardFilter) Matches(cardID string) bool {
	return f == "" || f == AllCards || string(f) == cardID
}

// InvoiceSummary is one month of charges as billed.
type InvoiceSummary struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Filter CardFilter      `json:"filter"`
	Items  []Occurrence    `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

type indexedOccurrence struct {
	occ   Occurrence
	order int
}

// BuildInvoice collects every occurrence whose resolved invoice month is
// (year, month). Purchases whose card is missing or filtered out are
// skipped. Items are sorted by nominal date; ties keep the purchases' input
// order, then installment index. An error from any purchase aborts the
// whole build.
func BuildInvoice(purchases []core.Purchase, cards []core.Card, year, month int, filter CardFilter) (InvoiceSummary, error) {
	byID := indexCards(cards)
	target := core.YearMonth{Year: year, Month: month}

	var kept []indexedOccurrence
	for i, p := range purchases {
		card, ok := byID[p.CardID]
		if !ok || !filter.Matches(p.CardID) {
			continue
		}
		occs, err := Expand(p)
		if err != nil {
			return InvoiceSummary{}, err
		}
		for _, o := range occs {
			ym, err := ResolveInvoiceMonth(o.Date, card.ClosingDay)
			if err != nil {
				return InvoiceSummary{}, err
			}
			if ym == target {
				kept = append(kept, indexedOccurrence{occ: o, order: i})
			}
		}
	}

	sort.SliceStable(kept, func(a, b int) bool {
		x, y := kept[a], kept[b]
		if !x.occ.Date.Equal(y.occ.Date.Time) {
			return x.occ.Date.Before(y.occ.Date.Time)
		}
		if x.order != y.order {
			return x.order < y.order
		}
		return x.occ.Index < y.occ.Index
	})

	summary := InvoiceSummary{
		Year:   year,
		Month:  month,
		Filter: normalizeFilter(filter),
		Items:  make([]Occurrence, 0, len(kept)),
		Total:  decimal.Zero,
	}
	for _, k := range kept {
		summary.Items = append(summary.Items, k.occ)
		summary.Total = summary.Total.Add(k.occ.Amount)
	}
	return summary, nil
}

func indexCards(cards []core.Card) map[string]core.Card {
	byID := make(map[string]core.Card, len(cards))
	for _, c := range cards {
		if _, dup := byID[c.ID]; !dup {
			byID[c.ID] = c
		}
	}
	return byID
}

func normalizeFilter(f CardFilter) CardFilter {
	if f == "" {
		return AllCards
	}
	return f
}
