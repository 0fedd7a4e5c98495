package billing

import (
	"github.com/shopspring/decimal"

	"crediflow/internal/core"
)

type CardUsage struct {
	Card      core.Card       `json:"card"`
	Spent     decimal.Decimal `json:"spent"`
	Available decimal.Decimal `json:"available"`
	// UsagePercent is Spent/LimitTotal*100, zero when the card has no limit.
	UsagePercent decimal.Decimal `json:"usagePercent"`
}

// Dashboard summarizes all purchases against card limits. Purchase amounts
// count in full, regardless of installments or invoice month.
type Dashboard struct {
	TotalSpent      decimal.Decimal       `json:"totalSpent"`
	TotalLimit      decimal.Decimal       `json:"totalLimit"`
	Available       decimal.Decimal       `json:"available"`
	UsagePercent    decimal.Decimal       `json:"usagePercent"`
	Cards           []CardUsage           `json:"cards"`
	ByCategory      []core.CategoryAmount `json:"byCategory"`
	PurchaseCount   int                   `json:"purchaseCount"`
	DanglingIgnored int                   `json:"danglingIgnored"`
}

var hundred = decimal.NewFromInt(100)

// BuildDashboard aggregates purchases per card and per category. Purchases
// pointing at a missing card are counted in DanglingIgnored and otherwise
// left out.
func BuildDashboard(purchases []core.Purchase, cards []core.Card) Dashboard {
	d := Dashboard{
		TotalSpent:   decimal.Zero,
		TotalLimit:   decimal.Zero,
		Available:    decimal.Zero,
		UsagePercent: decimal.Zero,
		Cards:        make([]CardUsage, 0, len(cards)),
		ByCategory:   []core.CategoryAmount{},
	}

	pos := make(map[string]int, len(cards))
	for _, c := range cards {
		if _, dup := pos[c.ID]; dup {
			continue
		}
		pos[c.ID] = len(d.Cards)
		d.Cards = append(d.Cards, CardUsage{Card: c, Spent: decimal.Zero})
		d.TotalLimit = d.TotalLimit.Add(c.LimitTotal)
	}

	catIndex := make(map[core.Category]int)
	for _, p := range purchases {
		i, ok := pos[p.CardID]
		if !ok {
			d.DanglingIgnored++
			continue
		}
		d.PurchaseCount++
		d.Cards[i].Spent = d.Cards[i].Spent.Add(p.Amount)
		d.TotalSpent = d.TotalSpent.Add(p.Amount)

		idx, seen := catIndex[p.Category]
		if !seen {
			idx = len(d.ByCategory)
			catIndex[p.Category] = idx
			d.ByCategory = append(d.ByCategory, core.CategoryAmount{Category: p.Category, Amount: decimal.Zero})
		}
		d.ByCategory[idx].Amount = d.ByCategory[idx].Amount.Add(p.Amount)
	}

	for i := range d.Cards {
		cu := &d.Cards[i]
		cu.Available = cu.Card.LimitTotal.Sub(cu.Spent)
		cu.UsagePercent = percent(cu.Spent, cu.Card.LimitTotal)
	}
	d.Available = d.TotalLimit.Sub(d.TotalSpent)
	d.UsagePercent = percent(d.TotalSpent, d.TotalLimit)
	return d
}

func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
