package http

import (
	"github.com/shopspring/decimal"

	"crediflow/internal/billing"
	"crediflow/internal/core"
	"crediflow/internal/services"
)

// Amounts travel as exact decimal strings. Each one has a *Display twin
// rounded to cents for people, e.g. "R$ 1.234,56".

type cardResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Bank         string          `json:"bank"`
	LimitTotal   decimal.Decimal `json:"limitTotal"`
	LimitDisplay string          `json:"limitDisplay"`
	ClosingDay   int             `json:"closingDay"`
	DueDay       int             `json:"dueDay"`
	Brand        core.Brand      `json:"brand"`
	Color        string          `json:"color"`
}

func newCardResponse(c core.Card) cardResponse {
	return cardResponse{
		ID:           c.ID,
		Name:         c.Name,
		Bank:         c.Bank,
		LimitTotal:   c.LimitTotal,
		LimitDisplay: core.FormatBRL(c.LimitTotal),
		ClosingDay:   c.ClosingDay,
		DueDay:       c.DueDay,
		Brand:        c.Brand,
		Color:        c.Color,
	}
}

type purchaseResponse struct {
	ID                 string          `json:"id"`
	CardID             string          `json:"cardId"`
	Amount             decimal.Decimal `json:"amount"`
	AmountDisplay      string          `json:"amountDisplay"`
	Description        string          `json:"description"`
	Date               core.Date       `json:"date"`
	Category           core.Category   `json:"category"`
	Installments       int             `json:"installments"`
	InstallmentAmount  decimal.Decimal `json:"installmentAmount"`
	InstallmentDisplay string          `json:"installmentDisplay"`
	Recurring          bool            `json:"recurring"`
}

func newPurchaseResponse(p core.Purchase) purchaseResponse {
	share := p.Amount
	if p.Installments > 0 {
		share = billing.Share(p.Amount, p.Installments)
	}
	return purchaseResponse{
		ID:                 p.ID,
		CardID:             p.CardID,
		Amount:             p.Amount,
		AmountDisplay:      core.FormatBRL(p.Amount),
		Description:        p.Description,
		Date:               p.Date,
		Category:           p.Category,
		Installments:       p.Installments,
		InstallmentAmount:  share,
		InstallmentDisplay: core.FormatBRL(share),
		Recurring:          p.Recurring,
	}
}

type occurrenceResponse struct {
	PurchaseID    string          `json:"purchaseId"`
	CardID        string          `json:"cardId"`
	Description   string          `json:"description"`
	Category      core.Category   `json:"category"`
	Date          core.Date       `json:"date"`
	Index         int             `json:"index"`
	Of            int             `json:"of"`
	Installment   string          `json:"installment,omitempty"`
	Recurring     bool            `json:"recurring"`
	Amount        decimal.Decimal `json:"amount"`
	AmountDisplay string          `json:"amountDisplay"`
}

func newOccurrences(items []billing.Occurrence) []occurrenceResponse {
	out := make([]occurrenceResponse, 0, len(items))
	for _, o := range items {
		out = append(out, occurrenceResponse{
			PurchaseID:    o.Purchase.ID,
			CardID:        o.Purchase.CardID,
			Description:   o.Purchase.Description,
			Category:      o.Purchase.Category,
			Date:          o.Date,
			Index:         o.Index,
			Of:            o.Of,
			Installment:   o.Label(),
			Recurring:     o.Purchase.Recurring,
			Amount:        o.Amount,
			AmountDisplay: core.FormatBRL(o.Amount),
		})
	}
	return out
}

type invoiceResponse struct {
	Year         int                   `json:"year"`
	Month        int                   `json:"month"`
	Card         billing.CardFilter    `json:"card"`
	Status       billing.InvoiceStatus `json:"status"`
	Count        int                   `json:"count"`
	Total        decimal.Decimal       `json:"total"`
	TotalDisplay string                `json:"totalDisplay"`
	Items        []occurrenceResponse  `json:"items"`
}

func newInvoiceResponse(inv services.Invoice) invoiceResponse {
	return invoiceResponse{
		Year:         inv.Year,
		Month:        inv.Month,
		Card:         inv.Filter,
		Status:       inv.Status,
		Count:        len(inv.Items),
		Total:        inv.Total,
		TotalDisplay: core.FormatBRL(inv.Total),
		Items:        newOccurrences(inv.Items),
	}
}

type amountResponse struct {
	Amount  decimal.Decimal `json:"amount"`
	Display string          `json:"display"`
}

func newAmount(d decimal.Decimal) amountResponse {
	return amountResponse{Amount: d, Display: core.FormatBRL(d)}
}

type categoryResponse struct {
	Category core.Category `json:"category"`
	amountResponse
}

func newCategories(totals []core.CategoryAmount) []categoryResponse {
	out := make([]categoryResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, categoryResponse{Category: t.Category, amountResponse: newAmount(t.Amount)})
	}
	return out
}

type monthResponse struct {
	Month int `json:"month"`
	amountResponse
}

type reportResponse struct {
	Year           int                  `json:"year"`
	Card           billing.CardFilter   `json:"card"`
	Monthly        []monthResponse      `json:"monthly"`
	ByCategory     []categoryResponse   `json:"byCategory"`
	TopCategory    core.Category        `json:"topCategory,omitempty"`
	Total          amountResponse       `json:"total"`
	MonthlyAverage amountResponse       `json:"monthlyAverage"`
	LargestShare   amountResponse       `json:"largestShare"`
	Items          []occurrenceResponse `json:"items"`
}

func newReportResponse(r billing.YearlyReport) reportResponse {
	monthly := make([]monthResponse, 0, len(r.Monthly))
	for i, total := range r.Monthly {
		monthly = append(monthly, monthResponse{Month: i + 1, amountResponse: newAmount(total)})
	}
	return reportResponse{
		Year:           r.Year,
		Card:           r.Filter,
		Monthly:        monthly,
		ByCategory:     newCategories(r.ByCategory),
		TopCategory:    r.TopCategory,
		Total:          newAmount(r.Total),
		MonthlyAverage: newAmount(r.MonthlyAverage),
		LargestShare:   newAmount(r.LargestShare),
		Items:          newOccurrences(r.Items),
	}
}

type cardUsageResponse struct {
	Card         cardResponse    `json:"card"`
	Spent        amountResponse  `json:"spent"`
	Available    amountResponse  `json:"available"`
	UsagePercent decimal.Decimal `json:"usagePercent"`
}

type dashboardResponse struct {
	TotalSpent      amountResponse      `json:"totalSpent"`
	TotalLimit      amountResponse      `json:"totalLimit"`
	Available       amountResponse      `json:"available"`
	UsagePercent    decimal.Decimal     `json:"usagePercent"`
	Cards           []cardUsageResponse `json:"cards"`
	ByCategory      []categoryResponse  `json:"byCategory"`
	PurchaseCount   int                 `json:"purchaseCount"`
	DanglingIgnored int                 `json:"danglingIgnored"`
}

func newDashboardResponse(d billing.Dashboard) dashboardResponse {
	cards := make([]cardUsageResponse, 0, len(d.Cards))
	for _, c := range d.Cards {
		cards = append(cards, cardUsageResponse{
			Card:         newCardResponse(c.Card),
			Spent:        newAmount(c.Spent),
			Available:    newAmount(c.Available),
			UsagePercent: c.UsagePercent.Round(1),
		})
	}
	return dashboardResponse{
		TotalSpent:      newAmount(d.TotalSpent),
		TotalLimit:      newAmount(d.TotalLimit),
		Available:       newAmount(d.Available),
		UsagePercent:    d.UsagePercent.Round(1),
		Cards:           cards,
		ByCategory:      newCategories(d.ByCategory),
		PurchaseCount:   d.PurchaseCount,
		DanglingIgnored: d.DanglingIgnored,
	}
}
