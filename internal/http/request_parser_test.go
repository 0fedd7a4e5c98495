package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"crediflow/internal/billing"
	"crediflow/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	today := core.YearMonth{Year: 2024, Month: 3}

	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
		wantErr   error
	}{
		{
			name:      "both values provided",
			query:     url.Values{"year": {"2023"}, "month": {"12"}},
			wantYear:  2023,
			wantMonth: 12,
		},
		{
			name:      "only year",
			query:     url.Values{"year": {"2022"}},
			wantYear:  2022,
			wantMonth: 3,
		},
		{
			name:      "only month",
			query:     url.Values{"month": {" 5 "}},
			wantYear:  2024,
			wantMonth: 5,
		},
		{
			name:      "empty query uses today",
			query:     url.Values{},
			wantYear:  2024,
			wantMonth: 3,
		},
		{
			name:    "month out of range",
			query:   url.Values{"month": {"0"}},
			wantErr: core.ErrInvalidMonth,
		},
		{
			name:    "non numeric month",
			query:   url.Values{"month": {"abc"}},
			wantErr: errInvalidInput,
		},
		{
			name:    "non numeric year",
			query:   url.Values{"year": {"20x4"}},
			wantErr: errInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParams(tt.query, today)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("got %d-%d, want %d-%d", got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParseYearParam(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 2024, false},
		{"1999", 1999, false},
		{"0", 0, true},
		{"10000", 0, true},
		{"next", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseYearParam(url.Values{"year": {tt.raw}}, 2024)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("year = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseCardFilter(t *testing.T) {
	if got := ParseCardFilter(url.Values{}); got != billing.AllCards {
		t.Errorf("empty filter = %q, want %q", got, billing.AllCards)
	}
	if got := ParseCardFilter(url.Values{"card": {" c1 "}}); got != "c1" {
		t.Errorf("filter = %q, want c1", got)
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5, "installments": 3, "recurring": true}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}
	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
	if n, err := parser.Int("installments", 1); err != nil || n != 3 {
		t.Errorf("Int('installments') = %d, %v", n, err)
	}
	if b, err := parser.Bool("recurring"); err != nil || !b {
		t.Errorf("Bool('recurring') = %v, %v", b, err)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&recurring=on"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
	if b, err := parser.Bool("recurring"); err != nil || !b {
		t.Errorf("Bool('recurring') = %v, %v", b, err)
	}
	if n, err := parser.Int("missing", 7); err != nil || n != 7 {
		t.Errorf("Int('missing') = %d, %v", n, err)
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"id":`},
		{"oversized body", "a=" + strings.Repeat("x", maxBodyBytes)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			err := NewRequestBodyParser(req).Parse()
			if !errors.Is(err, errInvalidInput) {
				t.Errorf("Parse() error = %v, want errInvalidInput", err)
			}
		})
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestPurchaseFromRequest(t *testing.T) {
	body := "cardId=c1&description=+Mercado+&amount=1234,56&date=2024-03-05&category=Alimenta%C3%A7%C3%A3o"
	req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(body))
	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	p, err := purchaseFromRequest(parser)
	if err != nil {
		t.Fatalf("purchaseFromRequest() error = %v", err)
	}
	if p.Description != "Mercado" {
		t.Errorf("Description = %q", p.Description)
	}
	if !p.Amount.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("Amount = %s", p.Amount)
	}
	if p.Installments != 1 {
		t.Errorf("Installments = %d, want 1", p.Installments)
	}
	if p.Category != core.Alimentacao {
		t.Errorf("Category = %q", p.Category)
	}
	if p.Date.String() != "2024-03-05" {
		t.Errorf("Date = %s", p.Date)
	}
}

func TestCardFromRequest_DefaultsLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/cards", strings.NewReader(`{"name":"X","closingDay":5,"dueDay":12}`))
	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	c, err := cardFromRequest(parser)
	if err != nil {
		t.Fatalf("cardFromRequest() error = %v", err)
	}
	if !c.LimitTotal.IsZero() {
		t.Errorf("LimitTotal = %s, want 0", c.LimitTotal)
	}
	if c.ClosingDay != 5 || c.DueDay != 12 {
		t.Errorf("days = %d/%d", c.ClosingDay, c.DueDay)
	}
}
