package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"crediflow/internal/advisor"
	"crediflow/internal/core"
	applog "crediflow/internal/log"
	"crediflow/internal/services"
	"crediflow/internal/storage"
	"crediflow/internal/storage/memory"
)

func newTestServer(t *testing.T, rateLimit int) *Server {
	t.Helper()

	seed := storage.Seed{
		Cards: []core.Card{
			{ID: "c1", Name: "Nubank", Bank: "Nubank", LimitTotal: decimal.NewFromInt(1000), ClosingDay: 10, DueDay: 17, Brand: core.Mastercard, Color: "#820ad1"},
		},
		Purchases: []core.Purchase{
			{ID: "p1", CardID: "c1", Amount: decimal.NewFromInt(300), Description: "Notebook", Date: core.NewDate(2024, 3, 5), Category: core.Educacao, Installments: 3},
			{ID: "p2", CardID: "c1", Amount: decimal.RequireFromString("45.90"), Description: "iFood", Date: core.NewDate(2024, 3, 8), Category: core.Alimentacao, Installments: 1},
		},
	}

	n := 0
	svc := services.New(memory.NewWithSeed(seed), services.Options{
		NewID: func() string { n++; return fmt.Sprintf("id-%d", n) },
		Now:   func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) },
	})

	logger := applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard})
	srv := NewServer(Config{Addr: ":0", RateLimitPerMinute: rateLimit, Logger: logger}, svc, nil)
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, 60)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("%s X-Content-Type-Options = %q", path, got)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s missing X-Request-ID", path)
		}
	}

	body := decode(t, do(t, srv, http.MethodGet, "/readyz", ""))
	if body["status"] != "ready" {
		t.Errorf("readyz status = %v", body["status"])
	}
}

func TestCardLifecycle(t *testing.T) {
	srv := newTestServer(t, 60)

	rr := do(t, srv, http.MethodPost, "/api/cards",
		`{"name":"Inter","bank":"Inter","limitTotal":"2500,50","closingDay":28,"dueDay":5,"brand":"Visa"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode(t, rr)
	if created["id"] != "id-1" {
		t.Errorf("id = %v", created["id"])
	}
	if created["limitDisplay"] != "R$ 2.500,50" {
		t.Errorf("limitDisplay = %v", created["limitDisplay"])
	}
	if loc := rr.Header().Get("Location"); loc != "/api/cards/id-1" {
		t.Errorf("Location = %q", loc)
	}

	rr = do(t, srv, http.MethodPut, "/api/cards/id-1",
		"name=Inter+Black&bank=Inter&limitTotal=3000&closingDay=31&dueDay=8&brand=Mastercard")
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := decode(t, rr)["name"]; got != "Inter Black" {
		t.Errorf("updated name = %v", got)
	}

	var cards []map[string]any
	rr = do(t, srv, http.MethodGet, "/api/cards", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &cards); err != nil {
		t.Fatalf("decode cards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(cards))
	}

	rr = do(t, srv, http.MethodDelete, "/api/cards/c1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if got := decode(t, rr)["purchasesRemoved"]; got != float64(2) {
		t.Errorf("purchasesRemoved = %v, want 2", got)
	}

	if rr := do(t, srv, http.MethodGet, "/api/cards/c1", ""); rr.Code != http.StatusNotFound {
		t.Errorf("get deleted card status=%d, want 404", rr.Code)
	}
}

func TestCardErrors(t *testing.T) {
	srv := newTestServer(t, 60)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/api/cards", `{"name":`, http.StatusBadRequest},
		{"closing day out of range", http.MethodPost, "/api/cards", `{"name":"X","closingDay":32,"dueDay":1}`, http.StatusUnprocessableEntity},
		{"bad brand", http.MethodPost, "/api/cards", `{"name":"X","closingDay":1,"dueDay":1,"brand":"Diners"}`, http.StatusUnprocessableEntity},
		{"non numeric day", http.MethodPost, "/api/cards", `{"name":"X","closingDay":"ten","dueDay":1}`, http.StatusBadRequest},
		{"update missing card", http.MethodPut, "/api/cards/nope", `{"name":"X","closingDay":1,"dueDay":1}`, http.StatusNotFound},
		{"delete missing card", http.MethodDelete, "/api/cards/nope", "", http.StatusNotFound},
		{"wrong method", http.MethodPatch, "/api/cards", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, tt.body)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestPurchases(t *testing.T) {
	srv := newTestServer(t, 60)

	rr := do(t, srv, http.MethodPost, "/api/purchases",
		`{"cardId":"c1","description":"Curso","amount":"100,00","date":"2024-03-20","category":"Educação","installments":4}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	p := decode(t, rr)
	if p["installmentDisplay"] != "R$ 25,00" {
		t.Errorf("installmentDisplay = %v", p["installmentDisplay"])
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown card", `{"cardId":"zz","description":"x","amount":"1","date":"2024-03-01","category":"Lazer"}`, http.StatusUnprocessableEntity},
		{"bad amount", `{"cardId":"c1","description":"x","amount":"abc","date":"2024-03-01","category":"Lazer"}`, http.StatusUnprocessableEntity},
		{"bad category", `{"cardId":"c1","description":"x","amount":"1","date":"2024-03-01","category":"Viagem"}`, http.StatusUnprocessableEntity},
		{"missing date", `{"cardId":"c1","description":"x","amount":"1","category":"Lazer"}`, http.StatusUnprocessableEntity},
		{"malformed date", `{"cardId":"c1","description":"x","amount":"1","date":"03/01/2024","category":"Lazer"}`, http.StatusBadRequest},
		{"zero installments", `{"cardId":"c1","description":"x","amount":"1","date":"2024-03-01","category":"Lazer","installments":0}`, http.StatusUnprocessableEntity},
		{"zero installments form", "cardId=c1&description=x&amount=1&date=2024-03-01&category=Lazer&installments=0", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := do(t, srv, http.MethodPost, "/api/purchases", tt.body); rr.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}

	var list []map[string]any
	rr = do(t, srv, http.MethodGet, "/api/purchases?card=c1", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("purchases = %d, want 3", len(list))
	}

	if rr := do(t, srv, http.MethodDelete, "/api/purchases/p2", ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete status=%d, want 204", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/api/purchases/p2", ""); rr.Code != http.StatusNotFound {
		t.Errorf("second delete status=%d, want 404", rr.Code)
	}
}

func TestPurchaseAmountExponent(t *testing.T) {
	srv := newTestServer(t, 60)

	rr := do(t, srv, http.MethodPost, "/api/purchases",
		`{"cardId":"c1","description":"TV","amount":1.2e3,"date":"2024-03-20","category":"Moradia"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := decode(t, rr)["amountDisplay"]; got != "R$ 1.200,00" {
		t.Errorf("amountDisplay = %v, want R$ 1.200,00", got)
	}
}

func TestInvoiceEndpoint(t *testing.T) {
	srv := newTestServer(t, 60)

	tests := []struct {
		name       string
		query      string
		wantCode   int
		wantCount  float64
		wantStatus string
	}{
		{"defaults to current month", "", http.StatusOK, 2, "open"},
		{"closed month", "?year=2024&month=2", http.StatusOK, 0, "paid"},
		{"future installment", "?year=2024&month=5", http.StatusOK, 1, "forecast"},
		{"filter by other card", "?year=2024&month=3&card=c2", http.StatusOK, 0, "open"},
		{"month out of range", "?month=13", http.StatusUnprocessableEntity, 0, ""},
		{"non numeric month", "?month=mar", http.StatusBadRequest, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodGet, "/api/invoices"+tt.query, "")
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantCode, rr.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			body := decode(t, rr)
			if body["count"] != tt.wantCount {
				t.Errorf("count = %v, want %v", body["count"], tt.wantCount)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %v", body["status"], tt.wantStatus)
			}
		})
	}
}

func TestInvoiceExport(t *testing.T) {
	srv := newTestServer(t, 60)

	rr := do(t, srv, http.MethodGet, "/api/invoices/export?year=2024&month=3&format=csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "fatura_crediflow_2024-03.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rr.Body.String(), "Notebook (1/3)") {
		t.Errorf("csv missing installment row: %s", rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/invoices/export?year=2024&month=3&format=pdf", "")
	if rr.Code != http.StatusOK || !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("pdf export status=%d", rr.Code)
	}

	if rr := do(t, srv, http.MethodGet, "/api/invoices/export?format=doc", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown format status=%d, want 400", rr.Code)
	}
}

func TestYearlyReportAndDashboard(t *testing.T) {
	srv := newTestServer(t, 60)

	rr := do(t, srv, http.MethodGet, "/api/reports/yearly?year=2024", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("report status=%d", rr.Code)
	}
	report := decode(t, rr)
	if report["topCategory"] != string(core.Educacao) {
		t.Errorf("topCategory = %v", report["topCategory"])
	}
	if months, _ := report["monthly"].([]any); len(months) != 12 {
		t.Errorf("monthly entries = %d, want 12", len(months))
	}

	if rr := do(t, srv, http.MethodGet, "/api/reports/yearly/export?year=2024&format=xlsx", ""); rr.Code != http.StatusOK {
		t.Errorf("xlsx export status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/reports/yearly/export?year=2024&format=pdf", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("pdf report status=%d, want 400", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/reports/yearly?year=abc", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad year status=%d, want 400", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/dashboard", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	dash := decode(t, rr)
	if dash["purchaseCount"] != float64(2) {
		t.Errorf("purchaseCount = %v", dash["purchaseCount"])
	}
	spent, _ := dash["totalSpent"].(map[string]any)
	if spent["display"] != "R$ 345,90" {
		t.Errorf("totalSpent display = %v", spent["display"])
	}
}

func TestInsightsAndReset(t *testing.T) {
	srv := newTestServer(t, 60)

	body := decode(t, do(t, srv, http.MethodGet, "/api/insights", ""))
	if body["text"] != advisor.MsgNoAPIKey {
		t.Errorf("insights text = %v", body["text"])
	}
	if body["source"] != string(advisor.SourceFallback) {
		t.Errorf("insights source = %v", body["source"])
	}

	if rr := do(t, srv, http.MethodDelete, "/api/data", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("reset status=%d", rr.Code)
	}
	var cards []map[string]any
	if err := json.Unmarshal(do(t, srv, http.MethodGet, "/api/cards", "").Body.Bytes(), &cards); err != nil {
		t.Fatalf("decode cards: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("cards after reset = %d", len(cards))
	}
}

func TestRateLimitAppliesToWritesOnly(t *testing.T) {
	srv := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/api/cards", `{"name":`); rr.Code != http.StatusBadRequest {
			t.Fatalf("write %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/api/cards", `{"name":`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third write status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if srv.security.rateLimitHits.Load() != 1 {
		t.Errorf("rateLimitHits = %d", srv.security.rateLimitHits.Load())
	}

	for i := 0; i < 5; i++ {
		if rr := do(t, srv, http.MethodGet, "/api/cards", ""); rr.Code != http.StatusOK {
			t.Fatalf("read %d status=%d", i, rr.Code)
		}
	}
}
