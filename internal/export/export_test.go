package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"crediflow/internal/billing"
	"crediflow/internal/core"
)

func fixture(t *testing.T) ([]core.Card, billing.InvoiceSummary, billing.YearlyReport) {
	t.Helper()
	cards := []core.Card{{ID: "c1", Name: "Nubank", ClosingDay: 10, DueDay: 17, LimitTotal: decimal.NewFromInt(5000)}}
	purchases := []core.Purchase{
		{ID: "p1", CardID: "c1", Amount: decimal.NewFromInt(100), Description: "Notebook", Date: core.NewDate(2024, 3, 5), Category: core.Educacao, Installments: 3},
		{ID: "p2", CardID: "c1", Amount: decimal.RequireFromString("45.9"), Description: "iFood, jantar", Date: core.NewDate(2024, 3, 8), Category: core.Alimentacao, Installments: 1},
	}
	inv, err := billing.BuildInvoice(purchases, cards, 2024, 3, billing.AllCards)
	if err != nil {
		t.Fatalf("BuildInvoice: %v", err)
	}
	report, err := billing.BuildYearlyReport(purchases, cards, 2024, billing.AllCards)
	if err != nil {
		t.Fatalf("BuildYearlyReport: %v", err)
	}
	return cards, inv, report
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", CSV, false},
		{" PDF ", PDF, false},
		{"xlsx", XLSX, false},
		{"", CSV, false},
		{"docx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
		if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ParseFormat(%q) error %v is not ErrUnsupportedFormat", tt.in, err)
		}
	}
}

func TestFilenames(t *testing.T) {
	_, inv, _ := fixture(t)
	if got := InvoiceFilename(inv, PDF); got != "fatura_crediflow_2024-03.pdf" {
		t.Errorf("InvoiceFilename = %q", got)
	}
	if got := ReportFilename(2024, CSV); got != "relatorio_crediflow_2024.csv" {
		t.Errorf("ReportFilename = %q", got)
	}
}

func TestInvoiceCSV(t *testing.T) {
	cards, inv, _ := fixture(t)
	out, err := Invoice(CSV, inv, billing.StatusOpen, cards)
	if err != nil {
		t.Fatalf("Invoice(csv): %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), out)
	}
	if lines[0] != "Data,Descrição,Categoria,Valor,Cartão" {
		t.Errorf("header = %q", lines[0])
	}
	body := string(out)
	for _, want := range []string{
		"05/03/2024,Notebook (1/3),Educação,33.33,Nubank",
		`08/03/2024,"iFood, jantar",Alimentação,45.90,Nubank`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("csv missing row %q:\n%s", want, body)
		}
	}
}

func TestReportCSVUnknownCard(t *testing.T) {
	_, _, report := fixture(t)
	out, err := Report(CSV, report, nil)
	if err != nil {
		t.Fatalf("Report(csv): %v", err)
	}
	if n := strings.Count(string(out), ",N/A"); n != len(report.Items) {
		t.Errorf("N/A cells = %d, want %d", n, len(report.Items))
	}
}

func TestInvoicePDF(t *testing.T) {
	cards, inv, _ := fixture(t)
	out, err := Invoice(PDF, inv, billing.StatusForecast, cards)
	if err != nil {
		t.Fatalf("Invoice(pdf): %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("output does not look like a PDF: %q", out[:min(len(out), 16)])
	}
}

func TestInvoiceXLSX(t *testing.T) {
	cards, inv, _ := fixture(t)
	out, err := Invoice(XLSX, inv, billing.StatusOpen, cards)
	if err != nil {
		t.Fatalf("Invoice(xlsx): %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue(summarySheet, "B3"); got != "2024-03" {
		t.Errorf("month cell = %q", got)
	}
	if got, _ := f.GetCellValue(itemsSheet, "B2"); got != "Notebook (1/3)" {
		t.Errorf("first item = %q", got)
	}
	if got, _ := f.GetCellValue(itemsSheet, "E3"); got != "Nubank" {
		t.Errorf("card cell = %q", got)
	}
}

func TestReportXLSX(t *testing.T) {
	cards, _, report := fixture(t)
	out, err := Report(XLSX, report, cards)
	if err != nil {
		t.Fatalf("Report(xlsx): %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue(summarySheet, "A6"); got != "Março" {
		t.Errorf("month label = %q", got)
	}
	rows, err := f.GetRows(itemsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != len(report.Items)+1 {
		t.Errorf("item rows = %d, want %d", len(rows), len(report.Items)+1)
	}
	if got, _ := f.GetCellValue(categoriesSheet, "A1"); got != "Categoria" {
		t.Errorf("categories header = %q", got)
	}
}

func TestReportRejectsPDF(t *testing.T) {
	cards, _, report := fixture(t)
	if _, err := Report(PDF, report, cards); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Report(pdf) error = %v, want ErrUnsupportedFormat", err)
	}
}
