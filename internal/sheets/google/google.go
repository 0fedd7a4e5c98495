// Package google mirrors invoices into a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"crediflow/internal/billing"
	"crediflow/internal/core"
	applog "crediflow/internal/log"
	ports "crediflow/internal/sheets"
)

// Each invoice occupies a fixed block of columns.
const lastColumn = "F"

var header = []any{"Data", "Descrição", "Parcela", "Categoria", "Cartão", "Valor"}

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID string
	// SheetName is the tab base name; the invoice year is prefixed, e.g.
	// "2024 Fatura".
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

var _ ports.InvoiceWriter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Fatura"
	}

	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created",
		applog.FieldComponent, applog.ComponentSheets,
		"spreadsheet_id", spreadsheetID,
		"sheet", base)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: base}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// WriteInvoice replaces columns A:F of the year tab with inv, so the tab
// always shows the most recently pushed invoice of that year.
func (c *Client) WriteInvoice(ctx context.Context, inv billing.InvoiceSummary, cards []core.Card) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.sheetBase, inv.Year)
	values := invoiceRows(inv, cards)

	clearRange := fmt.Sprintf("%s!A:%s", quoteSheet(sheet), lastColumn)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rng := fmt.Sprintf("%s!A1:%s%d", quoteSheet(sheet), lastColumn, len(values))
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}
	return rng, nil
}

// invoiceRows lays out a title row, a header, one row per occurrence and a
// closing total row.
func invoiceRows(inv billing.InvoiceSummary, cards []core.Card) [][]any {
	names := make(map[string]string, len(cards))
	for _, c := range cards {
		names[c.ID] = c.Name
	}

	rows := make([][]any, 0, len(inv.Items)+3)
	rows = append(rows, []any{fmt.Sprintf("Fatura %04d-%02d", inv.Year, inv.Month), "", "", "", "", ""})
	rows = append(rows, header)
	for _, o := range inv.Items {
		card, ok := names[o.Purchase.CardID]
		if !ok {
			card = "N/A"
		}
		rows = append(rows, []any{
			o.Date.String(),
			o.Purchase.Description,
			o.Label(),
			string(o.Purchase.Category),
			card,
			core.RoundCurrency(o.Amount).InexactFloat64(),
		})
	}
	rows = append(rows, []any{"", "", "", "", "Total", core.RoundCurrency(inv.Total).InexactFloat64()})
	return rows
}

// quoteSheet wraps a tab name in single quotes for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
