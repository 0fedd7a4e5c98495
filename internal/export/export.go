// Package export renders invoices and yearly reports as downloadable files.
// Amounts are rounded to cents here and nowhere earlier.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"crediflow/internal/billing"
	"crediflow/internal/core"
	"crediflow/internal/metrics"
)

type Format string

const (
	CSV  Format = "csv"
	PDF  Format = "pdf"
	XLSX Format = "xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

const missingCard = "N/A"

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, PDF, XLSX:
		return f, nil
	case "":
		return CSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case PDF:
		return "application/pdf"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// InvoiceFilename is fatura_crediflow_YYYY-MM.<ext>.
func InvoiceFilename(inv billing.InvoiceSummary, f Format) string {
	return fmt.Sprintf("fatura_crediflow_%04d-%02d.%s", inv.Year, inv.Month, f)
}

// ReportFilename is relatorio_crediflow_YYYY.<ext>.
func ReportFilename(year int, f Format) string {
	return fmt.Sprintf("relatorio_crediflow_%d.%s", year, f)
}

// Invoice renders inv in format f. status is printed in the PDF header.
func Invoice(f Format, inv billing.InvoiceSummary, status billing.InvoiceStatus, cards []core.Card) ([]byte, error) {
	start := time.Now()
	var (
		out []byte
		err error
	)
	switch f {
	case CSV:
		out, err = occurrencesCSV(inv.Items, cardNames(cards))
	case PDF:
		out, err = invoicePDF(inv, status, cardNames(cards))
	case XLSX:
		out, err = invoiceXLSX(inv, cardNames(cards))
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	metrics.ObserveExport(string(f), metrics.Result(err), time.Since(start))
	return out, err
}

// Report renders a yearly report. PDF is not offered for reports.
func Report(f Format, report billing.YearlyReport, cards []core.Card) ([]byte, error) {
	start := time.Now()
	var (
		out []byte
		err error
	)
	switch f {
	case CSV:
		out, err = occurrencesCSV(report.Items, cardNames(cards))
	case XLSX:
		out, err = reportXLSX(report, cardNames(cards))
	default:
		err = fmt.Errorf("%w for reports: %q", ErrUnsupportedFormat, f)
	}
	metrics.ObserveExport("report_"+string(f), metrics.Result(err), time.Since(start))
	return out, err
}

func cardNames(cards []core.Card) map[string]string {
	names := make(map[string]string, len(cards))
	for _, c := range cards {
		if _, dup := names[c.ID]; !dup {
			names[c.ID] = c.Name
		}
	}
	return names
}

func cardName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return missingCard
}

// description appends the installment label, e.g. "iPhone (2/10)".
func description(o billing.Occurrence) string {
	if l := o.Label(); l != "" {
		return fmt.Sprintf("%s (%s)", o.Purchase.Description, l)
	}
	return o.Purchase.Description
}

// brDate formats a day as dd/mm/yyyy.
func brDate(d core.Date) string {
	return d.Format("02/01/2006")
}

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

var statusLabels = map[billing.InvoiceStatus]string{
	billing.StatusPaid:     "Fechada",
	billing.StatusOpen:     "Aberta",
	billing.StatusForecast: "Prevista",
}
