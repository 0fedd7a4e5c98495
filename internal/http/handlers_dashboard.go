package http

import (
	"context"
	"net/http"
	"time"

	"crediflow/internal/billing"
	"crediflow/internal/export"
	applog "crediflow/internal/log"
	"crediflow/internal/services"
)

const queryTimeout = 7 * time.Second

// handleInvoice answers the invoice of ?year=&month= (default: this month)
// for ?card= (default: all cards).
func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := s.loadInvoice(w, r, applog.OpInvoice)
	if !ok {
		return
	}
	NewResponse().JSON(newInvoiceResponse(inv)).Write(w)
}

// handleInvoiceExport renders the invoice as ?format=csv|pdf|xlsx.
func (s *Server) handleInvoiceExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err, applog.ComponentExport, applog.OpExport)
		return
	}
	inv, ok := s.loadInvoice(w, r, applog.OpExport)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	cards, err := s.svc.Cards.List(ctx)
	if err != nil {
		writeError(w, r, err, applog.ComponentExport, applog.OpExport)
		return
	}

	content, err := export.Invoice(format, inv.InvoiceSummary, inv.Status, cards)
	if err != nil {
		writeError(w, r, err, applog.ComponentExport, applog.OpExport)
		return
	}

	s.logger.InfoContext(r.Context(), "Invoice exported",
		append(applog.NewFields().WithPeriod(inv.Year, inv.Month).ToSlice(),
			applog.FieldFormat, string(format),
			applog.FieldFilter, string(inv.Filter),
			applog.FieldItems, len(inv.Items))...)
	NewResponse().
		File(export.InvoiceFilename(inv.InvoiceSummary, format), format.ContentType(), content).
		Write(w)
}

func (s *Server) loadInvoice(w http.ResponseWriter, r *http.Request, op string) (services.Invoice, bool) {
	query := r.URL.Query()
	params, err := ParseMonthParams(query, s.svc.Ledger.Today())
	if err != nil {
		writeError(w, r, err, applog.ComponentLedger, op)
		return services.Invoice{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	inv, err := s.svc.Ledger.Invoice(ctx, params.Year, params.Month, ParseCardFilter(query))
	if err != nil {
		writeError(w, r, err, applog.ComponentLedger, op)
		return services.Invoice{}, false
	}
	return inv, true
}

// handleYearlyReport answers the spending report of ?year= (default: this
// year) for ?card=.
func (s *Server) handleYearlyReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w, r, applog.OpReport)
	if !ok {
		return
	}
	NewResponse().JSON(newReportResponse(report)).Write(w)
}

// handleYearlyReportExport renders the report as ?format=csv|xlsx.
func (s *Server) handleYearlyReportExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err, applog.ComponentExport, applog.OpExport)
		return
	}
	report, ok := s.loadReport(w, r, applog.OpExport)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	cards, err := s.svc.Cards.List(ctx)
	if err != nil {
		writeError(w, r, err, applog.ComponentExport, applog.OpExport)
		return
	}

	content, err := export.Report(format, report, cards)
	if err != nil {
		writeError(w, r, err, applog.ComponentExport, applog.OpExport)
		return
	}
	NewResponse().
		File(export.ReportFilename(report.Year, format), format.ContentType(), content).
		Write(w)
}

func (s *Server) loadReport(w http.ResponseWriter, r *http.Request, op string) (billing.YearlyReport, bool) {
	query := r.URL.Query()
	year, err := ParseYearParam(query, s.svc.Ledger.Today().Year)
	if err != nil {
		writeError(w, r, err, applog.ComponentLedger, op)
		return billing.YearlyReport{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	report, err := s.svc.Ledger.YearlyReport(ctx, year, ParseCardFilter(query))
	if err != nil {
		writeError(w, r, err, applog.ComponentLedger, op)
		return billing.YearlyReport{}, false
	}
	return report, true
}

// handleDashboard answers limit usage across all cards.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	d, err := s.svc.Ledger.Dashboard(ctx)
	if err != nil {
		writeError(w, r, err, applog.ComponentLedger, applog.OpRead)
		return
	}
	NewResponse().JSON(newDashboardResponse(d)).Write(w)
}
