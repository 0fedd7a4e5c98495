package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"crediflow/internal/amqp"
	"crediflow/internal/billing"
	"crediflow/internal/core"
	applog "crediflow/internal/log"
	"crediflow/internal/metrics"
	"crediflow/internal/storage"
)

// LedgerService answers invoice, report and dashboard queries by loading the
// store and running the billing engine over it.
type LedgerService struct {
	store  storage.Store
	events events
	now    func() time.Time
}

// Invoice is an invoice summary with its status relative to today.
type Invoice struct {
	billing.InvoiceSummary
	Status billing.InvoiceStatus `json:"status"`
}

// Snapshot is the full ledger state at one point.
type Snapshot struct {
	Cards     []core.Card
	Purchases []core.Purchase
}

// Today returns the current calendar month.
func (s *LedgerService) Today() core.YearMonth {
	t := s.now()
	return core.YearMonth{Year: t.Year(), Month: int(t.Month())}
}

func (s *LedgerService) Snapshot(ctx context.Context) (Snapshot, error) {
	cards, err := s.store.ListCards(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load cards: %w", err)
	}
	purchases, err := s.store.ListPurchases(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load purchases: %w", err)
	}
	return Snapshot{Cards: cards, Purchases: purchases}, nil
}

// Invoice builds the invoice of (year, month) for filter.
func (s *LedgerService) Invoice(ctx context.Context, year, month int, filter billing.CardFilter) (Invoice, error) {
	ym := core.YearMonth{Year: year, Month: month}
	if !ym.Valid() {
		return Invoice{}, fmt.Errorf("invoice %d-%d: %w", year, month, core.ErrInvalidMonth)
	}

	start := time.Now()
	inv, err := s.buildInvoice(ctx, ym, filter)
	metrics.ObserveInvoiceBuild(metrics.Result(err), time.Since(start))
	if err != nil {
		return Invoice{}, err
	}

	slog.DebugContext(ctx, "Invoice built",
		append(applog.NewFields().
			WithComponent(applog.ComponentLedger).
			WithPeriod(year, month).
			ToSlice(),
			applog.FieldFilter, string(inv.Filter),
			applog.FieldItems, len(inv.Items))...)
	return inv, nil
}

// CurrentInvoice builds the invoice of the current month.
func (s *LedgerService) CurrentInvoice(ctx context.Context, filter billing.CardFilter) (Invoice, error) {
	ym := s.Today()
	return s.Invoice(ctx, ym.Year, ym.Month, filter)
}

func (s *LedgerService) buildInvoice(ctx context.Context, ym core.YearMonth, filter billing.CardFilter) (Invoice, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Invoice{}, err
	}
	summary, err := billing.BuildInvoice(snap.Purchases, snap.Cards, ym.Year, ym.Month, filter)
	if err != nil {
		return Invoice{}, fmt.Errorf("build invoice %d-%02d: %w", ym.Year, ym.Month, err)
	}
	return Invoice{InvoiceSummary: summary, Status: billing.StatusOf(ym, s.now())}, nil
}

// YearlyReport aggregates year by nominal spending month.
func (s *LedgerService) YearlyReport(ctx context.Context, year int, filter billing.CardFilter) (billing.YearlyReport, error) {
	start := time.Now()
	report, err := s.yearlyReport(ctx, year, filter)
	metrics.ObserveReportBuild(metrics.Result(err), time.Since(start))
	return report, err
}

func (s *LedgerService) yearlyReport(ctx context.Context, year int, filter billing.CardFilter) (billing.YearlyReport, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return billing.YearlyReport{}, err
	}
	report, err := billing.BuildYearlyReport(snap.Purchases, snap.Cards, year, filter)
	if err != nil {
		return billing.YearlyReport{}, fmt.Errorf("build report %d: %w", year, err)
	}
	return report, nil
}

func (s *LedgerService) Dashboard(ctx context.Context) (billing.Dashboard, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return billing.Dashboard{}, err
	}
	d := billing.BuildDashboard(snap.Purchases, snap.Cards)
	if d.DanglingIgnored > 0 {
		slog.WarnContext(ctx, "Purchases reference missing cards",
			applog.FieldComponent, applog.ComponentLedger,
			"count", d.DanglingIgnored)
	}
	return d, nil
}

// Reset deletes all cards and purchases.
func (s *LedgerService) Reset(ctx context.Context) error {
	err := s.store.Reset(ctx)
	metrics.IncStoreWrite("all", applog.OpReset, metrics.Result(err))
	if err != nil {
		return fmt.Errorf("reset data: %w", err)
	}
	slog.WarnContext(ctx, "All data reset", applog.FieldComponent, applog.ComponentLedger)
	s.events.publish(ctx, amqp.DataReset, "", "")
	return nil
}
