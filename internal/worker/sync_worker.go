// Package worker reacts to ledger change events by mirroring the current
// invoice into Google Sheets.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"crediflow/internal/amqp"
	"crediflow/internal/billing"
	applog "crediflow/internal/log"
	"crediflow/internal/metrics"
	"crediflow/internal/services"
	"crediflow/internal/sheets"
)

// Ledger is the read side of services.LedgerService used by the worker.
type Ledger interface {
	Snapshot(ctx context.Context) (services.Snapshot, error)
	CurrentInvoice(ctx context.Context, filter billing.CardFilter) (services.Invoice, error)
}

// errLedger marks failures reading the store, as opposed to pushing.
var errLedger = errors.New("ledger read failed")

// SyncWorker keeps the spreadsheet in step with the store.
type SyncWorker struct {
	ledger Ledger
	sheets sheets.InvoiceWriter
	logger *slog.Logger
}

func NewSyncWorker(ledger Ledger, writer sheets.InvoiceWriter, logger *slog.Logger) *SyncWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncWorker{
		ledger: ledger,
		sheets: writer,
		logger: logger.With(applog.FieldComponent, applog.ComponentWorker),
	}
}

// HandleEvent processes one change event. A failed push is returned so the
// delivery is requeued.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.PurchaseEvent) error {
	fields := applog.NewFields().WithOperation(applog.OpConsume)
	if ev.RequestID != "" {
		fields.WithRequestID(ev.RequestID)
	}
	w.logger.InfoContext(ctx, "Processing change event",
		append(fields.ToSlice(),
			"kind", ev.Kind,
			applog.FieldPurchaseID, ev.PurchaseID,
			applog.FieldCardID, ev.CardID)...)
	return w.Sync(ctx)
}

// Sync pushes the current invoice for all cards.
func (w *SyncWorker) Sync(ctx context.Context) error {
	if w.sheets == nil {
		return errors.New("sync: no sheets writer configured")
	}

	var (
		inv  services.Invoice
		snap services.Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if inv, err = w.ledger.CurrentInvoice(gctx, billing.AllCards); err != nil {
			return fmt.Errorf("build current invoice: %w: %w", errLedger, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if snap, err = w.ledger.Snapshot(gctx); err != nil {
			return fmt.Errorf("load cards: %w: %w", errLedger, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.IncSheetsPush(metrics.ResultError)
		return err
	}

	ref, err := w.sheets.WriteInvoice(ctx, inv.InvoiceSummary, snap.Cards)
	metrics.IncSheetsPush(metrics.Result(err))
	if err != nil {
		return fmt.Errorf("push invoice to sheets: %w", err)
	}

	w.logger.InfoContext(ctx, "Invoice pushed to sheets",
		append(applog.NewFields().WithPeriod(inv.Year, inv.Month).ToSlice(),
			"sheets_ref", ref,
			applog.FieldItems, len(inv.Items))...)
	return nil
}

// StartupSync runs one Sync so the sheet reflects changes made while the
// worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Performing startup sync", applog.FieldOperation, applog.OpStartup)
	if err := w.Sync(ctx); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	return nil
}

// RunPeriodic re-syncs every interval until ctx is done. The invoice month
// rolls over with the calendar even when nothing changes.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Sync(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed",
					applog.NewFields().WithError(err).WithErrorType(errorType(err)).ToSlice()...)
			}
		}
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return applog.ErrorTypeTimeout
	case errors.Is(err, errLedger):
		return applog.ErrorTypeDatabase
	default:
		return applog.ErrorTypeNetwork
	}
}
