// Package services orchestrates store access, the billing engine and change
// events for the HTTP server and the worker.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"crediflow/internal/amqp"
	applog "crediflow/internal/log"
	"crediflow/internal/storage"
)

// EventPublisher announces ledger changes. The AMQP client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.PurchaseEvent) error
}

// Options tunes the services. Zero values select production defaults.
type Options struct {
	Publisher EventPublisher
	NewID     func() string
	Now       func() time.Time
}

// Services bundles the application services over one store.
type Services struct {
	Cards     *CardService
	Purchases *PurchaseService
	Ledger    *LedgerService

	store     storage.Store
	publisher EventPublisher
}

func New(store storage.Store, opts Options) *Services {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ev := events{publisher: opts.Publisher}
	return &Services{
		Cards:     &CardService{store: store, events: ev, newID: opts.NewID},
		Purchases: &PurchaseService{store: store, events: ev, newID: opts.NewID},
		Ledger:    &LedgerService{store: store, events: ev, now: opts.Now},
		store:     store,
		publisher: opts.Publisher,
	}
}

// Ping checks the store.
func (s *Services) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close closes both the store and the event publisher when it is closable.
func (s *Services) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close services: %v", errs)
	}
	return nil
}

type events struct {
	publisher EventPublisher
}

// publish never fails the caller: the write already happened.
func (e events) publish(ctx context.Context, kind amqp.EventKind, purchaseID, cardID string) {
	if e.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping change event", "kind", kind)
		return
	}
	ev := amqp.NewPurchaseEvent(kind, purchaseID, cardID)
	ev.RequestID = applog.RequestID(ctx)
	if err := e.publisher.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"kind", kind,
			"purchase_id", purchaseID,
			"card_id", cardID,
			"error", err)
	}
}
