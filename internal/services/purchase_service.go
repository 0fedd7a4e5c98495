package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"crediflow/internal/amqp"
	"crediflow/internal/billing"
	"crediflow/internal/core"
	applog "crediflow/internal/log"
	"crediflow/internal/metrics"
	"crediflow/internal/storage"
)

// PurchaseService stores purchases and announces each change.
type PurchaseService struct {
	store  storage.Store
	events events
	newID  func() string
}

// List returns purchases in insertion order, restricted by filter.
func (s *PurchaseService) List(ctx context.Context, filter billing.CardFilter) ([]core.Purchase, error) {
	all, err := s.store.ListPurchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	out := make([]core.Purchase, 0, len(all))
	for _, p := range all {
		if filter.Matches(p.CardID) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Create saves a purchase and publishes a change event. The card must exist
// at creation time; later card deletion cascades.
func (s *PurchaseService) Create(ctx context.Context, p core.Purchase) (core.Purchase, error) {
	p.ID = s.newID()
	p.Description = strings.TrimSpace(p.Description)
	if err := p.Validate(); err != nil {
		return core.Purchase{}, fmt.Errorf("create purchase: %w", err)
	}

	if _, err := s.store.GetCard(ctx, p.CardID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Purchase{}, fmt.Errorf("create purchase: card %s: %w", p.CardID, core.ErrUnknownCard)
		}
		return core.Purchase{}, fmt.Errorf("create purchase: %w", err)
	}

	err := s.store.CreatePurchase(ctx, p)
	metrics.IncStoreWrite("purchase", applog.OpCreate, metrics.Result(err))
	if err != nil {
		return core.Purchase{}, fmt.Errorf("save purchase: %w", err)
	}

	fields := applog.NewFields().
		WithComponent(applog.ComponentPurchase).
		WithPurchase(p.ID, p.CardID, p.Amount, p.Installments, string(p.Category))
	slog.InfoContext(ctx, "Purchase created", fields.ToSlice()...)

	s.events.publish(ctx, amqp.PurchaseCreated, p.ID, p.CardID)
	return p, nil
}

// Delete removes one purchase with all of its installments.
func (s *PurchaseService) Delete(ctx context.Context, id string) error {
	err := s.store.DeletePurchase(ctx, id)
	metrics.IncStoreWrite("purchase", applog.OpDelete, metrics.Result(err))
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}

	slog.InfoContext(ctx, "Purchase deleted", applog.FieldComponent, applog.ComponentPurchase, applog.FieldPurchaseID, id)
	s.events.publish(ctx, amqp.PurchaseDeleted, id, "")
	return nil
}
