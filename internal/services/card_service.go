package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"crediflow/internal/amqp"
	"crediflow/internal/core"
	applog "crediflow/internal/log"
	"crediflow/internal/metrics"
	"crediflow/internal/storage"
)

const defaultCardColor = "#475569"

type CardService struct {
	store  storage.Store
	events events
	newID  func() string
}

func (s *CardService) List(ctx context.Context) ([]core.Card, error) {
	cards, err := s.store.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

func (s *CardService) Get(ctx context.Context, id string) (core.Card, error) {
	c, err := s.store.GetCard(ctx, id)
	if err != nil {
		return core.Card{}, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

// Create assigns a new id, validates and stores the card.
func (s *CardService) Create(ctx context.Context, c core.Card) (core.Card, error) {
	c.ID = s.newID()
	normalizeCard(&c)
	if err := c.Validate(); err != nil {
		return core.Card{}, fmt.Errorf("create card: %w", err)
	}

	err := s.store.CreateCard(ctx, c)
	metrics.IncStoreWrite("card", applog.OpCreate, metrics.Result(err))
	if err != nil {
		return core.Card{}, fmt.Errorf("create card: %w", err)
	}

	slog.InfoContext(ctx, "Card created",
		applog.FieldComponent, applog.ComponentCard,
		applog.FieldCardID, c.ID,
		"closing_day", c.ClosingDay)
	s.events.publish(ctx, amqp.CardChanged, "", c.ID)
	return c, nil
}

// Update replaces every field of an existing card.
func (s *CardService) Update(ctx context.Context, c core.Card) (core.Card, error) {
	normalizeCard(&c)
	if err := c.Validate(); err != nil {
		return core.Card{}, fmt.Errorf("update card: %w", err)
	}

	err := s.store.UpdateCard(ctx, c)
	metrics.IncStoreWrite("card", applog.OpUpdate, metrics.Result(err))
	if err != nil {
		return core.Card{}, fmt.Errorf("update card: %w", err)
	}

	slog.InfoContext(ctx, "Card updated", applog.FieldComponent, applog.ComponentCard, applog.FieldCardID, c.ID)
	s.events.publish(ctx, amqp.CardChanged, "", c.ID)
	return c, nil
}

// Delete removes the card together with its purchases and reports how many
// purchases were removed.
func (s *CardService) Delete(ctx context.Context, id string) (int, error) {
	removed, err := s.store.DeleteCard(ctx, id)
	metrics.IncStoreWrite("card", applog.OpDelete, metrics.Result(err))
	if err != nil {
		return 0, fmt.Errorf("delete card: %w", err)
	}

	slog.InfoContext(ctx, "Card deleted",
		applog.FieldComponent, applog.ComponentCard,
		applog.FieldCardID, id,
		"removed_purchases", removed)
	s.events.publish(ctx, amqp.CardDeleted, "", id)
	return removed, nil
}

func normalizeCard(c *core.Card) {
	c.Name = strings.TrimSpace(c.Name)
	c.Bank = strings.TrimSpace(c.Bank)
	if c.Color == "" {
		c.Color = defaultCardColor
	}
	if c.Brand == "" {
		c.Brand = core.OtherBrand
	}
}
