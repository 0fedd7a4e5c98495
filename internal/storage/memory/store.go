// Package memory keeps cards and purchases in process memory. Data is lost
// on restart; the store is seeded at startup.
package memory

import (
	"context"
	"fmt"
	"sync"

	"crediflow/internal/core"
	"crediflow/internal/storage"
)

// Store is an in-memory storage.Store.
type Store struct {
	mu        sync.RWMutex
	cards     []core.Card
	purchases []core.Purchase
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// NewWithSeed returns a store holding seed.
func NewWithSeed(seed storage.Seed) *Store {
	return &Store{
		cards:     append([]core.Card(nil), seed.Cards...),
		purchases: append([]core.Purchase(nil), seed.Purchases...),
	}
}

func (s *Store) ListCards(ctx context.Context) ([]core.Card, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Card{}, s.cards...), nil
}

func (s *Store) GetCard(ctx context.Context, id string) (core.Card, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.cardIndex(id); i >= 0 {
		return s.cards[i], nil
	}
	return core.Card{}, fmt.Errorf("card %s: %w", id, storage.ErrNotFound)
}

func (s *Store) CreateCard(ctx context.Context, c core.Card) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cardIndex(c.ID) >= 0 {
		return fmt.Errorf("card %s: %w", c.ID, storage.ErrDuplicate)
	}
	s.cards = append(s.cards, c)
	return nil
}

func (s *Store) UpdateCard(ctx context.Context, c core.Card) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.cardIndex(c.ID)
	if i < 0 {
		return fmt.Errorf("card %s: %w", c.ID, storage.ErrNotFound)
	}
	s.cards[i] = c
	return nil
}

func (s *Store) DeleteCard(ctx context.Context, id string) (int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.cardIndex(id)
	if i < 0 {
		return 0, fmt.Errorf("card %s: %w", id, storage.ErrNotFound)
	}
	s.cards = append(s.cards[:i:i], s.cards[i+1:]...)

	kept := s.purchases[:0:0]
	for _, p := range s.purchases {
		if p.CardID != id {
			kept = append(kept, p)
		}
	}
	removed := len(s.purchases) - len(kept)
	s.purchases = kept
	return removed, nil
}

func (s *Store) ListPurchases(ctx context.Context) ([]core.Purchase, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Purchase{}, s.purchases...), nil
}

func (s *Store) CreatePurchase(ctx context.Context, p core.Purchase) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.purchases {
		if existing.ID == p.ID {
			return fmt.Errorf("purchase %s: %w", p.ID, storage.ErrDuplicate)
		}
	}
	s.purchases = append(s.purchases, p)
	return nil
}

func (s *Store) DeletePurchase(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.purchases {
		if p.ID == id {
			s.purchases = append(s.purchases[:i:i], s.purchases[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("purchase %s: %w", id, storage.ErrNotFound)
}

func (s *Store) Reset(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = nil
	s.purchases = nil
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func (s *Store) cardIndex(id string) int {
	for i, c := range s.cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}
