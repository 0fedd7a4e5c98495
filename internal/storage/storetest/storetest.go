// Package storetest holds behavior checks shared by every storage.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"crediflow/internal/core"
	"crediflow/internal/storage"
)

// Run exercises a store. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()

	t.Run("cards round trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		c := Card("c1", 5)
		if err := s.CreateCard(ctx, c); err != nil {
			t.Fatalf("CreateCard: %v", err)
		}
		got, err := s.GetCard(ctx, "c1")
		if err != nil {
			t.Fatalf("GetCard: %v", err)
		}
		if got.Name != c.Name || got.ClosingDay != 5 || !got.LimitTotal.Equal(c.LimitTotal) || got.Brand != c.Brand {
			t.Errorf("GetCard = %+v, want %+v", got, c)
		}

		c.Name = "Renamed"
		c.LimitTotal = decimal.RequireFromString("7500.50")
		if err := s.UpdateCard(ctx, c); err != nil {
			t.Fatalf("UpdateCard: %v", err)
		}
		got, _ = s.GetCard(ctx, "c1")
		if got.Name != "Renamed" || !got.LimitTotal.Equal(c.LimitTotal) {
			t.Errorf("after update = %+v", got)
		}

		if err := s.CreateCard(ctx, c); !errors.Is(err, storage.ErrDuplicate) {
			t.Errorf("duplicate CreateCard err = %v, want ErrDuplicate", err)
		}
		if _, err := s.GetCard(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetCard(missing) err = %v, want ErrNotFound", err)
		}
		if err := s.UpdateCard(ctx, Card("missing", 1)); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("UpdateCard(missing) err = %v, want ErrNotFound", err)
		}
	})

	t.Run("purchases keep insertion order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		want := []core.Purchase{
			Purchase("p-z", "c1", "1500", core.NewDate(2024, 3, 9), 10),
			Purchase("p-a", "c1", "-30", core.NewDate(2024, 1, 2), 1),
			Purchase("p-m", "gone", "0.333", core.NewDate(2024, 2, 29), 3),
		}
		for _, p := range want {
			if err := s.CreatePurchase(ctx, p); err != nil {
				t.Fatalf("CreatePurchase(%s): %v", p.ID, err)
			}
		}
		got, err := s.ListPurchases(ctx)
		if err != nil {
			t.Fatalf("ListPurchases: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("got %d purchases, want %d", len(got), len(want))
		}
		for i := range want {
			g, w := got[i], want[i]
			if g.ID != w.ID || g.CardID != w.CardID || !g.Amount.Equal(w.Amount) ||
				!g.Date.Equal(w.Date.Time) || g.Installments != w.Installments || g.Category != w.Category {
				t.Errorf("purchase %d = %+v, want %+v", i, g, w)
			}
		}

		if err := s.DeletePurchase(ctx, "p-a"); err != nil {
			t.Fatalf("DeletePurchase: %v", err)
		}
		if err := s.DeletePurchase(ctx, "p-a"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second DeletePurchase err = %v, want ErrNotFound", err)
		}
		got, _ = s.ListPurchases(ctx)
		if len(got) != 2 || got[0].ID != "p-z" || got[1].ID != "p-m" {
			t.Errorf("after delete = %+v", got)
		}
	})

	t.Run("delete card cascades", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, c := range []core.Card{Card("a", 5), Card("b", 20)} {
			if err := s.CreateCard(ctx, c); err != nil {
				t.Fatal(err)
			}
		}
		for _, p := range []core.Purchase{
			Purchase("p1", "a", "10", core.NewDate(2024, 1, 1), 1),
			Purchase("p2", "b", "20", core.NewDate(2024, 1, 2), 1),
			Purchase("p3", "a", "30", core.NewDate(2024, 1, 3), 2),
		} {
			if err := s.CreatePurchase(ctx, p); err != nil {
				t.Fatal(err)
			}
		}

		removed, err := s.DeleteCard(ctx, "a")
		if err != nil {
			t.Fatalf("DeleteCard: %v", err)
		}
		if removed != 2 {
			t.Errorf("removed = %d, want 2", removed)
		}
		cards, _ := s.ListCards(ctx)
		if len(cards) != 1 || cards[0].ID != "b" {
			t.Errorf("cards = %+v", cards)
		}
		purchases, _ := s.ListPurchases(ctx)
		if len(purchases) != 1 || purchases[0].ID != "p2" {
			t.Errorf("purchases = %+v", purchases)
		}
		if _, err := s.DeleteCard(ctx, "a"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second DeleteCard err = %v, want ErrNotFound", err)
		}
	})

	t.Run("reset and seed", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		seed := storage.DefaultSeed(core.NewDate(2024, 5, 10))
		applied, err := storage.ApplySeed(ctx, s, seed)
		if err != nil || !applied {
			t.Fatalf("ApplySeed = %v, %v", applied, err)
		}
		applied, err = storage.ApplySeed(ctx, s, seed)
		if err != nil || applied {
			t.Fatalf("second ApplySeed = %v, %v; want no-op", applied, err)
		}
		cards, _ := s.ListCards(ctx)
		if len(cards) != 2 || cards[0].Name != "Nubank Platinum" {
			t.Fatalf("cards = %+v", cards)
		}

		if err := s.Reset(ctx); err != nil {
			t.Fatalf("Reset: %v", err)
		}
		cards, _ = s.ListCards(ctx)
		purchases, _ := s.ListPurchases(ctx)
		if len(cards) != 0 || len(purchases) != 0 {
			t.Errorf("after reset: %d cards, %d purchases", len(cards), len(purchases))
		}
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}

// Card returns a valid card for tests.
func Card(id string, closing int) core.Card {
	return core.Card{
		ID:         id,
		Name:       "Card " + id,
		Bank:       "Bank",
		LimitTotal: decimal.NewFromInt(5000),
		ClosingDay: closing,
		DueDay:     12,
		Brand:      core.Visa,
		Color:      "#112233",
	}
}

// Purchase returns a valid purchase for tests.
func Purchase(id, cardID, amount string, date core.Date, installments int) core.Purchase {
	return core.Purchase{
		ID:           id,
		CardID:       cardID,
		Amount:       decimal.RequireFromString(amount),
		Description:  "purchase " + id,
		Date:         date,
		Category:     core.Outros,
		Installments: installments,
	}
}
