package storage

import (
	"context"
	"errors"

	"crediflow/internal/core"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate id")
)

// Ports for persistence adapters.
type (
	CardStore interface {
		ListCards(ctx context.Context) ([]core.Card, error)
		GetCard(ctx context.Context, id string) (core.Card, error)
		CreateCard(ctx context.Context, c core.Card) error
		UpdateCard(ctx context.Context, c core.Card) error
		// DeleteCard removes the card and every purchase charged to it in one
		// step and returns how many purchases went with it.
		DeleteCard(ctx context.Context, id string) (removedPurchases int, err error)
	}

	// PurchaseStore lists purchases in insertion order. Invoice ordering
	// ties depend on it.
	PurchaseStore interface {
		ListPurchases(ctx context.Context) ([]core.Purchase, error)
		CreatePurchase(ctx context.Context, p core.Purchase) error
		DeletePurchase(ctx context.Context, id string) error
	}

	Store interface {
		CardStore
		PurchaseStore
		// Reset deletes all cards and purchases.
		Reset(ctx context.Context) error
		Ping(ctx context.Context) error
		Close() error
	}
)
