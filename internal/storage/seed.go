package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"crediflow/internal/core"
)

// Seed is the initial data set of an empty store.
type Seed struct {
	Cards     []core.Card
	Purchases []core.Purchase
}

type seedFile struct {
	Cards []struct {
		ID         string `yaml:"id"`
		Name       string `yaml:"name"`
		Bank       string `yaml:"bank"`
		Limit      string `yaml:"limit"`
		ClosingDay int    `yaml:"closing_day"`
		DueDay     int    `yaml:"due_day"`
		Brand      string `yaml:"brand"`
		Color      string `yaml:"color"`
	} `yaml:"cards"`
	Purchases []struct {
		ID           string `yaml:"id"`
		CardID       string `yaml:"card_id"`
		Amount       string `yaml:"amount"`
		Description  string `yaml:"description"`
		Date         string `yaml:"date"`
		Category     string `yaml:"category"`
		Installments int    `yaml:"installments"`
		Recurring    bool   `yaml:"recurring"`
	} `yaml:"purchases"`
}

// DefaultSeed returns the demo data set: two cards and three purchases
// dated today.
func DefaultSeed(today core.Date) Seed {
	return Seed{
		Cards: []core.Card{
			{ID: "1", Name: "Nubank Platinum", Bank: "Nubank", LimitTotal: decimal.NewFromInt(5000), ClosingDay: 5, DueDay: 12, Brand: core.Mastercard, Color: "#820ad1"},
			{ID: "2", Name: "Itaú Personalité", Bank: "Itaú", LimitTotal: decimal.NewFromInt(15000), ClosingDay: 20, DueDay: 28, Brand: core.Visa, Color: "#ff7800"},
		},
		Purchases: []core.Purchase{
			{ID: "e1", CardID: "1", Amount: decimal.RequireFromString("45.90"), Description: "iFood Jantar", Date: today, Category: core.Alimentacao, Installments: 1},
			{ID: "e2", CardID: "1", Amount: decimal.NewFromInt(200), Description: "Posto Shell", Date: today, Category: core.Transporte, Installments: 1},
			{ID: "e3", CardID: "2", Amount: decimal.NewFromInt(1500), Description: "iPhone 15 Pro", Date: today, Category: core.Outros, Installments: 10},
		},
	}
}

// LoadSeedFile reads a YAML seed file. Every card and purchase is validated.
func LoadSeedFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (Seed, error) {
	var raw seedFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}

	var seed Seed
	for i, rc := range raw.Cards {
		limit, err := core.ParseAmount(rc.Limit)
		if err != nil {
			return Seed{}, fmt.Errorf("seed card %d limit: %w", i, err)
		}
		brand, err := core.ParseBrand(rc.Brand)
		if err != nil {
			return Seed{}, fmt.Errorf("seed card %d: %w", i, err)
		}
		c := core.Card{
			ID: rc.ID, Name: rc.Name, Bank: rc.Bank, LimitTotal: limit,
			ClosingDay: rc.ClosingDay, DueDay: rc.DueDay, Brand: brand, Color: rc.Color,
		}
		if err := c.Validate(); err != nil {
			return Seed{}, fmt.Errorf("seed card %d: %w", i, err)
		}
		seed.Cards = append(seed.Cards, c)
	}

	for i, rp := range raw.Purchases {
		amount, err := core.ParseAmount(rp.Amount)
		if err != nil {
			return Seed{}, fmt.Errorf("seed purchase %d amount: %w", i, err)
		}
		date, err := core.ParseDate(rp.Date)
		if err != nil {
			return Seed{}, fmt.Errorf("seed purchase %d: %w", i, err)
		}
		category, err := core.ParseCategory(rp.Category)
		if err != nil {
			return Seed{}, fmt.Errorf("seed purchase %d: %w", i, err)
		}
		installments := rp.Installments
		if installments == 0 {
			installments = 1
		}
		p := core.Purchase{
			ID: rp.ID, CardID: rp.CardID, Amount: amount, Description: rp.Description,
			Date: date, Category: category, Installments: installments, Recurring: rp.Recurring,
		}
		if err := p.Validate(); err != nil {
			return Seed{}, fmt.Errorf("seed purchase %d: %w", i, err)
		}
		seed.Purchases = append(seed.Purchases, p)
	}
	return seed, nil
}

// ApplySeed loads seed into s when s holds no cards and no purchases.
// It reports whether anything was written.
func ApplySeed(ctx context.Context, s Store, seed Seed) (bool, error) {
	cards, err := s.ListCards(ctx)
	if err != nil {
		return false, err
	}
	purchases, err := s.ListPurchases(ctx)
	if err != nil {
		return false, err
	}
	if len(cards) > 0 || len(purchases) > 0 {
		return false, nil
	}

	for _, c := range seed.Cards {
		if err := s.CreateCard(ctx, c); err != nil {
			return false, fmt.Errorf("seed card %s: %w", c.ID, err)
		}
	}
	for _, p := range seed.Purchases {
		if err := s.CreatePurchase(ctx, p); err != nil {
			return false, fmt.Errorf("seed purchase %s: %w", p.ID, err)
		}
	}

	slog.InfoContext(ctx, "Store seeded", "cards", len(seed.Cards), "purchases", len(seed.Purchases))
	return true, nil
}
