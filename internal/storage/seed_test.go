package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"crediflow/internal/core"
)

const invalidAmountSeed = `
cards:
  - id: nu
    name: Nubank Platinum
    bank: Nubank
    limit: "5000"
    closing_day: 5
    due_day: 12
    brand: mastercard
    color: "#820ad1"
purchases:
  - id: p1
    card_id: nu
    amount: "1.500,00"
    description: bad amount
    date: 2024-05-10
    category: Outros
`

func TestParseSeed(t *testing.T) {
	data := []byte(`
cards:
  - id: nu
    name: Nubank Platinum
    bank: Nubank
    limit: "5000"
    closing_day: 5
    due_day: 12
    brand: mastercard
    color: "#820ad1"
purchases:
  - id: p1
    card_id: nu
    amount: "45,90"
    description: iFood Jantar
    date: 2024-05-10
    category: Alimentação
  - id: p2
    card_id: nu
    amount: "1500"
    description: iPhone 15 Pro
    date: 2024-05-11
    category: Outros
    installments: 10
`)
	seed, err := ParseSeed(data)
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if len(seed.Cards) != 1 || seed.Cards[0].Brand != core.Mastercard || !seed.Cards[0].LimitTotal.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("cards = %+v", seed.Cards)
	}
	if len(seed.Purchases) != 2 {
		t.Fatalf("purchases = %+v", seed.Purchases)
	}
	p1 := seed.Purchases[0]
	if !p1.Amount.Equal(decimal.RequireFromString("45.90")) || p1.Installments != 1 || p1.Category != core.Alimentacao {
		t.Errorf("p1 = %+v", p1)
	}
	if !p1.Date.Equal(core.NewDate(2024, 5, 10).Time) {
		t.Errorf("p1 date = %s", p1.Date)
	}
	if seed.Purchases[1].Installments != 10 {
		t.Errorf("p2 installments = %d", seed.Purchases[1].Installments)
	}
}

func TestParseSeedRejectsInvalid(t *testing.T) {
	if _, err := ParseSeed([]byte(invalidAmountSeed)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if _, err := ParseSeed([]byte("cards: [")); err == nil {
		t.Fatal("expected YAML error")
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("cards: []\npurchases: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	seed, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if len(seed.Cards) != 0 || len(seed.Purchases) != 0 {
		t.Errorf("seed = %+v", seed)
	}
	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaultSeedIsValid(t *testing.T) {
	seed := DefaultSeed(core.NewDate(2024, 5, 10))
	for _, c := range seed.Cards {
		if err := c.Validate(); err != nil {
			t.Errorf("card %s: %v", c.ID, err)
		}
	}
	for _, p := range seed.Purchases {
		if err := p.Validate(); err != nil {
			t.Errorf("purchase %s: %v", p.ID, err)
		}
	}
}
