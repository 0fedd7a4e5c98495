// Package postgres stores cards and purchases in PostgreSQL through pgxpool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"crediflow/internal/core"
	"crediflow/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

// New connects to url and makes sure the schema exists.
func New(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}
	slog.InfoContext(ctx, "Postgres store ready")
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanCard(row pgx.Row) (core.Card, error) {
	var (
		c     core.Card
		limit string
		brand string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Bank, &limit, &c.ClosingDay, &c.DueDay, &brand, &c.Color); err != nil {
		return core.Card{}, err
	}
	l, err := decimal.NewFromString(limit)
	if err != nil {
		return core.Card{}, fmt.Errorf("card %s: parse limit %q: %w", c.ID, limit, err)
	}
	c.LimitTotal = l
	c.Brand = core.Brand(brand)
	return c, nil
}

const cardQuery = `SELECT id, name, bank, limit_total::text, closing_day, due_day, brand, color FROM cards`

func (s *Store) ListCards(ctx context.Context) ([]core.Card, error) {
	rows, err := s.pool.Query(ctx, cardQuery+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := []core.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (s *Store) GetCard(ctx context.Context, id string) (core.Card, error) {
	c, err := scanCard(s.pool.QueryRow(ctx, cardQuery+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Card{}, fmt.Errorf("card %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return core.Card{}, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

func (s *Store) CreateCard(ctx context.Context, c core.Card) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO cards (id, name, bank, limit_total, closing_day, due_day, brand, color)
VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Bank, c.LimitTotal.String(), c.ClosingDay, c.DueDay, string(c.Brand), c.Color)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("card %s: %w", c.ID, storage.ErrDuplicate)
		}
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

func (s *Store) UpdateCard(ctx context.Context, c core.Card) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE cards
SET name = $2, bank = $3, limit_total = $4::text::numeric, closing_day = $5, due_day = $6, brand = $7, color = $8,
    updated_at = now()
WHERE id = $1`,
		c.ID, c.Name, c.Bank, c.LimitTotal.String(), c.ClosingDay, c.DueDay, string(c.Brand), c.Color)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card %s: %w", c.ID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteCard(ctx context.Context, id string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin delete card: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("card %s: %w", id, storage.ErrNotFound)
	}
	tag, err = tx.Exec(ctx, `DELETE FROM purchases WHERE card_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete card purchases: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit delete card: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) ListPurchases(ctx context.Context) ([]core.Purchase, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, card_id, amount::text, description, purchase_date, category, installments, recurring
FROM purchases
ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []core.Purchase{}
	for rows.Next() {
		var (
			p        core.Purchase
			amount   string
			category string
		)
		if err := rows.Scan(&p.ID, &p.CardID, &amount, &p.Description, &p.Date.Time, &category, &p.Installments, &p.Recurring); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("purchase %s: parse amount %q: %w", p.ID, amount, err)
		}
		p.Date = core.NewDate(p.Date.Year(), p.Date.Month(), p.Date.Day())
		p.Category = core.Category(category)
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (s *Store) CreatePurchase(ctx context.Context, p core.Purchase) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO purchases (id, card_id, amount, description, purchase_date, category, installments, recurring)
VALUES ($1, $2, $3::text::numeric, $4, $5, $6, $7, $8)`,
		p.ID, p.CardID, p.Amount.String(), p.Description, p.Date.Time, string(p.Category), p.Installments, p.Recurring)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("purchase %s: %w", p.ID, storage.ErrDuplicate)
		}
		return fmt.Errorf("create purchase: %w", err)
	}
	return nil
}

func (s *Store) DeletePurchase(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE purchases, cards`); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	slog.WarnContext(ctx, "All cards and purchases deleted from Postgres")
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
