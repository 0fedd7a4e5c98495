package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"crediflow/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db            *sql.DB
	schemaVersion uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("SQLite repository ready", "db_path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db, schemaVersion: version}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SchemaVersion returns the migration version applied at startup.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

const cardColumns = `id, name, bank, limit_total, closing_day, due_day, brand, color`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (core.Card, error) {
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

func (r *SQLiteRepository) ListCards(ctx context.Context) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY seq`)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

func (r *SQLiteRepository) GetCard(ctx context.Context, id string) (core.Card, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Card{}, fmt.Errorf("card %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Card{}, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.Card) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO cards (id, name, bank, limit_total, closing_day, due_day, brand, color)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Bank, c.LimitTotal.String(), c.ClosingDay, c.DueDay, string(c.Brand), c.Color)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("card %s: %w", c.ID, ErrDuplicate)
		}
		return fmt.Errorf("create card: %w", err)
	}

	slog.InfoContext(ctx, "Card saved to SQLite",
		"id", c.ID,
		"name", c.Name,
		"closing_day", c.ClosingDay)
	return nil
}

func (r *SQLiteRepository) UpdateCard(ctx context.Context, c core.Card) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE cards
SET name = ?, bank = ?, limit_total = ?, closing_day = ?, due_day = ?, brand = ?, color = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?`,
		c.Name, c.Bank, c.LimitTotal.String(), c.ClosingDay, c.DueDay, string(c.Brand), c.Color, c.ID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("card %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, id string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete card: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("card %s: %w", id, ErrNotFound)
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM purchases WHERE card_id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete card purchases: %w", err)
	}
	removed, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete card: %w", err)
	}

	slog.InfoContext(ctx, "Card deleted from SQLite", "id", id, "purchases_removed", removed)
	return int(removed), nil
}

func (r *SQLiteRepository) ListPurchases(ctx context.Context) ([]core.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, card_id, amount, description, purchase_date, category, installments, recurring
FROM purchases
ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []core.Purchase{}
	for rows.Next() {
		var (
			p         core.Purchase
			amount    string
			date      string
			category  string
			recurring int
		)
		if err := rows.Scan(&p.ID, &p.CardID, &amount, &p.Description, &date, &category, &p.Installments, &recurring); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("purchase %s: parse amount %q: %w", p.ID, amount, err)
		}
		if p.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("purchase %s: %w", p.ID, err)
		}
		p.Category = core.Category(category)
		p.Recurring = recurring != 0
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}
	return purchases, nil
}

func (r *SQLiteRepository) CreatePurchase(ctx context.Context, p core.Purchase) error {
	recurring := 0
	if p.Recurring {
		recurring = 1
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO purchases (id, card_id, amount, description, purchase_date, category, installments, recurring)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CardID, p.Amount.String(), p.Description, p.Date.String(), string(p.Category), p.Installments, recurring)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("purchase %s: %w", p.ID, ErrDuplicate)
		}
		return fmt.Errorf("create purchase: %w", err)
	}

	slog.InfoContext(ctx, "Purchase saved to SQLite",
		"id", p.ID,
		"card_id", p.CardID,
		"amount", p.Amount.String(),
		"installments", p.Installments,
		"date", p.Date.String())
	return nil
}

func (r *SQLiteRepository) DeletePurchase(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM purchases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("purchase %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Reset(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"purchases", "cards"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}

	slog.WarnContext(ctx, "All cards and purchases deleted from SQLite")
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
