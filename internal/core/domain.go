package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

const (
	Alimentacao Category = "Alimentação"
	Transporte  Category = "Transporte"
	Lazer       Category = "Lazer"
	Saude       Category = "Saúde"
	Educacao    Category = "Educação"
	Moradia     Category = "Moradia"
	Assinaturas Category = "Assinaturas"
	Outros      Category = "Outros"
)

const (
	Visa       Brand = "Visa"
	Mastercard Brand = "Mastercard"
	Elo        Brand = "Elo"
	Amex       Brand = "Amex"
	OtherBrand Brand = "Other"
)

type (
	Category string

	Brand string

	// Date is a whole calendar day in UTC.
	Date struct {
		time.Time
	}

	Card struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Bank       string          `json:"bank"`
		LimitTotal decimal.Decimal `json:"limitTotal"`
		ClosingDay int             `json:"closingDay"`
		DueDay     int             `json:"dueDay"`
		Brand      Brand           `json:"brand"`
		Color      string          `json:"color"`
	}

	// Purchase is one charge on a card. Amount covers the whole purchase,
	// not a single installment.
	Purchase struct {
		ID           string          `json:"id"`
		CardID       string          `json:"cardId"`
		Amount       decimal.Decimal `json:"amount"`
		Description  string          `json:"description"`
		Date         Date            `json:"date"`
		Category     Category        `json:"category"`
		Installments int             `json:"installments"`
		Recurring    bool            `json:"recurring"`
	}
)

var (
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrInvalidClosingDay   = errors.New("closing day must be between 1 and 31")
	ErrInvalidDueDay       = errors.New("due day must be between 1 and 31")
	ErrInvalidInstallments = errors.New("installments must be at least 1")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidBrand        = errors.New("invalid card brand")
	ErrInvalidLimit        = errors.New("card limit cannot be negative")
	ErrEmptyName           = errors.New("empty card name")
	ErrEmptyCardID         = errors.New("empty card id")
	ErrInvalidColor        = errors.New("color must be #rrggbb")
	ErrNameTooLong         = errors.New("card name too long (max 100 characters)")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrMissingDate         = errors.New("date cannot be zero")
	ErrUnknownCard         = errors.New("card does not exist")
)

var categories = []Category{Alimentacao, Transporte, Lazer, Saude, Educacao, Moradia, Assinaturas, Outros}

var brands = []Brand{Visa, Mastercard, Elo, Amex, OtherBrand}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Categories returns the closed set of purchase categories in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory validates a category label coming from outside the process.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

func ParseBrand(s string) (Brand, error) {
	s = strings.TrimSpace(s)
	for _, b := range brands {
		if strings.EqualFold(string(b), s) {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBrand, s)
}

func (b Brand) Valid() bool {
	_, err := ParseBrand(string(b))
	return err == nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrMissingDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. A full RFC 3339 timestamp is also
// accepted and truncated to its calendar day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// DaysIn returns the number of days of the given month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return ErrNameTooLong
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return ErrInvalidClosingDay
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidDueDay
	}
	if c.LimitTotal.IsNegative() {
		return ErrInvalidLimit
	}
	if !c.Brand.Valid() {
		return ErrInvalidBrand
	}
	if c.Color != "" && !colorPattern.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

// Validate checks a purchase at the input boundary. The amount sign is not
// checked: negative amounts are credits or corrections.
func (p Purchase) Validate() error {
	if strings.TrimSpace(p.CardID) == "" {
		return ErrEmptyCardID
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(p.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(p.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if p.Installments < 1 {
		return ErrInvalidInstallments
	}
	if !p.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// IsValidation reports whether err comes from input validation.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidDay, ErrInvalidMonth, ErrInvalidAmount, ErrEmptyDescription,
		ErrInvalidClosingDay, ErrInvalidDueDay, ErrInvalidInstallments,
		ErrInvalidCategory, ErrInvalidBrand, ErrInvalidLimit, ErrEmptyName,
		ErrEmptyCardID, ErrInvalidColor, ErrNameTooLong, ErrDescriptionTooLong,
		ErrMissingDate, ErrUnknownCard,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
