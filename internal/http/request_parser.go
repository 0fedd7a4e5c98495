// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// period query parameters and request bodies sent either as JSON or as
// form-encoded data.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"crediflow/internal/billing"
	"crediflow/internal/core"
)

const maxBodyBytes = 1 << 20

// errInvalidInput marks malformed requests, answered with 400.
var errInvalidInput = errors.New("invalid input")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, falling
// back to today's month. Non-numeric values are rejected rather than
// ignored; a month outside 1..12 yields core.ErrInvalidMonth.
func ParseMonthParams(query url.Values, today core.YearMonth) (MonthParams, error) {
	params := MonthParams{Year: today.Year, Month: today.Month}

	year, err := ParseYearParam(query, today.Year)
	if err != nil {
		return MonthParams{}, err
	}
	params.Year = year

	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, fmt.Errorf("%w: month %q", errInvalidInput, v)
		}
		params.Month = m
	}
	if params.Month < 1 || params.Month > 12 {
		return MonthParams{}, fmt.Errorf("month %d: %w", params.Month, core.ErrInvalidMonth)
	}
	return params, nil
}

// ParseYearParam reads the year query parameter, defaulting to def.
func ParseYearParam(query url.Values, def int) (int, error) {
	v := strings.TrimSpace(query.Get("year"))
	if v == "" {
		return def, nil
	}
	y, err := strconv.Atoi(v)
	if err != nil || y < 1 || y > 9999 {
		return 0, fmt.Errorf("%w: year %q", errInvalidInput, v)
	}
	return y, nil
}

// ParseCardFilter reads the card query parameter. Empty means all cards.
func ParseCardFilter(query url.Values) billing.CardFilter {
	v := strings.TrimSpace(query.Get("card"))
	if v == "" {
		return billing.AllCards
	}
	return billing.CardFilter(v)
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("%w: body larger than %d bytes", errInvalidInput, maxBodyBytes)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("%w: %v", errInvalidInput, err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(body))
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errInvalidInput, p.err)
	}
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// Int returns key as an integer, or def when the key is absent.
func (p *RequestBodyParser) Int(key string, def int) (int, error) {
	v := p.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", errInvalidInput, key, v)
	}
	return n, nil
}

// Bool returns key as a boolean; absent means false.
func (p *RequestBodyParser) Bool(key string) (bool, error) {
	v := p.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		if v == "on" {
			return true, nil
		}
		return false, fmt.Errorf("%w: %s %q", errInvalidInput, key, v)
	}
	return b, nil
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// cardFromRequest builds a card from a create or update body.
func cardFromRequest(p *RequestBodyParser) (core.Card, error) {
	c := core.Card{
		Name:  p.Get("name"),
		Bank:  p.Get("bank"),
		Color: p.Get("color"),
	}

	c.LimitTotal = decimal.Zero
	if v := p.Get("limitTotal"); v != "" {
		limit, err := core.ParseAmount(v)
		if err != nil {
			return core.Card{}, err
		}
		c.LimitTotal = limit
	}

	var err error
	if c.ClosingDay, err = p.Int("closingDay", 0); err != nil {
		return core.Card{}, err
	}
	if c.DueDay, err = p.Int("dueDay", 0); err != nil {
		return core.Card{}, err
	}
	if v := p.Get("brand"); v != "" {
		if c.Brand, err = core.ParseBrand(v); err != nil {
			return core.Card{}, err
		}
	}
	return c, nil
}

// purchaseFromRequest builds a purchase from a create body. Installments
// default to one.
func purchaseFromRequest(p *RequestBodyParser) (core.Purchase, error) {
	pur := core.Purchase{
		CardID:      p.Get("cardId"),
		Description: p.Get("description"),
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Purchase{}, err
	}
	pur.Amount = amount

	if v := p.Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Purchase{}, fmt.Errorf("%w: %v", errInvalidInput, err)
		}
		pur.Date = d
	}
	if pur.Category, err = core.ParseCategory(p.Get("category")); err != nil {
		return core.Purchase{}, err
	}
	if pur.Installments, err = p.Int("installments", 1); err != nil {
		return core.Purchase{}, err
	}
	if pur.Recurring, err = p.Bool("recurring"); err != nil {
		return core.Purchase{}, err
	}
	return pur, nil
}
