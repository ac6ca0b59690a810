// Package core provides the ledger domain model: money, accounts,
// categories, transactions and the typed errors services return.
//
// Money is kept in integer cents. Parsing and formatting go through
// shopspring/decimal so amounts never pass through float64.
package core

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

var (
	hundred  = decimal.NewFromInt(100)
	maxMoney = decimal.New(math.MaxInt64/100, 0)
	minMoney = decimal.New(-(math.MaxInt64 / 100), 0)

	ErrMalformedAmount   = Validation("malformed amount")
	ErrBalanceOutOfRange = Validation("balance out of range")
)

// ParseMoney parses a decimal string into Money.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. Digits
// beyond the second fractional place are rounded half-up (away from zero):
//
//	ParseMoney("12.345") -> 12.35
//	ParseMoney("12.344") -> 12.34
//	ParseMoney("-3,5")   -> -3.50
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrMalformedAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrMalformedAmount
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal rounds d to cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.GreaterThan(maxMoney) || d.LessThan(minMoney) {
		return Money{}, ErrMalformedAmount
	}
	return Money{Cents: d.Round(2).Mul(hundred).IntPart()}, nil
}

// ParsePositiveMoney parses an amount that must be strictly positive after rounding.
func ParsePositiveMoney(s string) (Money, error) {
	m, err := ParseMoney(s)
	if err != nil {
		return Money{}, err
	}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

func NewMoney(units, cents int64) Money {
	return Money{Cents: units*100 + cents}
}

// Validate requires a strictly positive amount.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

// AddChecked is Add that fails with ErrBalanceOutOfRange instead of wrapping
// past the int64 cent range.
func (m Money) AddChecked(o Money) (Money, error) {
	sum := m.Cents + o.Cents
	if (o.Cents > 0 && sum < m.Cents) || (o.Cents < 0 && sum > m.Cents) {
		return Money{}, ErrBalanceOutOfRange
	}
	return Money{Cents: sum}, nil
}

func (m Money) Neg() Money { return Money{Cents: -m.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

// MarshalJSON encodes money as a fixed two-digit decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a JSON number or a decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "null" {
		return ErrMalformedAmount
	}
	v, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
