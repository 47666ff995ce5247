// Package core provides the domain model for accounts, transactions, budgets
// and the report aggregates derived from them.
//
// This file contains the decimal money type. Amounts travel as decimal strings
// and all arithmetic is exact.
package core

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount bounds shared by every backend. Together they match NUMERIC(20,4).
const (
	MoneyScale     = 4
	MoneyIntDigits = 16

	maxMoneyInput = 64
)

// Money is an exact decimal amount.
type Money struct {
	decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{Decimal: decimal.Zero}

// NewMoney wraps a decimal.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MustMoney parses s and panics on failure. Intended for fixtures and tests.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMoney parses a decimal string. Both dot and comma separators are
// accepted. Amounts with more than MoneyScale decimal places or more than
// MoneyIntDigits whole digits are rejected; exponent notation is expanded
// only after that check.
//
// Examples:
//   ParseMoney("12.34")      -> 12.34
//   ParseMoney("12,34")      -> 12.34
//   ParseMoney("-30")        -> -30
//   ParseMoney("12.340000")  -> 12.34
//   ParseMoney("12.34567")   -> error
//   ParseMoney("1e50000000") -> error
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if len(s) > maxMoneyInput {
		return Money{}, ErrAmountOutOfRange
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d, err = bounded(d)
	if err != nil {
		return Money{}, err
	}
	return Money{Decimal: d}, nil
}

// Validate reports whether m fits the amount bounds.
func (m Money) Validate() error {
	_, err := bounded(m.Decimal)
	return err
}

// bounded checks scale and magnitude from the coefficient and exponent,
// without expanding the number, and drops trailing zeros past MoneyScale.
func bounded(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsZero() {
		return decimal.Zero, nil
	}
	coef := new(big.Int).Abs(d.Coefficient())
	digits := int64(len(coef.String()))
	exp := int64(d.Exponent())

	if exp < -MoneyScale {
		shift := -exp - MoneyScale
		if shift >= digits {
			return decimal.Decimal{}, ErrAmountPrecision
		}
		pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(shift), nil)
		if new(big.Int).Mod(coef, pow).Sign() != 0 {
			return decimal.Decimal{}, ErrAmountPrecision
		}
		d = d.Truncate(MoneyScale)
	}
	if digits+exp > MoneyIntDigits {
		return decimal.Decimal{}, ErrAmountOutOfRange
	}
	return d, nil
}

func (m Money) Add(o Money) Money { return Money{Decimal: m.Decimal.Add(o.Decimal)} }

func (m Money) Sub(o Money) Money { return Money{Decimal: m.Decimal.Sub(o.Decimal)} }

// Equal compares by value, so "120" equals "120.00".
func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.Decimal.IsPositive() }

// String renders the canonical decimal string ("120", "12.5").
func (m Money) String() string { return m.Decimal.String() }

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both JSON strings and bare numbers.
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*m = Zero
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, raw)
		}
		raw = s
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) MarshalYAML() (any, error) {
	return m.String(), nil
}

func (m *Money) UnmarshalText(b []byte) error {
	parsed, err := ParseMoney(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
