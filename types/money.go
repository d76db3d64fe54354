// Package types provides the value types shared across treasury packages.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency codes handled by the fixed tills.
const (
	CurrencyLYD = "LYD"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyTND = "TND"
)

// Money represents a monetary value in the smallest currency unit.
// All arithmetic is integer-only. The number of minor digits comes from the
// ISO 4217 table: LYD and TND carry three, USD and EUR two.
//
// Examples:
//   - LYD(1500)  = 1.500 LYD
//   - USD(4900)  = 49.00 USD
type Money struct {
	Amount   int64  `json:"amount"`   // Smallest unit (dirham, cent, millime)
	Currency string `json:"currency"` // ISO 4217 uppercase: "LYD", "USD"
}

// New creates a Money value from minor units.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}
}

// LYD creates a Money value in Libyan dinars (dirhams).
func LYD(dirhams int64) Money { return Money{Amount: dirhams, Currency: CurrencyLYD} }

// USD creates a Money value in US dollars (cents).
func USD(cents int64) Money { return Money{Amount: cents, Currency: CurrencyUSD} }

// EUR creates a Money value in euros (cents).
func EUR(cents int64) Money { return Money{Amount: cents, Currency: CurrencyEUR} }

// TND creates a Money value in Tunisian dinars (millimes).
func TND(millimes int64) Money { return Money{Amount: millimes, Currency: CurrencyTND} }

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money { return Money{Amount: 0, Currency: strings.ToUpper(currency)} }

// CanonicalCurrency returns code the way it is stored: trimmed, upper case.
func CanonicalCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// KnownCurrency reports whether code is an ISO 4217 currency.
func KnownCurrency(code string) bool {
	return code != "" && money.GetCurrency(strings.ToUpper(code)) != nil
}

// Fraction returns the number of minor digits of a currency (2 when unknown).
func Fraction(currency string) int {
	if c := money.GetCurrency(strings.ToUpper(currency)); c != nil {
		return c.Fraction
	}
	return 2
}

// FromDecimal converts a major-unit decimal into Money, rounding half away
// from zero to the currency's minor unit.
func FromDecimal(major decimal.Decimal, currency string) Money {
	frac := int32(Fraction(currency))
	minor := major.Shift(frac).Round(0)
	return New(minor.IntPart(), currency)
}

// ParseMajor parses a major-unit amount such as "12.5" into Money.
func ParseMajor(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	if !KnownCurrency(currency) {
		return Money{}, fmt.Errorf("money: unknown currency %q", currency)
	}
	return FromDecimal(d, currency), nil
}

// Decimal returns the value in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -int32(Fraction(m.Currency)))
}

// Arithmetic operations

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Multiply multiplies the Money by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// Convert converts m into another currency at rate (target units per one
// unit of m), rounding to the target's minor unit.
func (m Money) Convert(rate decimal.Decimal, currency string) Money {
	return FromDecimal(m.Decimal().Mul(rate), currency)
}

// Percent returns pct percent of m, rounded to the minor unit.
func (m Money) Percent(pct decimal.Decimal) Money {
	return FromDecimal(m.Decimal().Mul(pct).Div(decimal.NewFromInt(100)), m.Currency)
}

// Ratio returns m / other in major units, for example a cost per dollar.
// It returns zero when other is zero.
func (m Money) Ratio(other Money) decimal.Decimal {
	if other.IsZero() {
		return decimal.Zero
	}
	return m.Decimal().DivRound(other.Decimal(), 6)
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m.Amount < 0 {
		return Money{Amount: -m.Amount, Currency: m.Currency}
	}
	return m
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both Money values are equal (same amount and currency).
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// LessThan returns true if this Money is less than other. Panics if currencies don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount < other.Amount
}

// GreaterThan returns true if this Money is greater than other. Panics if currencies don't match.
func (m Money) GreaterThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount > other.Amount
}

// Min returns the smaller of two Money values. Panics if currencies don't match.
func (m Money) Min(other Money) Money {
	m.assertSameCurrency(other)
	if m.Amount < other.Amount {
		return m
	}
	return other
}

// Max returns the larger of two Money values. Panics if currencies don't match.
func (m Money) Max(other Money) Money {
	m.assertSameCurrency(other)
	if m.Amount > other.Amount {
		return m
	}
	return other
}

// Formatting methods

// FormatMajor returns the major unit string without currency code,
// e.g. "49.00" for USD(4900) and "1.500" for LYD(1500).
func (m Money) FormatMajor() string {
	return m.Decimal().StringFixed(int32(Fraction(m.Currency)))
}

// String returns the amount followed by its currency code: "1.500 LYD".
func (m Money) String() string {
	return m.FormatMajor() + " " + m.Currency
}

// Display returns the localized rendering from the ISO table, with grouping
// and the currency grapheme.
func (m Money) Display() string {
	if !KnownCurrency(m.Currency) {
		return m.String()
	}
	return money.New(m.Amount, m.Currency).Display()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The currency code is stored in
// canonical form; the display field written by MarshalJSON is ignored.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Amount = raw.Amount
	m.Currency = CanonicalCurrency(raw.Currency)
	return nil
}

// Helper functions

// assertSameCurrency panics if currencies don't match.
func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

// Sum calculates the sum of multiple Money values in currency.
func Sum(currency string, values ...Money) Money {
	result := Zero(currency)
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
