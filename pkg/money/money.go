// Package money normalizes fixed-point prices at the boundary where floats or
// strings enter the store.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept for every price.
const Places = 2

var (
	// MaxPrice is the inclusive upper bound for a product price.
	MaxPrice = decimal.NewFromInt(1_000_000)
	zero     = decimal.Zero
)

// Normalize quantizes d to two places using banker's rounding.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Places)
}

// FromFloat converts a float price using its shortest decimal representation
// before quantizing, so 19.99 never becomes 19.98999.
func FromFloat(f float64) decimal.Decimal {
	return Normalize(decimal.NewFromFloat(f))
}

// Parse reads a decimal string and quantizes it.
func Parse(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse price %q: %w", raw, err)
	}
	return Normalize(d), nil
}

// Format renders d with exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixedBank(Places)
}

// InRange reports whether 0 < d <= MaxPrice.
func InRange(d decimal.Decimal) bool {
	return d.GreaterThan(zero) && d.LessThanOrEqual(MaxPrice)
}

// Amount is a price that accepts JSON numbers or strings and always renders as
// a two-digit string.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: Normalize(d)}
}

// String renders the amount with exactly two decimals.
func (a Amount) String() string {
	return Format(a.Decimal)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(Format(a.Decimal))
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	d, err := Parse(raw)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}
