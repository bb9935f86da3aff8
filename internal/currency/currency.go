// Package currency converts dinar amounts to and from US dollars for display.
// The ledger itself only ever stores whole dinars; conversion is presentation
// and never feeds back into settlement math.
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Converter struct {
	rate decimal.Decimal
}

// NewConverter builds a converter for the given IQD-per-USD rate.
func NewConverter(iqdPerUSD int64) (Converter, error) {
	if iqdPerUSD <= 0 {
		return Converter{}, fmt.Errorf("exchange rate must be positive, got %d", iqdPerUSD)
	}
	return Converter{rate: decimal.NewFromInt(iqdPerUSD)}, nil
}

// ToUSD converts a dinar amount to dollars, rounded to cents.
func (c Converter) ToUSD(iqd int64) decimal.Decimal {
	return decimal.NewFromInt(iqd).DivRound(c.rate, 2)
}

// FromUSD converts a dollar amount to whole dinars, rounding half away from
// zero.
func (c Converter) FromUSD(usd decimal.Decimal) int64 {
	return usd.Mul(c.rate).Round(0).IntPart()
}

// FormatUSD renders a dinar amount as a dollar string, e.g. "$4.76".
func (c Converter) FormatUSD(iqd int64) string {
	return "$" + c.ToUSD(iqd).StringFixed(2)
}
