package quant

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParsePrice converts a human-entered decimal string (e.g. "2.5") into
// PriceMicros. Used only at the config/UI boundary; precision beyond 6
// fractional digits is rejected rather than silently rounded.
func ParsePrice(s string) (PriceMicros, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	scaled := d.Mul(decimal.NewFromInt(PriceScale))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("price %q exceeds micro precision", s)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("price %q out of range", s)
	}
	return PriceMicros(scaled.IntPart()), nil
}

// ParseAmount converts a human-entered decimal string (e.g. "10") into Sats.
func ParseAmount(s string) (Sats, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	scaled := d.Mul(decimal.NewFromInt(SatScale))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %q exceeds sat precision", s)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return Sats(scaled.IntPart()), nil
}
