// Package money provides integer-cents monetary helpers for the import
// pipeline. Amounts live as non-negative minor units (centavos) with the
// sign carried by the transaction type, so arithmetic stays exact.
package money

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// BRL is the currency every statement in the target locale settles in.
const BRL = "BRL"

// ParseCents converts a decimal amount string (OFX TRNAMT) into minor units,
// rounding half away from zero. The returned value is the magnitude; the
// caller keeps the sign separately.
func ParseCents(raw string) (int64, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	// Some exports use a decimal comma.
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}

	cents := d.Abs().Mul(decimal.NewFromInt(100)).Round(0)
	return cents.IntPart(), nil
}

// IsNegative reports whether the decimal amount string parses as negative.
func IsNegative(raw string) bool {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return false
	}
	return d.IsNegative()
}

// FormatBRL renders minor units as a display string, e.g. "R$1.234,56".
func FormatBRL(cents int64) string {
	return gomoney.New(cents, BRL).Display()
}

// SumCents adds a slice of minor-unit amounts.
func SumCents(amounts []int64) int64 {
	var total int64
	for _, a := range amounts {
		total += a
	}
	return total
}
