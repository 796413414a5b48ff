package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseQuantity converts user input into a non-negative decimal. A comma is
// accepted as decimal separator when the value carries no dot.
func ParseQuantity(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, fmt.Errorf("%w: quantity is required", ErrValidation)
	}
	if !strings.Contains(value, ".") {
		value = strings.Replace(value, ",", ".", 1)
	}

	qty, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: quantity %q is not a number", ErrValidation, raw)
	}
	if err := ValidateQuantity(qty); err != nil {
		return decimal.Zero, err
	}
	return qty, nil
}

// Quantities are stored as decimal(20,4).
const (
	QuantityScale         = 4
	QuantityIntegerDigits = 16
)

// ValidateQuantity rejects values that do not fit decimal(20,4) and
// negative quantities.
func ValidateQuantity(qty decimal.Decimal) error {
	if err := ValidatePrecision(qty); err != nil {
		return err
	}
	if qty.IsNegative() {
		return fmt.Errorf("%w: quantity must be zero or greater, got %s", ErrValidation, qty.String())
	}
	return nil
}

// ValidatePrecision reports whether qty fits decimal(20,4). It reads the
// coefficient and exponent directly so absurd exponents such as 1e400 are
// rejected without being expanded.
func ValidatePrecision(qty decimal.Decimal) error {
	digits := strings.TrimLeft(qty.Coefficient().String(), "-")
	trimmed := strings.TrimRight(digits, "0")
	if trimmed == "" {
		return nil
	}
	exp := int64(qty.Exponent()) + int64(len(digits)-len(trimmed))

	if int64(len(trimmed))+exp > QuantityIntegerDigits {
		return fmt.Errorf("%w: quantity exceeds %d integer digits", ErrValidation, QuantityIntegerDigits)
	}
	if exp < -QuantityScale {
		return fmt.Errorf("%w: quantity has more than %d decimal places", ErrValidation, QuantityScale)
	}
	return nil
}
