package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError rejects a single input field. Submissions with validation errors are
// never persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Fields flattens err into the validation errors it carries, in order.
func Fields(err error) []*ValidationError {
	var out []*ValidationError

	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}

		if ve, ok := e.(*ValidationError); ok { //nolint:errorlint
			out = append(out, ve)

			return
		}

		switch u := e.(type) { //nolint:errorlint
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}

	walk(err)

	return out
}

// ParseStock reads a stock quantity in whole liters, at most MaxStockLiters. Empty,
// non-numeric, fractional and negative input is rejected rather than taken as zero.
func ParseStock(field, raw string) (int64, error) {
	d, err := ParseAmount(field, raw)
	if err != nil {
		return 0, err
	}

	if !d.IsInteger() {
		return 0, newValidationError(field, "must be a whole number of liters")
	}

	if d.GreaterThan(decimal.NewFromInt(MaxStockLiters)) {
		return 0, newValidationError(field, "is out of range")
	}

	return d.IntPart(), nil
}

// ParseAmount reads a non-negative decimal amount such as a price, meter reading or cash sum.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, newValidationError(field, "is required")
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, newValidationError(field, "must be a number")
	}

	if d.IsNegative() {
		return decimal.Zero, newValidationError(field, "must not be negative")
	}

	return d, nil
}

// ParseDate reads a report date as YYYY-MM-DD. An empty value means today.
func ParseDate(field, raw string, today time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return dateOnly(today), nil
	}

	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, newValidationError(field, "must be formatted as YYYY-MM-DD")
	}

	return t, nil
}
