package recordstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical cell format for calendar dates.
const DateLayout = "2006-01-02"

var (
	ErrEmptyCell   = errors.New("cell is empty")
	ErrInvalidCell = errors.New("cell value is invalid")
)

// NormalizeRow converts row values into the primitive cell types every backend can store:
// string, int64, float64 and bool.
func NormalizeRow(row []any) []any {
	out := make([]any, len(row))

	for i, v := range row {
		out[i] = normalizeValue(v)
	}

	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return val.InexactFloat64()
	case *decimal.Decimal:
		if val == nil {
			return ""
		}

		return val.InexactFloat64()
	case time.Time:
		return val.Format(DateLayout)
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	case fmt.Stringer:
		return val.String()
	default:
		return val
	}
}

// String renders a cell value as text. Whole floats are printed without a fraction so that
// a numeric password or station ID reads back the way it was typed.
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(DateLayout)
	default:
		return fmt.Sprint(val)
	}
}

// Int reads a whole number from a cell.
func Int(v any) (int64, error) {
	switch val := v.(type) {
	case nil:
		return 0, ErrEmptyCell
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case int32:
		return int64(val), nil
	case float64:
		if val != float64(int64(val)) {
			return 0, fmt.Errorf("%w: %v is not a whole number", ErrInvalidCell, val)
		}

		return int64(val), nil
	}

	d, err := Decimal(v)
	if err != nil {
		return 0, err
	}

	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %s is not a whole number", ErrInvalidCell, d)
	}

	return d.IntPart(), nil
}

// Decimal reads a number from a cell.
func Decimal(v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, ErrEmptyCell
	case decimal.Decimal:
		return val, nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case int32:
		return decimal.NewFromInt32(val), nil
	case float64:
		return decimal.NewFromFloat(val), nil
	case float32:
		return decimal.NewFromFloat32(val), nil
	case []byte:
		return parseDecimal(string(val))
	case string:
		return parseDecimal(val)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidCell, v)
	}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmptyCell
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}

	return d, nil
}

// Date reads a canonical YYYY-MM-DD date from a cell.
func Date(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return time.Date(val.Year(), val.Month(), val.Day(), 0, 0, 0, 0, time.UTC), nil
	case float64:
		return serialDate(val)
	case int64:
		return serialDate(float64(val))
	case int:
		return serialDate(float64(val))
	}

	s := strings.TrimSpace(String(v))
	if s == "" {
		return time.Time{}, ErrEmptyCell
	}

	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not %s", ErrInvalidCell, s, DateLayout)
	}

	return t, nil
}

const maxSerialDate = 2958465 // 9999-12-31

var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// serialDate converts a spreadsheet serial day number into a date. The fraction is the time
// of day and is dropped.
func serialDate(serial float64) (time.Time, error) {
	if serial < 1 || serial > maxSerialDate {
		return time.Time{}, fmt.Errorf("%w: %v is not a serial date", ErrInvalidCell, serial)
	}

	return serialEpoch.AddDate(0, 0, int(serial)), nil
}
