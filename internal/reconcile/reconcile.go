// Package reconcile turns the figures a station manager enters into complete report rows.
// All functions are pure; persisting the result is up to the caller.
package reconcile

import (
	"errors"
	"strings"
	"time"

	"github.com/andymarkow/fueltracker/internal/domain/reports"
	"github.com/shopspring/decimal"
)

const (
	// CurrencyPlaces is the precision of computed money amounts.
	CurrencyPlaces = 2

	// MaxStockLiters bounds every stock quantity so opening + received cannot overflow.
	MaxStockLiters int64 = 1_000_000_000_000
)

type DailyInput struct {
	Date          time.Time
	StationID     string
	TankID        string
	Opening       int64
	Received      int64
	Sales         int64
	Closing       int64
	PricePerLiter decimal.Decimal
}

// ComputeDailyTankRow validates a daily tank entry and derives its balance and revenue:
//
//	balance = opening + received - sales
//	revenue = price_per_liter * sales
func ComputeDailyTankRow(in DailyInput) (reports.DailyTankReport, error) {
	var errs []error

	errs = append(errs, validateHeader(in.Date, in.StationID)...)

	tank, err := reports.ParseTankID(in.TankID)
	if err != nil {
		errs = append(errs, newValidationError("tank_id", "must be one of Tank 1..Tank 4"))
	}

	errs = append(errs,
		nonNegativeInt("opening", in.Opening),
		nonNegativeInt("received", in.Received),
		nonNegativeInt("sales", in.Sales),
		nonNegativeInt("closing", in.Closing),
		nonNegativeDecimal("price_per_liter", in.PricePerLiter),
	)

	if err := errors.Join(errs...); err != nil {
		return reports.DailyTankReport{}, err
	}

	return reports.DailyTankReport{
		Date:          dateOnly(in.Date),
		StationID:     strings.TrimSpace(in.StationID),
		TankID:        tank,
		Opening:       in.Opening,
		Received:      in.Received,
		Sales:         in.Sales,
		Closing:       in.Closing,
		Balance:       in.Opening + in.Received - in.Sales,
		PricePerLiter: in.PricePerLiter,
		Revenue:       in.PricePerLiter.Mul(decimal.NewFromInt(in.Sales)).Round(CurrencyPlaces),
	}, nil
}

type PumpInput struct {
	Date          time.Time
	StationID     string
	TankID        string
	PumpID        string
	PricePerLiter decimal.Decimal
	OpenMeter     decimal.Decimal
	CloseMeter    decimal.Decimal

	// ExpectedLiters and ExpectedCash override the computed defaults when set.
	ExpectedLiters *decimal.Decimal
	ExpectedCash   *decimal.Decimal

	Expenses   decimal.Decimal
	CashAtHand decimal.Decimal
}

// Suggestion holds the default expected figures for a pump reading.
type Suggestion struct {
	ExpectedLiters decimal.Decimal
	ExpectedCash   decimal.Decimal
}

// SuggestPump computes the defaults offered to the manager before submission:
//
//	expected_liters = close_meter - open_meter
//	expected_cash   = expected_liters * price_per_liter
func SuggestPump(openMeter, closeMeter, price decimal.Decimal) (Suggestion, error) {
	err := errors.Join(
		nonNegativeDecimal("open_meter", openMeter),
		nonNegativeDecimal("price_per_liter", price),
		meterOrder(openMeter, closeMeter),
	)
	if err != nil {
		return Suggestion{}, err
	}

	liters := closeMeter.Sub(openMeter)

	return Suggestion{
		ExpectedLiters: liters,
		ExpectedCash:   liters.Mul(price).Round(CurrencyPlaces),
	}, nil
}

// ComputePumpRow validates a pump entry and fills in expected liters and cash. Overrides
// given in the input are used verbatim.
func ComputePumpRow(in PumpInput) (reports.PumpReport, error) {
	var errs []error

	errs = append(errs, validateHeader(in.Date, in.StationID)...)

	tank, err := reports.ParseTankID(in.TankID)
	if err != nil {
		errs = append(errs, newValidationError("tank_id", "must be one of Tank 1..Tank 4"))
	}

	pump, err := reports.ParsePumpID(in.PumpID)
	if err != nil {
		errs = append(errs, newValidationError("pump_id", "must be one of Pump A..Pump D"))
	}

	errs = append(errs,
		nonNegativeDecimal("price_per_liter", in.PricePerLiter),
		nonNegativeDecimal("open_meter", in.OpenMeter),
		meterOrder(in.OpenMeter, in.CloseMeter),
		nonNegativeDecimal("expenses", in.Expenses),
		nonNegativeDecimal("cash_at_hand", in.CashAtHand),
	)

	if in.ExpectedLiters != nil {
		errs = append(errs, nonNegativeDecimal("expected_liters", *in.ExpectedLiters))
	}

	if in.ExpectedCash != nil {
		errs = append(errs, nonNegativeDecimal("expected_cash", *in.ExpectedCash))
	}

	if err := errors.Join(errs...); err != nil {
		return reports.PumpReport{}, err
	}

	liters := in.CloseMeter.Sub(in.OpenMeter)
	if in.ExpectedLiters != nil {
		liters = *in.ExpectedLiters
	}

	cash := liters.Mul(in.PricePerLiter).Round(CurrencyPlaces)
	if in.ExpectedCash != nil {
		cash = *in.ExpectedCash
	}

	return reports.PumpReport{
		Date:           dateOnly(in.Date),
		StationID:      strings.TrimSpace(in.StationID),
		TankID:         tank,
		PumpID:         pump,
		PricePerLiter:  in.PricePerLiter,
		OpenMeter:      in.OpenMeter,
		CloseMeter:     in.CloseMeter,
		ExpectedLiters: liters,
		ExpectedCash:   cash,
		Expenses:       in.Expenses,
		CashAtHand:     in.CashAtHand,
	}, nil
}

func validateHeader(date time.Time, stationID string) []error {
	var errs []error

	if date.IsZero() {
		errs = append(errs, newValidationError("date", "is required"))
	}

	if strings.TrimSpace(stationID) == "" {
		errs = append(errs, newValidationError("station_id", "is required"))
	}

	return errs
}

func nonNegativeInt(field string, v int64) error {
	if v < 0 {
		return newValidationError(field, "must not be negative")
	}

	if v > MaxStockLiters {
		return newValidationError(field, "is out of range")
	}

	return nil
}

func nonNegativeDecimal(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return newValidationError(field, "must not be negative")
	}

	return nil
}

func meterOrder(openMeter, closeMeter decimal.Decimal) error {
	if closeMeter.LessThan(openMeter) {
		return newValidationError("close_meter", "must not be less than open_meter")
	}

	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
