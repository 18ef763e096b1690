// Package reports holds the two append-only ledgers a station manager submits: the daily
// per-tank stock report and the per-pump meter and cash report.
package reports

import (
	"errors"
	"fmt"
	"time"

	"github.com/andymarkow/fueltracker/internal/recordstore"
	"github.com/shopspring/decimal"
)

// DateLayout is the canonical report date format.
const DateLayout = recordstore.DateLayout

// ErrDateInvalid is returned when a stored row has no usable date.
var ErrDateInvalid = errors.New("report date is invalid")

// Issue describes a stored field that could not be read and was taken as zero.
type Issue struct {
	Field string
	Err   error
}

type DailyTankReport struct {
	Date          time.Time
	StationID     string
	TankID        TankID
	Opening       int64
	Received      int64
	Sales         int64
	Closing       int64
	Balance       int64
	PricePerLiter decimal.Decimal
	Revenue       decimal.Decimal
}

func (r DailyTankReport) ReportDate() time.Time { return r.Date }
func (r DailyTankReport) Station() string       { return r.StationID }
func (r DailyTankReport) Tank() string          { return string(r.TankID) }

// Variance is the difference between the measured closing stock and the computed balance.
// Negative values mean fuel is unaccounted for.
func (r DailyTankReport) Variance() int64 {
	return r.Closing - r.Balance
}

// Row returns the report in daily_reports column order.
func (r DailyTankReport) Row() []any {
	return []any{
		r.Date.Format(DateLayout),
		r.StationID,
		string(r.TankID),
		r.Opening,
		r.Received,
		r.Sales,
		r.Closing,
		r.Balance,
		r.PricePerLiter,
		r.Revenue,
	}
}

type PumpReport struct {
	Date           time.Time
	StationID      string
	TankID         TankID
	PumpID         PumpID
	PricePerLiter  decimal.Decimal
	OpenMeter      decimal.Decimal
	CloseMeter     decimal.Decimal
	ExpectedLiters decimal.Decimal
	ExpectedCash   decimal.Decimal
	Expenses       decimal.Decimal
	CashAtHand     decimal.Decimal
}

func (r PumpReport) ReportDate() time.Time { return r.Date }
func (r PumpReport) Station() string       { return r.StationID }
func (r PumpReport) Tank() string          { return string(r.TankID) }

// Row returns the report in pump_reports column order.
func (r PumpReport) Row() []any {
	return []any{
		r.Date.Format(DateLayout),
		r.StationID,
		string(r.TankID),
		string(r.PumpID),
		r.PricePerLiter,
		r.OpenMeter,
		r.CloseMeter,
		r.ExpectedLiters,
		r.ExpectedCash,
		r.Expenses,
		r.CashAtHand,
	}
}

// recordReader collects issues while reading numeric cells leniently.
type recordReader struct {
	rec    recordstore.Record
	issues []Issue
}

func (rr *recordReader) int(field string) int64 {
	v, err := recordstore.Int(rr.rec[field])
	if err != nil {
		rr.issues = append(rr.issues, Issue{Field: field, Err: err})

		return 0
	}

	return v
}

func (rr *recordReader) decimal(field string) decimal.Decimal {
	v, err := recordstore.Decimal(rr.rec[field])
	if err != nil {
		rr.issues = append(rr.issues, Issue{Field: field, Err: err})

		return decimal.Zero
	}

	return v
}

func (rr *recordReader) date() (time.Time, error) {
	d, err := recordstore.Date(rr.rec["date"])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrDateInvalid, err)
	}

	return d, nil
}

// storedTank canonicalises the tank cell. Unrecognised values are kept as written.
func storedTank(rec recordstore.Record) TankID {
	raw := recordstore.String(rec["tank_id"])
	if id, err := ParseTankID(raw); err == nil {
		return id
	}

	return TankID(raw)
}

func storedPump(rec recordstore.Record) PumpID {
	raw := recordstore.String(rec["pump_id"])
	if id, err := ParsePumpID(raw); err == nil {
		return id
	}

	return PumpID(raw)
}

// DailyFromRecord reads a daily_reports record. A record without a valid date is rejected;
// unreadable numeric fields are zero and listed in the returned issues.
func DailyFromRecord(rec recordstore.Record) (DailyTankReport, []Issue, error) {
	rr := &recordReader{rec: rec}

	date, err := rr.date()
	if err != nil {
		return DailyTankReport{}, nil, err
	}

	r := DailyTankReport{
		Date:          date,
		StationID:     recordstore.String(rec["station_id"]),
		TankID:        storedTank(rec),
		Opening:       rr.int("opening"),
		Received:      rr.int("received"),
		Sales:         rr.int("sales"),
		Closing:       rr.int("closing"),
		Balance:       rr.int("balance"),
		PricePerLiter: rr.decimal("price_per_liter"),
		Revenue:       rr.decimal("revenue"),
	}

	return r, rr.issues, nil
}

// PumpFromRecord reads a pump_reports record with the same rules as DailyFromRecord.
func PumpFromRecord(rec recordstore.Record) (PumpReport, []Issue, error) {
	rr := &recordReader{rec: rec}

	date, err := rr.date()
	if err != nil {
		return PumpReport{}, nil, err
	}

	r := PumpReport{
		Date:           date,
		StationID:      recordstore.String(rec["station_id"]),
		TankID:         storedTank(rec),
		PumpID:         storedPump(rec),
		PricePerLiter:  rr.decimal("price_per_liter"),
		OpenMeter:      rr.decimal("open_meter"),
		CloseMeter:     rr.decimal("close_meter"),
		ExpectedLiters: rr.decimal("expected_liters"),
		ExpectedCash:   rr.decimal("expected_cash"),
		Expenses:       rr.decimal("expenses"),
		CashAtHand:     rr.decimal("cash_at_hand"),
	}

	return r, rr.issues, nil
}
