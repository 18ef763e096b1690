package models

import (
	"encoding/json"
	"time"

	"github.com/andymarkow/fueltracker/internal/domain/reports"
	"github.com/andymarkow/fueltracker/internal/reconcile"
	"github.com/andymarkow/fueltracker/internal/reporting"
	"github.com/shopspring/decimal"
)

// Number keeps a numeric form field exactly as typed. JSON numbers and strings are both
// accepted so that bad input is rejected by validation rather than by decoding.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err //nolint:wrapcheck
		}

		*n = Number(s)

		return nil
	}

	if string(b) == "null" {
		*n = ""

		return nil
	}

	*n = Number(b)

	return nil
}

func (n Number) String() string {
	return string(n)
}

type UserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	View      string `json:"view"`
	StationID string `json:"station_id,omitempty"`
	ExpiresAt string `json:"expires_at"`
}

type MeResponse struct {
	Username  string `json:"username"`
	View      string `json:"view"`
	StationID string `json:"station_id,omitempty"`
}

type DailyReportRequest struct {
	Date          string `json:"date"`
	TankID        string `json:"tank_id"`
	Opening       Number `json:"opening"`
	Received      Number `json:"received"`
	Sales         Number `json:"sales"`
	Closing       Number `json:"closing"`
	PricePerLiter Number `json:"price_per_liter"`
}

type PumpReportRequest struct {
	Date           string  `json:"date"`
	TankID         string  `json:"tank_id"`
	PumpID         string  `json:"pump_id"`
	PricePerLiter  Number  `json:"price_per_liter"`
	OpenMeter      Number  `json:"open_meter"`
	CloseMeter     Number  `json:"close_meter"`
	ExpectedLiters *Number `json:"expected_liters,omitempty"`
	ExpectedCash   *Number `json:"expected_cash,omitempty"`
	Expenses       Number  `json:"expenses"`
	CashAtHand     Number  `json:"cash_at_hand"`
}

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type DailyReportResponse struct {
	Date          string `json:"date"`
	StationID     string `json:"station_id"`
	TankID        string `json:"tank_id"`
	Opening       int64  `json:"opening"`
	Received      int64  `json:"received"`
	Sales         int64  `json:"sales"`
	Closing       int64  `json:"closing"`
	Balance       int64  `json:"balance"`
	Variance      int64  `json:"variance"`
	PricePerLiter string `json:"price_per_liter"`
	Revenue       string `json:"revenue"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(reconcile.CurrencyPlaces)
}

func NewDailyReportResponse(r reports.DailyTankReport) DailyReportResponse {
	return DailyReportResponse{
		Date:          r.Date.Format(reports.DateLayout),
		StationID:     r.StationID,
		TankID:        string(r.TankID),
		Opening:       r.Opening,
		Received:      r.Received,
		Sales:         r.Sales,
		Closing:       r.Closing,
		Balance:       r.Balance,
		Variance:      r.Variance(),
		PricePerLiter: money(r.PricePerLiter),
		Revenue:       money(r.Revenue),
	}
}

type PumpReportResponse struct {
	Date           string `json:"date"`
	StationID      string `json:"station_id"`
	TankID         string `json:"tank_id"`
	PumpID         string `json:"pump_id"`
	PricePerLiter  string `json:"price_per_liter"`
	OpenMeter      string `json:"open_meter"`
	CloseMeter     string `json:"close_meter"`
	ExpectedLiters string `json:"expected_liters"`
	ExpectedCash   string `json:"expected_cash"`
	Expenses       string `json:"expenses"`
	CashAtHand     string `json:"cash_at_hand"`
}

func NewPumpReportResponse(r reports.PumpReport) PumpReportResponse {
	return PumpReportResponse{
		Date:           r.Date.Format(reports.DateLayout),
		StationID:      r.StationID,
		TankID:         string(r.TankID),
		PumpID:         string(r.PumpID),
		PricePerLiter:  money(r.PricePerLiter),
		OpenMeter:      r.OpenMeter.String(),
		CloseMeter:     r.CloseMeter.String(),
		ExpectedLiters: r.ExpectedLiters.String(),
		ExpectedCash:   money(r.ExpectedCash),
		Expenses:       money(r.Expenses),
		CashAtHand:     money(r.CashAtHand),
	}
}

type PumpPreviewResponse struct {
	ExpectedLiters string `json:"expected_liters"`
	ExpectedCash   string `json:"expected_cash"`
}

func NewPumpPreviewResponse(s reconcile.Suggestion) PumpPreviewResponse {
	return PumpPreviewResponse{
		ExpectedLiters: s.ExpectedLiters.String(),
		ExpectedCash:   money(s.ExpectedCash),
	}
}

type SummaryResponse struct {
	TotalExpectedCash string `json:"total_expected_cash"`
	TotalExpenses     string `json:"total_expenses"`
	TotalCashAtHand   string `json:"total_cash_at_hand"`
	Net               string `json:"net"`
}

func NewSummaryResponse(s reporting.Summary) SummaryResponse {
	return SummaryResponse{
		TotalExpectedCash: money(s.TotalExpectedCash),
		TotalExpenses:     money(s.TotalExpenses),
		TotalCashAtHand:   money(s.TotalCashAtHand),
		Net:               money(s.Net()),
	}
}

type TankSummaryResponse struct {
	TotalReceived int64  `json:"total_received"`
	TotalSales    int64  `json:"total_sales"`
	TotalRevenue  string `json:"total_revenue"`
}

func NewTankSummaryResponse(s reporting.TankSummary) TankSummaryResponse {
	return TankSummaryResponse{
		TotalReceived: s.TotalReceived,
		TotalSales:    s.TotalSales,
		TotalRevenue:  money(s.TotalRevenue),
	}
}

type WarningResponse struct {
	Worksheet string `json:"worksheet"`
	Row       int    `json:"row"`
	Field     string `json:"field"`
	Reason    string `json:"reason"`
	Skipped   bool   `json:"skipped"`
}

type TankSectionResponse[T any, S any] struct {
	TankID  string `json:"tank_id"`
	Summary S      `json:"summary"`
	Rows    []T    `json:"rows"`
}

type StationSectionResponse[T any, S any] struct {
	StationID string                      `json:"station_id"`
	Summary   S                           `json:"summary"`
	Tanks     []TankSectionResponse[T, S] `json:"tanks"`
}

type OwnerReportResponse[T any, S any] struct {
	From      string                         `json:"from"`
	StationID string                         `json:"station_id,omitempty"`
	TankID    string                         `json:"tank_id,omitempty"`
	Count     int                            `json:"count"`
	Total     S                              `json:"total"`
	Stations  []StationSectionResponse[T, S] `json:"stations"`
	Warnings  []WarningResponse              `json:"warnings,omitempty"`
}

// NewOwnerReportResponse converts an owner report level by level with the given row and
// summary converters.
func NewOwnerReportResponse[R any, RS any, T any, S any](
	rep reporting.OwnerReport[R, RS],
	warnings []reporting.Warning,
	row func(R) T,
	summary func(RS) S,
) OwnerReportResponse[T, S] {
	resp := OwnerReportResponse[T, S]{
		From:      rep.Query.From.Format(time.DateOnly),
		StationID: rep.Query.StationID,
		TankID:    rep.Query.TankID,
		Count:     rep.Count,
		Total:     summary(rep.Total),
		Stations:  make([]StationSectionResponse[T, S], 0, len(rep.Stations)),
	}

	for _, st := range rep.Stations {
		station := StationSectionResponse[T, S]{
			StationID: st.StationID,
			Summary:   summary(st.Summary),
			Tanks:     make([]TankSectionResponse[T, S], 0, len(st.Tanks)),
		}

		for _, tk := range st.Tanks {
			rows := make([]T, 0, len(tk.Rows))
			for _, r := range tk.Rows {
				rows = append(rows, row(r))
			}

			station.Tanks = append(station.Tanks, TankSectionResponse[T, S]{
				TankID:  tk.TankID,
				Summary: summary(tk.Summary),
				Rows:    rows,
			})
		}

		resp.Stations = append(resp.Stations, station)
	}

	for _, w := range warnings {
		resp.Warnings = append(resp.Warnings, WarningResponse{
			Worksheet: w.Sheet,
			Row:       w.Row,
			Field:     w.Field,
			Reason:    w.Reason,
			Skipped:   w.Skipped,
		})
	}

	return resp
}
