package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andymarkow/fueltracker/internal/domain/reports"
	"github.com/andymarkow/fueltracker/internal/errmsg"
	"github.com/andymarkow/fueltracker/internal/reconcile"
	"github.com/andymarkow/fueltracker/internal/reporting"
	"github.com/andymarkow/fueltracker/internal/server/models"
	"github.com/shopspring/decimal"
)

func (h *Handlers) SubmitDailyReport(w http.ResponseWriter, r *http.Request) {
	var payload models.DailyReportRequest

	if !h.decodeJSON(w, r, &payload) {
		return
	}

	_, view, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}

	in, err := dailyInput(payload, h.now())
	if err != nil {
		h.handleServiceError(w, "dailyInput()", err)

		return
	}

	report, err := h.tracker.SubmitDaily(r.Context(), view, in)
	if err != nil {
		h.handleServiceError(w, "tracker.SubmitDaily()", err)

		return
	}

	handleJSONResponse(w, http.StatusCreated, models.NewDailyReportResponse(report))
}

func (h *Handlers) SubmitPumpReport(w http.ResponseWriter, r *http.Request) {
	var payload models.PumpReportRequest

	if !h.decodeJSON(w, r, &payload) {
		return
	}

	_, view, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}

	in, err := pumpInput(payload, h.now())
	if err != nil {
		h.handleServiceError(w, "pumpInput()", err)

		return
	}

	report, err := h.tracker.SubmitPump(r.Context(), view, in)
	if err != nil {
		h.handleServiceError(w, "tracker.SubmitPump()", err)

		return
	}

	handleJSONResponse(w, http.StatusCreated, models.NewPumpReportResponse(report))
}

// PreviewPumpReport returns the expected liters and cash the form pre-fills from the meters.
func (h *Handlers) PreviewPumpReport(w http.ResponseWriter, r *http.Request) {
	var payload models.PumpReportRequest

	if !h.decodeJSON(w, r, &payload) {
		return
	}

	_, view, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}

	price, priceErr := reconcile.ParseAmount("price_per_liter", payload.PricePerLiter.String())
	openMeter, openErr := reconcile.ParseAmount("open_meter", payload.OpenMeter.String())
	closeMeter, closeErr := reconcile.ParseAmount("close_meter", payload.CloseMeter.String())

	if err := errors.Join(priceErr, openErr, closeErr); err != nil {
		h.handleServiceError(w, "reconcile.ParseAmount()", err)

		return
	}

	suggestion, err := h.tracker.PreviewPump(view, reconcile.PumpInput{
		PricePerLiter: price,
		OpenMeter:     openMeter,
		CloseMeter:    closeMeter,
	})
	if err != nil {
		h.handleServiceError(w, "tracker.PreviewPump()", err)

		return
	}

	handleJSONResponse(w, http.StatusOK, models.NewPumpPreviewResponse(suggestion))
}

func (h *Handlers) GetDailyReports(w http.ResponseWriter, r *http.Request) {
	_, view, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}

	q, ok := h.ownerQuery(w, r)
	if !ok {
		return
	}

	report, warnings, err := h.tracker.DailyReport(r.Context(), view, q)
	if err != nil {
		h.handleServiceError(w, "tracker.DailyReport()", err)

		return
	}

	handleJSONResponse(w, http.StatusOK, models.NewOwnerReportResponse(
		report, warnings, models.NewDailyReportResponse, models.NewTankSummaryResponse,
	))
}

func (h *Handlers) GetPumpReports(w http.ResponseWriter, r *http.Request) {
	_, view, ok := h.viewFromRequest(w, r)
	if !ok {
		return
	}

	q, ok := h.ownerQuery(w, r)
	if !ok {
		return
	}

	report, warnings, err := h.tracker.PumpReport(r.Context(), view, q)
	if err != nil {
		h.handleServiceError(w, "tracker.PumpReport()", err)

		return
	}

	handleJSONResponse(w, http.StatusOK, models.NewOwnerReportResponse(
		report, warnings, models.NewPumpReportResponse, models.NewSummaryResponse,
	))
}

// ownerQuery reads the owner view selectors: from (YYYY-MM-DD, default today), station, tank
// and order (asc or desc, default desc).
func (h *Handlers) ownerQuery(w http.ResponseWriter, r *http.Request) (reporting.Query, bool) {
	values := r.URL.Query()

	from := h.now()

	if raw := strings.TrimSpace(values.Get("from")); raw != "" {
		t, err := time.Parse(reports.DateLayout, raw)
		if err != nil {
			h.log.Info("time.Parse()", slog.String("from", raw), slog.Any("error", err))
			handleError(w, errmsg.ErrQueryDateInvalid)

			return reporting.Query{}, false
		}

		from = t
	}

	tank := strings.TrimSpace(values.Get("tank"))
	if id, err := reports.ParseTankID(tank); err == nil {
		tank = string(id)
	}

	return reporting.Query{
		From:      from,
		StationID: strings.TrimSpace(values.Get("station")),
		TankID:    tank,
		Order:     reporting.ParseOrder(strings.ToLower(strings.TrimSpace(values.Get("order")))),
	}, true
}

// dailyInput converts the submitted form. Every unusable field is reported, none is taken as zero.
func dailyInput(p models.DailyReportRequest, today time.Time) (reconcile.DailyInput, error) {
	var errs []error

	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	date, err := reconcile.ParseDate("date", p.Date, today)
	collect(err)

	if _, err := reports.ParseTankID(p.TankID); err != nil {
		collect(&reconcile.ValidationError{Field: "tank_id", Reason: "must be one of Tank 1..Tank 4"})
	}

	opening, err := reconcile.ParseStock("opening", p.Opening.String())
	collect(err)

	received, err := reconcile.ParseStock("received", p.Received.String())
	collect(err)

	sales, err := reconcile.ParseStock("sales", p.Sales.String())
	collect(err)

	closing, err := reconcile.ParseStock("closing", p.Closing.String())
	collect(err)

	price, err := reconcile.ParseAmount("price_per_liter", p.PricePerLiter.String())
	collect(err)

	if err := errors.Join(errs...); err != nil {
		return reconcile.DailyInput{}, err
	}

	return reconcile.DailyInput{
		Date:          date,
		TankID:        p.TankID,
		Opening:       opening,
		Received:      received,
		Sales:         sales,
		Closing:       closing,
		PricePerLiter: price,
	}, nil
}

func pumpInput(p models.PumpReportRequest, today time.Time) (reconcile.PumpInput, error) {
	var errs []error

	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	date, err := reconcile.ParseDate("date", p.Date, today)
	collect(err)

	if _, err := reports.ParseTankID(p.TankID); err != nil {
		collect(&reconcile.ValidationError{Field: "tank_id", Reason: "must be one of Tank 1..Tank 4"})
	}

	if _, err := reports.ParsePumpID(p.PumpID); err != nil {
		collect(&reconcile.ValidationError{Field: "pump_id", Reason: "must be one of Pump A..Pump D"})
	}

	price, err := reconcile.ParseAmount("price_per_liter", p.PricePerLiter.String())
	collect(err)

	openMeter, err := reconcile.ParseAmount("open_meter", p.OpenMeter.String())
	collect(err)

	closeMeter, err := reconcile.ParseAmount("close_meter", p.CloseMeter.String())
	collect(err)

	expectedLiters, err := optionalAmount("expected_liters", p.ExpectedLiters)
	collect(err)

	expectedCash, err := optionalAmount("expected_cash", p.ExpectedCash)
	collect(err)

	expenses, err := reconcile.ParseAmount("expenses", p.Expenses.String())
	collect(err)

	cashAtHand, err := reconcile.ParseAmount("cash_at_hand", p.CashAtHand.String())
	collect(err)

	if err := errors.Join(errs...); err != nil {
		return reconcile.PumpInput{}, err
	}

	return reconcile.PumpInput{
		Date:           date,
		TankID:         p.TankID,
		PumpID:         p.PumpID,
		PricePerLiter:  price,
		OpenMeter:      openMeter,
		CloseMeter:     closeMeter,
		ExpectedLiters: expectedLiters,
		ExpectedCash:   expectedCash,
		Expenses:       expenses,
		CashAtHand:     cashAtHand,
	}, nil
}

// optionalAmount reads an override. Absent or blank means the computed default is used.
func optionalAmount(field string, n *models.Number) (*decimal.Decimal, error) {
	if n == nil || strings.TrimSpace(n.String()) == "" {
		return nil, nil //nolint:nilnil
	}

	d, err := reconcile.ParseAmount(field, n.String())
	if err != nil {
		return nil, err
	}

	return &d, nil
}
