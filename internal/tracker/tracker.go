// Package tracker runs the tracker's use cases: managers submit reconciled reports, owners
// read filtered and summarised reports. Every call is one synchronous pass against the record
// store.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/andymarkow/fueltracker/internal/domain/reports"
	"github.com/andymarkow/fueltracker/internal/logger"
	"github.com/andymarkow/fueltracker/internal/metrics"
	"github.com/andymarkow/fueltracker/internal/reconcile"
	"github.com/andymarkow/fueltracker/internal/recordstore"
	"github.com/andymarkow/fueltracker/internal/reporting"
	"github.com/andymarkow/fueltracker/internal/session"
)

// ErrForbidden is returned when a view calls a use case of the other role.
var ErrForbidden = errors.New("operation not allowed for this view")

const (
	kindDaily = "daily"
	kindPump  = "pump"
)

type (
	DailyOwnerReport = reporting.OwnerReport[reports.DailyTankReport, reporting.TankSummary]
	PumpOwnerReport  = reporting.OwnerReport[reports.PumpReport, reporting.Summary]
)

type Service struct {
	store recordstore.Store
	log   *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.log = logger
	}
}

func New(store recordstore.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log = s.log.With(slog.String("module", "tracker"))

	return s
}

// SubmitDaily reconciles a daily tank entry for the manager's own station and appends it.
func (s *Service) SubmitDaily(ctx context.Context, view session.View, in reconcile.DailyInput) (reports.DailyTankReport, error) {
	if view.Kind != session.ViewManager {
		metrics.ObserveSubmission(kindDaily, metrics.ResultForbidden)

		return reports.DailyTankReport{}, ErrForbidden
	}

	in.StationID = view.StationID

	report, err := reconcile.ComputeDailyTankRow(in)
	if err != nil {
		metrics.ObserveSubmission(kindDaily, metrics.ResultInvalid)

		return reports.DailyTankReport{}, err
	}

	if err := s.append(ctx, recordstore.DailyReportsSheet, report.Row()); err != nil {
		metrics.ObserveSubmission(kindDaily, metrics.ResultError)

		return reports.DailyTankReport{}, err
	}

	metrics.ObserveSubmission(kindDaily, metrics.ResultSuccess)

	s.log.InfoContext(ctx, "Daily report submitted",
		slog.String("station_id", report.StationID),
		slog.String("tank_id", string(report.TankID)),
		slog.String("date", report.Date.Format(reports.DateLayout)),
		slog.Int64("balance", report.Balance),
		slog.String("revenue", report.Revenue.StringFixed(reconcile.CurrencyPlaces)),
	)

	return report, nil
}

// SubmitPump reconciles a pump entry for the manager's own station and appends it.
func (s *Service) SubmitPump(ctx context.Context, view session.View, in reconcile.PumpInput) (reports.PumpReport, error) {
	if view.Kind != session.ViewManager {
		metrics.ObserveSubmission(kindPump, metrics.ResultForbidden)

		return reports.PumpReport{}, ErrForbidden
	}

	in.StationID = view.StationID

	report, err := reconcile.ComputePumpRow(in)
	if err != nil {
		metrics.ObserveSubmission(kindPump, metrics.ResultInvalid)

		return reports.PumpReport{}, err
	}

	if err := s.append(ctx, recordstore.PumpReportsSheet, report.Row()); err != nil {
		metrics.ObserveSubmission(kindPump, metrics.ResultError)

		return reports.PumpReport{}, err
	}

	metrics.ObserveSubmission(kindPump, metrics.ResultSuccess)

	s.log.InfoContext(ctx, "Pump report submitted",
		slog.String("station_id", report.StationID),
		slog.String("tank_id", string(report.TankID)),
		slog.String("pump_id", string(report.PumpID)),
		slog.String("date", report.Date.Format(reports.DateLayout)),
		slog.String("expected_cash", report.ExpectedCash.StringFixed(reconcile.CurrencyPlaces)),
	)

	return report, nil
}

// PreviewPump returns the expected liters and cash a pump entry would default to.
func (s *Service) PreviewPump(view session.View, in reconcile.PumpInput) (reconcile.Suggestion, error) {
	if view.Kind != session.ViewManager {
		return reconcile.Suggestion{}, ErrForbidden
	}

	return reconcile.SuggestPump(in.OpenMeter, in.CloseMeter, in.PricePerLiter) //nolint:wrapcheck
}

// DailyReport builds the owner view over daily tank reports.
func (s *Service) DailyReport(ctx context.Context, view session.View, q reporting.Query) (DailyOwnerReport, []reporting.Warning, error) {
	if view.Kind != session.ViewOwner {
		return DailyOwnerReport{}, nil, ErrForbidden
	}

	records, err := s.records(ctx, recordstore.DailyReportsSheet)
	if err != nil {
		return DailyOwnerReport{}, nil, err
	}

	rows, warnings := reporting.LoadDailyReports(records)
	s.warn(ctx, recordstore.DailyReportsSheet, warnings)

	return reporting.BuildOwnerReport(rows, q, reporting.SummarizeTanks), warnings, nil
}

// PumpReport builds the owner view over pump reports.
func (s *Service) PumpReport(ctx context.Context, view session.View, q reporting.Query) (PumpOwnerReport, []reporting.Warning, error) {
	if view.Kind != session.ViewOwner {
		return PumpOwnerReport{}, nil, ErrForbidden
	}

	records, err := s.records(ctx, recordstore.PumpReportsSheet)
	if err != nil {
		return PumpOwnerReport{}, nil, err
	}

	rows, warnings := reporting.LoadPumpReports(records)
	s.warn(ctx, recordstore.PumpReportsSheet, warnings)

	return reporting.BuildOwnerReport(rows, q, reporting.Summarize), warnings, nil
}

func (s *Service) warn(ctx context.Context, sheet string, warnings []reporting.Warning) {
	metrics.ObserveWarnings(sheet, len(warnings))
	reporting.LogWarnings(ctx, s.log, warnings)
}

func (s *Service) append(ctx context.Context, sheet string, row []any) (err error) {
	defer func(started time.Time) {
		metrics.ObserveStoreCall("append_row", started, err)
	}(time.Now())

	table, err := s.store.Worksheet(ctx, sheet)
	if err != nil {
		s.log.ErrorContext(ctx, "store.Worksheet()", slog.String("worksheet", sheet), slog.Any("error", err))

		return fmt.Errorf("store.Worksheet: %w", err)
	}

	if err := table.AppendRow(ctx, row); err != nil {
		s.log.ErrorContext(ctx, "table.AppendRow()", slog.String("worksheet", sheet), slog.Any("error", err))

		return fmt.Errorf("table.AppendRow: %w", err)
	}

	return nil
}

func (s *Service) records(ctx context.Context, sheet string) (_ []recordstore.Record, err error) {
	defer func(started time.Time) {
		metrics.ObserveStoreCall("get_all_records", started, err)
	}(time.Now())

	table, err := s.store.Worksheet(ctx, sheet)
	if err != nil {
		s.log.ErrorContext(ctx, "store.Worksheet()", slog.String("worksheet", sheet), slog.Any("error", err))

		return nil, fmt.Errorf("store.Worksheet: %w", err)
	}

	records, err := table.GetAllRecords(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "table.GetAllRecords()", slog.String("worksheet", sheet), slog.Any("error", err))

		return nil, fmt.Errorf("table.GetAllRecords: %w", err)
	}

	return records, nil
}
