package reporting

import (
	"context"
	"log/slog"

	"github.com/andymarkow/fueltracker/internal/domain/reports"
	"github.com/andymarkow/fueltracker/internal/recordstore"
)

// Warning is a data quality problem found while loading stored rows. Warnings never stop
// a report from being built.
type Warning struct {
	Sheet string
	// Row is the worksheet row number, the header being row 1.
	Row     int
	Field   string
	Reason  string
	Skipped bool
}

// LoadDailyReports parses daily_reports records. Rows with an unusable date are skipped.
func LoadDailyReports(records []recordstore.Record) ([]reports.DailyTankReport, []Warning) {
	return load(recordstore.DailyReportsSheet, records, reports.DailyFromRecord)
}

// LoadPumpReports parses pump_reports records. Rows with an unusable date are skipped.
func LoadPumpReports(records []recordstore.Record) ([]reports.PumpReport, []Warning) {
	return load(recordstore.PumpReportsSheet, records, reports.PumpFromRecord)
}

func load[T any](
	sheet string,
	records []recordstore.Record,
	parse func(recordstore.Record) (T, []reports.Issue, error),
) ([]T, []Warning) {
	rows := make([]T, 0, len(records))

	var warnings []Warning

	for i, rec := range records {
		rowNum := i + 2

		r, issues, err := parse(rec)
		if err != nil {
			warnings = append(warnings, Warning{
				Sheet:   sheet,
				Row:     rowNum,
				Field:   "date",
				Reason:  err.Error(),
				Skipped: true,
			})

			continue
		}

		for _, is := range issues {
			warnings = append(warnings, Warning{
				Sheet:  sheet,
				Row:    rowNum,
				Field:  is.Field,
				Reason: is.Err.Error() + ", counted as 0",
			})
		}

		rows = append(rows, r)
	}

	return rows, warnings
}

// LogWarnings writes each warning at WARN level.
func LogWarnings(ctx context.Context, log *slog.Logger, warnings []Warning) {
	for _, w := range warnings {
		log.WarnContext(ctx, "Data quality warning",
			slog.String("worksheet", w.Sheet),
			slog.Int("row", w.Row),
			slog.String("field", w.Field),
			slog.String("reason", w.Reason),
			slog.Bool("skipped", w.Skipped),
		)
	}
}
