package export

import (
	"fmt"
	"io"

	"github.com/andymarkow/fueltracker/internal/domain/reports"
	"github.com/andymarkow/fueltracker/internal/reporting"
	"github.com/xuri/excelize/v2"
)

const (
	rowsSheet    = "pump_reports"
	summarySheet = "summary"

	// Built-in number formats: "#,##0.00" and "#,##0.0".
	numFmtMoney  = 4
	numFmtLiters = 3
)

func pumpXLSX(w io.Writer, rep PumpOwnerReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rowsSheet); err != nil {
		return fmt.Errorf("f.SetSheetName: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("f.NewSheet: %w", err)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: numFmtMoney})
	if err != nil {
		return fmt.Errorf("f.NewStyle: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("f.NewStyle: %w", err)
	}

	if err := writePumpRows(f, rep.Rows, money, bold); err != nil {
		return err
	}

	if err := writePumpSummary(f, rep, money, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("f.Write: %w", err)
	}

	return nil
}

func writePumpRows(f *excelize.File, rows []reports.PumpReport, money, bold int) error {
	header := make([]any, 0, len(pumpColumns))
	for _, c := range pumpColumns {
		header = append(header, c)
	}

	if err := f.SetSheetRow(rowsSheet, "A1", &header); err != nil {
		return fmt.Errorf("f.SetSheetRow: %w", err)
	}

	if err := f.SetCellStyle(rowsSheet, "A1", "K1", bold); err != nil {
		return fmt.Errorf("f.SetCellStyle: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("excelize.CoordinatesToCellName: %w", err)
		}

		values := []any{
			r.Date.Format(reports.DateLayout),
			r.StationID,
			string(r.TankID),
			string(r.PumpID),
			r.PricePerLiter.InexactFloat64(),
			r.OpenMeter.InexactFloat64(),
			r.CloseMeter.InexactFloat64(),
			r.ExpectedLiters.InexactFloat64(),
			r.ExpectedCash.InexactFloat64(),
			r.Expenses.InexactFloat64(),
			r.CashAtHand.InexactFloat64(),
		}

		if err := f.SetSheetRow(rowsSheet, cell, &values); err != nil {
			return fmt.Errorf("f.SetSheetRow: %w", err)
		}
	}

	if len(rows) == 0 {
		return nil
	}

	last := len(rows) + 1

	if err := f.SetCellStyle(rowsSheet, "E2", fmt.Sprintf("E%d", last), money); err != nil {
		return fmt.Errorf("f.SetCellStyle: %w", err)
	}

	if err := f.SetCellStyle(rowsSheet, "I2", fmt.Sprintf("K%d", last), money); err != nil {
		return fmt.Errorf("f.SetCellStyle: %w", err)
	}

	litersStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtLiters})
	if err != nil {
		return fmt.Errorf("f.NewStyle: %w", err)
	}

	if err := f.SetCellStyle(rowsSheet, "F2", fmt.Sprintf("H%d", last), litersStyle); err != nil {
		return fmt.Errorf("f.SetCellStyle: %w", err)
	}

	return nil
}

func writePumpSummary(f *excelize.File, rep PumpOwnerReport, money, bold int) error {
	lines := [][]any{
		{"Pump reports from", rep.Query.From.Format(reports.DateLayout)},
		{"Rows", rep.Count},
		{},
		{"Station", "Tank", "Expected cash", "Expenses", "Cash at hand", "Net"},
	}

	add := func(station, tank string, s reporting.Summary) {
		lines = append(lines, []any{
			station,
			tank,
			s.TotalExpectedCash.InexactFloat64(),
			s.TotalExpenses.InexactFloat64(),
			s.TotalCashAtHand.InexactFloat64(),
			s.Net().InexactFloat64(),
		})
	}

	for _, st := range rep.Stations {
		for _, tk := range st.Tanks {
			add(st.StationID, tk.TankID, tk.Summary)
		}

		add(st.StationID, "All tanks", st.Summary)
	}

	add("All stations", "", rep.Total)

	for i := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("excelize.CoordinatesToCellName: %w", err)
		}

		if err := f.SetSheetRow(summarySheet, cell, &lines[i]); err != nil {
			return fmt.Errorf("f.SetSheetRow: %w", err)
		}
	}

	if err := f.SetCellStyle(summarySheet, "A4", "F4", bold); err != nil {
		return fmt.Errorf("f.SetCellStyle: %w", err)
	}

	if err := f.SetCellStyle(summarySheet, "C5", fmt.Sprintf("F%d", len(lines)), money); err != nil {
		return fmt.Errorf("f.SetCellStyle: %w", err)
	}

	return nil
}
