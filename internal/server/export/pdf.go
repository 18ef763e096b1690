package export

import (
	"fmt"
	"io"

	"github.com/andymarkow/fueltracker/internal/domain/reports"
	"github.com/andymarkow/fueltracker/internal/reporting"
	"github.com/jung-kurt/gofpdf"
)

var pumpColumnWidths = []float64{22, 22, 16, 16, 20, 26, 26, 28, 30, 26, 28}

func pumpPDF(w io.Writer, rep PumpOwnerReport) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "Pump Reports")
	pdf.Ln(9)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("From: %s", rep.Query.From.Format(reports.DateLayout)))
	pdf.Ln(6)

	if rep.Query.StationID != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Station: %s", rep.Query.StationID))
		pdf.Ln(6)
	}

	if rep.Query.TankID != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Tank: %s", rep.Query.TankID))
		pdf.Ln(6)
	}

	pdf.Cell(0, 6, printer.Sprintf("Rows: %d", rep.Count))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	for i, c := range pumpColumns {
		pdf.CellFormat(pumpColumnWidths[i], 6, c, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, r := range rep.Rows {
		cells := []string{
			r.Date.Format(reports.DateLayout),
			r.StationID,
			string(r.TankID),
			string(r.PumpID),
			amount(r.PricePerLiter),
			liters(r.OpenMeter),
			liters(r.CloseMeter),
			liters(r.ExpectedLiters),
			amount(r.ExpectedCash),
			amount(r.Expenses),
			amount(r.CashAtHand),
		}

		for i, c := range cells {
			align := "R"
			if i < 4 {
				align = "C"
			}

			pdf.CellFormat(pumpColumnWidths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Totals")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 9)
	for _, st := range rep.Stations {
		for _, tk := range st.Tanks {
			summaryLine(pdf, st.StationID+" / "+tk.TankID, tk.Summary)
		}

		summaryLine(pdf, st.StationID, st.Summary)
	}

	pdf.SetFont("Arial", "B", 9)
	summaryLine(pdf, "All stations", rep.Total)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf.Output: %w", err)
	}

	return nil
}

func summaryLine(pdf *gofpdf.Fpdf, label string, s reporting.Summary) {
	pdf.CellFormat(60, 6, label, "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 6, amount(s.TotalExpectedCash), "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 6, amount(s.TotalExpenses), "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 6, amount(s.TotalCashAtHand), "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 6, amount(s.Net()), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
}
