// Package export renders the owner pump report as a workbook or a printable document.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andymarkow/fueltracker/internal/domain/reports"
	"github.com/andymarkow/fueltracker/internal/reporting"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

type PumpOwnerReport = reporting.OwnerReport[reports.PumpReport, reporting.Summary]

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}

	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename names the download after the report's start date.
func (f Format) Filename(rep PumpOwnerReport) string {
	return fmt.Sprintf("pump-reports-%s.%s", rep.Query.From.Format(reports.DateLayout), f)
}

// PumpReport writes rep to w in format f.
func PumpReport(w io.Writer, f Format, rep PumpOwnerReport) error {
	switch f {
	case FormatXLSX:
		return pumpXLSX(w, rep)
	case FormatPDF:
		return pumpPDF(w, rep)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

var pumpColumns = []string{
	"Date", "Station", "Tank", "Pump", "Price/L", "Open meter", "Close meter",
	"Expected liters", "Expected cash", "Expenses", "Cash at hand",
}

var printer = message.NewPrinter(language.English)

// amount formats money with thousands separators and two decimals.
func amount(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

func liters(d decimal.Decimal) string {
	return printer.Sprintf("%.1f", d.InexactFloat64())
}
