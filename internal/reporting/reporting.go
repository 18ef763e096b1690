// Package reporting narrows and summarises stored report rows for the owner view.
package reporting

import (
	"slices"
	"time"

	"github.com/andymarkow/fueltracker/internal/domain/reports"
	"github.com/shopspring/decimal"
)

// Dated is a row with a report date.
type Dated interface {
	ReportDate() time.Time
}

// Located is a dated row that belongs to a station tank.
type Located interface {
	Dated
	Station() string
	Tank() string
}

type Order int

const (
	Ascending Order = iota
	Descending
)

// ParseOrder maps "asc"/"desc" to an Order. Anything else is Descending, the owner view default.
func ParseOrder(s string) Order {
	if s == "asc" {
		return Ascending
	}

	return Descending
}

// FilterByDate keeps rows dated on or after cutoff. Only the calendar day of cutoff is used.
func FilterByDate[T Dated](rows []T, cutoff time.Time) []T {
	day := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]T, 0, len(rows))

	for _, r := range rows {
		if !r.ReportDate().Before(day) {
			out = append(out, r)
		}
	}

	return out
}

// FilterByStation keeps rows of one station. An empty station keeps everything.
func FilterByStation[T Located](rows []T, stationID string) []T {
	if stationID == "" {
		return rows
	}

	return slices.DeleteFunc(slices.Clone(rows), func(r T) bool {
		return r.Station() != stationID
	})
}

// FilterByTank keeps rows of one tank. An empty tank keeps everything.
func FilterByTank[T Located](rows []T, tankID string) []T {
	if tankID == "" {
		return rows
	}

	return slices.DeleteFunc(slices.Clone(rows), func(r T) bool {
		return r.Tank() != tankID
	})
}

// SortByDate returns a stably sorted copy; rows of the same day keep their stored order.
func SortByDate[T Dated](rows []T, order Order) []T {
	out := slices.Clone(rows)

	slices.SortStableFunc(out, func(a, b T) int {
		c := a.ReportDate().Compare(b.ReportDate())
		if order == Descending {
			return -c
		}

		return c
	})

	return out
}

// Group is the rows sharing one key.
type Group[T any] struct {
	Key  string
	Rows []T
}

func groupBy[T any](rows []T, key func(T) string) []Group[T] {
	groups := make([]Group[T], 0)
	index := make(map[string]int)

	for _, r := range rows {
		k := key(r)

		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Key: k})
		}

		groups[i].Rows = append(groups[i].Rows, r)
	}

	return groups
}

// GroupByStation groups rows by station in the order stations are first seen.
func GroupByStation[T Located](rows []T) []Group[T] {
	return groupBy(rows, func(r T) string { return r.Station() })
}

// GroupByTank groups rows by tank in the order tanks are first seen.
func GroupByTank[T Located](rows []T) []Group[T] {
	return groupBy(rows, func(r T) string { return r.Tank() })
}

// Summary totals the cash columns of pump reports.
type Summary struct {
	TotalExpectedCash decimal.Decimal
	TotalExpenses     decimal.Decimal
	TotalCashAtHand   decimal.Decimal
}

// Net is what remains unaccounted for: expected cash less expenses and cash at hand.
// Positive values are a shortfall.
func (s Summary) Net() decimal.Decimal {
	return s.TotalExpectedCash.Sub(s.TotalExpenses).Sub(s.TotalCashAtHand)
}

// Summarize sums expected cash, expenses and cash at hand. Fields that could not be read
// are already zero after loading, so they count as nothing.
func Summarize(rows []reports.PumpReport) Summary {
	s := Summary{
		TotalExpectedCash: decimal.Zero,
		TotalExpenses:     decimal.Zero,
		TotalCashAtHand:   decimal.Zero,
	}

	for _, r := range rows {
		s.TotalExpectedCash = s.TotalExpectedCash.Add(r.ExpectedCash)
		s.TotalExpenses = s.TotalExpenses.Add(r.Expenses)
		s.TotalCashAtHand = s.TotalCashAtHand.Add(r.CashAtHand)
	}

	return s
}

// TankSummary totals the stock movement of daily tank reports.
type TankSummary struct {
	TotalReceived int64
	TotalSales    int64
	TotalRevenue  decimal.Decimal
}

func SummarizeTanks(rows []reports.DailyTankReport) TankSummary {
	s := TankSummary{TotalRevenue: decimal.Zero}

	for _, r := range rows {
		s.TotalReceived += r.Received
		s.TotalSales += r.Sales
		s.TotalRevenue = s.TotalRevenue.Add(r.Revenue)
	}

	return s
}
