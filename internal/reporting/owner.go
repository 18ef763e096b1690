package reporting

import "time"

// Query selects the rows shown in the owner view.
type Query struct {
	From      time.Time
	StationID string
	TankID    string
	Order     Order
}

// Section is one tank of a station with its rows and totals.
type Section[T any, S any] struct {
	TankID  string
	Rows    []T
	Summary S
}

// StationSection is one station with its per-tank sections and station totals.
type StationSection[T any, S any] struct {
	StationID string
	Summary   S
	Tanks     []Section[T, S]
}

// OwnerReport is the owner view: totals over every selected row, then stations, then tanks.
type OwnerReport[T any, S any] struct {
	Query    Query
	Count    int
	Total    S
	Rows     []T
	Stations []StationSection[T, S]
}

// BuildOwnerReport filters rows by date, station and tank, sorts them, and groups them by
// station and tank, summarising every level with summarize.
func BuildOwnerReport[T Located, S any](rows []T, q Query, summarize func([]T) S) OwnerReport[T, S] {
	selected := FilterByDate(rows, q.From)
	selected = FilterByStation(selected, q.StationID)
	selected = FilterByTank(selected, q.TankID)
	selected = SortByDate(selected, q.Order)

	report := OwnerReport[T, S]{
		Query:    q,
		Count:    len(selected),
		Total:    summarize(selected),
		Rows:     selected,
		Stations: make([]StationSection[T, S], 0),
	}

	for _, sg := range GroupByStation(selected) {
		station := StationSection[T, S]{
			StationID: sg.Key,
			Summary:   summarize(sg.Rows),
			Tanks:     make([]Section[T, S], 0),
		}

		for _, tg := range GroupByTank(sg.Rows) {
			station.Tanks = append(station.Tanks, Section[T, S]{
				TankID:  tg.Key,
				Rows:    tg.Rows,
				Summary: summarize(tg.Rows),
			})
		}

		report.Stations = append(report.Stations, station)
	}

	return report
}
