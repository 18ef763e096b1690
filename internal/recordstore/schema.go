package recordstore

import "slices"

const (
	UsersSheet        = "users"
	DailyReportsSheet = "daily_reports"
	PumpReportsSheet  = "pump_reports"
)

// Schema holds the header row of every worksheet the tracker uses. Column order is the
// append order.
var Schema = map[string][]string{
	UsersSheet: {
		"username", "password", "role", "station_id",
	},
	DailyReportsSheet: {
		"date", "station_id", "tank_id", "opening", "received", "sales", "closing",
		"balance", "price_per_liter", "revenue",
	},
	PumpReportsSheet: {
		"date", "station_id", "tank_id", "pump_id", "price_per_liter", "open_meter",
		"close_meter", "expected_liters", "expected_cash", "expenses", "cash_at_hand",
	},
}

// SheetNames returns the worksheets of Schema in a fixed order.
func SheetNames() []string {
	return []string{UsersSheet, DailyReportsSheet, PumpReportsSheet}
}

// Headers returns a copy of the header row for the named worksheet.
func Headers(sheet string) ([]string, bool) {
	h, ok := Schema[sheet]
	if !ok {
		return nil, false
	}

	return slices.Clone(h), true
}
