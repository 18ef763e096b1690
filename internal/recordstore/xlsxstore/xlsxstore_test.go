package xlsxstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/andymarkow/fueltracker/internal/recordstore"
	"github.com/andymarkow/fueltracker/internal/recordstore/xlsxstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNewStorage_CreatesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "FuelTracker.xlsx")

	store, err := xlsxstore.NewStorage(path, xlsxstore.WithName("FuelTracker"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	assert.Equal(t, "FuelTracker", store.Name())
	require.NoError(t, store.Ping(context.Background()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, recordstore.SheetNames(), f.GetSheetList())

	rows, err := f.GetRows(recordstore.DailyReportsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	want, _ := recordstore.Headers(recordstore.DailyReportsSheet)
	assert.Equal(t, want, rows[0])
}

func TestSheet_AppendAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "FuelTracker.xlsx")

	store, err := xlsxstore.NewStorage(path)
	require.NoError(t, err)

	table, err := store.Worksheet(ctx, recordstore.PumpReportsSheet)
	require.NoError(t, err)

	row := []any{
		"2024-01-15", "ST1", "Tank 1", "Pump A",
		decimal.NewFromInt(650), decimal.RequireFromString("100.0"), decimal.RequireFromString("250.5"),
		decimal.RequireFromString("150.5"), decimal.NewFromInt(97825), decimal.NewFromInt(5000),
		decimal.NewFromInt(92000),
	}
	require.NoError(t, table.AppendRow(ctx, row))

	err = table.AppendRow(ctx, row[:3])
	assert.ErrorIs(t, err, recordstore.ErrRowWidth)

	require.NoError(t, store.Close())

	reopened, err := xlsxstore.NewStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	table, err = reopened.Worksheet(ctx, recordstore.PumpReportsSheet)
	require.NoError(t, err)

	records, err := table.GetAllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "2024-01-15", recordstore.String(rec["date"]))
	assert.Equal(t, "Pump A", recordstore.String(rec["pump_id"]))

	cash, err := recordstore.Decimal(rec["expected_cash"])
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(97825).Equal(cash))

	liters, err := recordstore.Decimal(rec["expected_liters"])
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("150.5").Equal(liters))
}

func TestStorage_WorksheetNotFound(t *testing.T) {
	store, err := xlsxstore.NewStorage(filepath.Join(t.TempDir(), "w.xlsx"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.Worksheet(context.Background(), "fuel_prices")
	assert.ErrorIs(t, err, recordstore.ErrWorksheetNotFound)
}

func TestStorage_PingMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.xlsx")

	store, err := xlsxstore.NewStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, os.Remove(path))

	assert.ErrorIs(t, store.Ping(context.Background()), recordstore.ErrConnection)
}

func TestNewStorage_UnreadableWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o600))

	_, err := xlsxstore.NewStorage(path)
	assert.ErrorIs(t, err, recordstore.ErrConnection)
}
