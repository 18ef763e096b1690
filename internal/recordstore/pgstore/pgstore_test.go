package pgstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/andymarkow/fueltracker/internal/domain/reports"
	"github.com/andymarkow/fueltracker/internal/logger"
	"github.com/andymarkow/fueltracker/internal/reconcile"
	"github.com/andymarkow/fueltracker/internal/recordstore"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "connection refused", err: fmt.Errorf("dial: %w", syscall.ECONNREFUSED), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "connection exception", err: &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, want: true},
		{name: "data exception", err: &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation}, want: false},
		{name: "other", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	s := &Storage{log: logger.Nop(), timeout: time.Second, retryWait: time.Millisecond}

	calls := 0
	err := s.withRetry(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return syscall.ECONNREFUSED
		}

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = s.withRetry(context.Background(), func(context.Context) error {
		calls++

		return syscall.ECONNREFUSED
	})
	assert.ErrorIs(t, err, recordstore.ErrConnection)
	assert.Equal(t, 2, calls)

	calls = 0
	boom := errors.New("boom")
	err = s.withRetry(context.Background(), func(context.Context) error {
		calls++

		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

// TestStorage_Postgres runs against a live database named by TEST_DATABASE_URI.
func TestStorage_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}

	ctx := context.Background()

	store, err := NewStorage(dsn, WithRetryWait(10*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Bootstrap(ctx))
	require.NoError(t, store.Ping(ctx))

	_, err = store.db.ExecContext(ctx, `TRUNCATE pump_reports`)
	require.NoError(t, err)

	table, err := store.Worksheet(ctx, recordstore.PumpReportsSheet)
	require.NoError(t, err)

	require.NoError(t, table.AppendRow(ctx, []any{
		"2024-01-15", "ST1", "Tank 1", "Pump A",
		decimal.NewFromInt(650), decimal.RequireFromString("100.0"), decimal.RequireFromString("250.5"),
		decimal.RequireFromString("150.5"), decimal.NewFromInt(97825), decimal.NewFromInt(5000),
		decimal.NewFromInt(92000),
	}))

	records, err := table.GetAllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	cash, err := recordstore.Decimal(records[0]["expected_cash"])
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(97825).Equal(cash))

	_, err = store.Worksheet(ctx, "fuel_prices")
	assert.ErrorIs(t, err, recordstore.ErrWorksheetNotFound)

	t.Run("keeps every decimal place", func(t *testing.T) {
		_, err := store.db.ExecContext(ctx, `TRUNCATE pump_reports`)
		require.NoError(t, err)

		want, err := reconcile.ComputePumpRow(reconcile.PumpInput{
			Date:          time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
			StationID:     "ST1",
			TankID:        "Tank 2",
			PumpID:        "Pump B",
			PricePerLiter: decimal.RequireFromString("649.995"),
			OpenMeter:     decimal.RequireFromString("12345678.125"),
			CloseMeter:    decimal.RequireFromString("12345878.375"),
			Expenses:      decimal.RequireFromString("1500.5"),
			CashAtHand:    decimal.RequireFromString("128000.25"),
		})
		require.NoError(t, err)

		require.NoError(t, table.AppendRow(ctx, want.Row()))

		records, err := table.GetAllRecords(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)

		got, issues, err := reports.PumpFromRecord(records[0])
		require.NoError(t, err)
		assert.Empty(t, issues)

		assert.True(t, want.PricePerLiter.Equal(got.PricePerLiter), "price_per_liter %s", got.PricePerLiter)
		assert.True(t, want.OpenMeter.Equal(got.OpenMeter), "open_meter %s", got.OpenMeter)
		assert.True(t, want.CloseMeter.Equal(got.CloseMeter), "close_meter %s", got.CloseMeter)
		assert.True(t, want.ExpectedLiters.Equal(got.ExpectedLiters), "expected_liters %s", got.ExpectedLiters)
		assert.True(t, want.ExpectedCash.Equal(got.ExpectedCash), "expected_cash %s", got.ExpectedCash)
		assert.True(t, want.Expenses.Equal(got.Expenses), "expenses %s", got.Expenses)
		assert.True(t, want.CashAtHand.Equal(got.CashAtHand), "cash_at_hand %s", got.CashAtHand)
	})
}
