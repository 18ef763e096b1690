package handlers

import (
	"testing"
	"time"

	"github.com/andymarkow/fueltracker/internal/reconcile"
	"github.com/andymarkow/fueltracker/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, time.March, 2, 9, 30, 0, 0, time.UTC)

func TestDailyInput(t *testing.T) {
	in, err := dailyInput(models.DailyReportRequest{
		TankID:        "Tank 1",
		Opening:       "1000",
		Received:      "500",
		Sales:         "300",
		Closing:       "1200",
		PricePerLiter: "600",
	}, today)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), in.Date)
	assert.Equal(t, int64(1000), in.Opening)
	assert.True(t, decimal.NewFromInt(600).Equal(in.PricePerLiter))
}

func TestDailyInput_CollectsEveryField(t *testing.T) {
	_, err := dailyInput(models.DailyReportRequest{
		Date:          "2024/01/15",
		TankID:        "Tank 7",
		Opening:       "",
		Received:      "x",
		Sales:         "1.5",
		Closing:       "-1",
		PricePerLiter: "",
	}, today)
	require.ErrorIs(t, err, reconcile.ErrValidation)

	var fields []string
	for _, v := range reconcile.Fields(err) {
		fields = append(fields, v.Field)
	}

	assert.Equal(t, []string{"date", "tank_id", "opening", "received", "sales", "closing", "price_per_liter"}, fields)
}

func TestPumpInput_Overrides(t *testing.T) {
	blank := models.Number(" ")
	cash := models.Number("97000")

	in, err := pumpInput(models.PumpReportRequest{
		Date:           "2024-01-15",
		TankID:         "Tank 1",
		PumpID:         "Pump A",
		PricePerLiter:  "650",
		OpenMeter:      "100",
		CloseMeter:     "250.5",
		ExpectedLiters: &blank,
		ExpectedCash:   &cash,
		Expenses:       "0",
		CashAtHand:     "97000",
	}, today)
	require.NoError(t, err)

	assert.Nil(t, in.ExpectedLiters)
	require.NotNil(t, in.ExpectedCash)
	assert.True(t, decimal.NewFromInt(97000).Equal(*in.ExpectedCash))
}

func TestPumpInput_Invalid(t *testing.T) {
	bad := models.Number("lots")

	_, err := pumpInput(models.PumpReportRequest{
		TankID:        "Tank 1",
		PumpID:        "Pump Q",
		PricePerLiter: "650",
		OpenMeter:     "100",
		CloseMeter:    "250.5",
		ExpectedCash:  &bad,
		Expenses:      "0",
		CashAtHand:    "0",
	}, today)
	require.ErrorIs(t, err, reconcile.ErrValidation)

	var fields []string
	for _, v := range reconcile.Fields(err) {
		fields = append(fields, v.Field)
	}

	assert.Equal(t, []string{"pump_id", "expected_cash"}, fields)
}
