package export

import (
	"bytes"
	"testing"
	"time"

	"rentalhub/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRentals() []*models.Rental {
	return []*models.Rental{
		{
			ID: 100, ProductName: "Cordless drill", ClientID: 1, OwnerID: 2,
			StartDate:    time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
			EndDate:      time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
			NumberOfDays: 5,
			PricePerDay:  decimal.RequireFromString("25.50"),
			TotalPrice:   decimal.RequireFromString("127.50"),
			Status:       models.StatusAccepted,
		},
		{
			ID: 101, ProductName: "Pressure washer", ClientID: 3, OwnerID: 2,
			StartDate:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			EndDate:      time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
			NumberOfDays: 2,
			PricePerDay:  decimal.RequireFromString("18.99"),
			TotalPrice:   decimal.RequireFromString("37.98"),
			Status:       models.StatusCompleted,
		},
	}
}

func sampleProducts() []*models.Product {
	return []*models.Product{
		{
			ID: 10, OwnerID: 2, Name: "Cordless drill",
			PricePerDay: decimal.RequireFromString("25.50"),
			IsActive:    true, IsAvailable: true,
		},
		{
			ID: 11, OwnerID: 2, Name: "Pressure washer",
			PricePerDay: decimal.RequireFromString("18.99"),
			IsActive:    true, IsAvailable: false,
		},
	}
}

func TestWriteRentalsWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRentalsWorkbook(sampleRentals(), sampleProducts(), &buf))
	require.NotZero(t, buf.Len())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Status", rows[0][9])

	assert.Equal(t, "100", rows[1][0])
	assert.Equal(t, "Cordless drill", rows[1][1])
	assert.Equal(t, "2026-03-12", rows[1][4])
	assert.Equal(t, "127.5", rows[1][8])
	assert.Equal(t, models.StatusAccepted, rows[1][9])

	assert.Equal(t, "Pressure washer", rows[2][1])

	inventory, err := f.GetRows(inventorySheet)
	require.NoError(t, err)
	require.Len(t, inventory, 3)
	assert.Equal(t, "Name", inventory[0][1])
	assert.Equal(t, "Cordless drill", inventory[1][1])
	assert.Equal(t, "25.5", inventory[1][3])
	assert.Equal(t, "TRUE", inventory[1][4])
	assert.Equal(t, "FALSE", inventory[2][4])
}

func TestSaveRentalsWorkbook(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveRentalsWorkbook(sampleRentals(), sampleProducts(), dir)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestEmptyReportStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRentalsWorkbook(nil, nil, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	inventory, err := f.GetRows(inventorySheet)
	require.NoError(t, err)
	require.Len(t, inventory, 1)
}
