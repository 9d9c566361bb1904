package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"rentalhub/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName      = "Rentals"
	inventorySheet = "Inventory"
)

var columns = []string{
	"ID", "Product", "Client ID", "Owner ID", "Start", "End",
	"Days", "Price/Day", "Total", "Status", "Returned", "Created",
}

var inventoryColumns = []string{
	"ID", "Name", "Owner ID", "Price/Day", "Available",
}

// WriteRentalsWorkbook streams an XLSX report: one sheet of rentals,
// one of the rentable catalog.
func WriteRentalsWorkbook(rentals []*models.Rental, products []*models.Product, w io.Writer) error {
	f, err := buildWorkbook(rentals, products)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %v", err)
	}
	return nil
}

// SaveRentalsWorkbook writes the report into dir and returns the path.
func SaveRentalsWorkbook(rentals []*models.Rental, products []*models.Product, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f, err := buildWorkbook(rentals, products)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("rentals_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	filePath := filepath.Join(dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}
	return filePath, nil
}

func buildWorkbook(rentals []*models.Rental, products []*models.Product) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, col)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(columns), 1)
	_ = f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle)

	for row, r := range rentals {
		values := []any{
			r.ID,
			r.ProductName,
			r.ClientID,
			r.OwnerID,
			r.StartDate.Format(models.DateLayout),
			r.EndDate.Format(models.DateLayout),
			r.NumberOfDays,
			r.PricePerDay.String(),
			r.TotalPrice.String(),
			r.Status,
			r.EquipmentReturned,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "L", 16)
	_ = f.SetColWidth(sheetName, "B", "B", 28)

	if _, err := f.NewSheet(inventorySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating inventory sheet: %v", err)
	}
	for i, col := range inventoryColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(inventorySheet, cell, col)
	}
	lastInventoryHeader, _ := excelize.CoordinatesToCellName(len(inventoryColumns), 1)
	_ = f.SetCellStyle(inventorySheet, "A1", lastInventoryHeader, headerStyle)

	for row, p := range products {
		values := []any{
			p.ID,
			p.Name,
			p.OwnerID,
			p.PricePerDay.String(),
			p.IsAvailable,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(inventorySheet, cell, v)
		}
	}
	_ = f.SetColWidth(inventorySheet, "A", "E", 16)
	_ = f.SetColWidth(inventorySheet, "B", "B", 28)

	_ = f.DeleteSheet("Sheet1")

	return f, nil
}
