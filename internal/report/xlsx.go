package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"stockdash/m/domain"
	"stockdash/m/internal/store/csvstore"
)

const (
	inventorySheet = "Inventory"
	summarySheet   = "Summary"
)

// WriteXLSX writes a workbook with the inventory table and the summary figures.
func WriteXLSX(w io.Writer, summary Summary, items []domain.InventoryItem) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", inventorySheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"808080"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	header := make([]interface{}, len(csvstore.InventoryHeader))
	for i, h := range csvstore.InventoryHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(inventorySheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(inventorySheet, "A1", last, bold); err != nil {
		return err
	}

	for i, item := range items {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			item.ID,
			item.Product,
			item.Category,
			item.Quantity,
			item.Price.Round(2).InexactFloat64(),
			item.Supplier,
			domain.FormatTimestamp(item.LastUpdate),
			item.EstimatedDemand,
		}
		if err := f.SetSheetRow(inventorySheet, cell, &row); err != nil {
			return fmt.Errorf("unable to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Total Inventory Value", summary.TotalValue.InexactFloat64()},
		{fmt.Sprintf("Products with Low Stock (less than %d units)", summary.LowStockThreshold), len(summary.LowStock)},
		{},
		{"Category", "Quantity"},
	}
	for _, c := range summary.QuantityByCategory {
		rows = append(rows, []interface{}{c.Category, c.Quantity})
	}
	for i := range rows {
		if len(rows[i]) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A4", "B4", bold); err != nil {
		return err
	}

	return f.Write(w)
}
