// Package report builds the inventory report and its CSV and XLSX exports.
package report

import (
	"io"

	"github.com/shopspring/decimal"

	"stockdash/m/domain"
	"stockdash/m/internal/store/csvstore"
)

// StockLevel classifies how much of a product is left.
type StockLevel string

const (
	StockOut StockLevel = "out"
	StockLow StockLevel = "low"
	StockOK  StockLevel = "ok"
)

// Level classifies an item: out of stock at 0, low below threshold.
func Level(item domain.InventoryItem, threshold int64) StockLevel {
	switch {
	case item.Quantity == 0:
		return StockOut
	case item.Quantity < threshold:
		return StockLow
	default:
		return StockOK
	}
}

// CategoryTotal is the quantity on hand across one category.
type CategoryTotal struct {
	Category string `json:"category"`
	Quantity int64  `json:"quantity"`
}

// Summary holds the figures shown on the inventory report.
type Summary struct {
	TotalValue         decimal.Decimal        `json:"total_value"`
	LowStockThreshold  int64                  `json:"low_stock_threshold"`
	LowStock           []domain.InventoryItem `json:"low_stock"`
	QuantityByCategory []CategoryTotal        `json:"quantity_by_category"`
}

// Summarize computes the report figures for items.
func Summarize(items []domain.InventoryItem, threshold int64) Summary {
	s := Summary{
		TotalValue:         decimal.Zero,
		LowStockThreshold:  threshold,
		LowStock:           []domain.InventoryItem{},
		QuantityByCategory: []CategoryTotal{},
	}
	byCategory := map[string]int{}
	for _, item := range items {
		s.TotalValue = s.TotalValue.Add(item.StockValue())
		if item.Quantity < threshold {
			s.LowStock = append(s.LowStock, item)
		}
		i, ok := byCategory[item.Category]
		if !ok {
			i = len(s.QuantityByCategory)
			byCategory[item.Category] = i
			s.QuantityByCategory = append(s.QuantityByCategory, CategoryTotal{Category: item.Category})
		}
		s.QuantityByCategory[i].Quantity += item.Quantity
	}
	s.TotalValue = s.TotalValue.Round(2)
	return s
}

// WriteCSV writes items in the inventory table format.
func WriteCSV(w io.Writer, items []domain.InventoryItem) error {
	return csvstore.EncodeInventory(w, items)
}
