package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stockdash/m/domain"
	"stockdash/m/internal/store"
)

// DemoSalesStart is the first day of the demo ledger.
var DemoSalesStart = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

const demoSalesDays = 30

type demoProduct struct {
	item     domain.InventoryItem
	hour     int
	dailyQty int64
}

func ts(s string) time.Time {
	t, err := domain.ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return t
}

func demoProducts() []demoProduct {
	return []demoProduct{
		{domain.InventoryItem{ID: "001", Product: "Laptop", Category: "Electronics", Quantity: 10, Price: decimal.RequireFromString("1200.00"), Supplier: "Dell", LastUpdate: ts("2025-03-02 10:00:00")}, 9, 1},
		{domain.InventoryItem{ID: "002", Product: "T-shirt", Category: "Clothing", Quantity: 20, Price: decimal.RequireFromString("15.50"), Supplier: "Zara", LastUpdate: ts("2025-03-01 15:30:00")}, 10, 3},
		{domain.InventoryItem{ID: "003", Product: "1kg Rice", Category: "Food", Quantity: 50, Price: decimal.RequireFromString("2.80"), Supplier: "Local", LastUpdate: ts("2025-02-28 09:15:00")}, 11, 5},
		{domain.InventoryItem{ID: "004", Product: "Chair", Category: "Furniture", Quantity: 15, Price: decimal.RequireFromString("45.00"), Supplier: "Ikea", LastUpdate: ts("2025-03-01 12:00:00")}, 12, 2},
		{domain.InventoryItem{ID: "005", Product: "LED Bulb", Category: "Lighting", Quantity: 30, Price: decimal.RequireFromString("3.75"), Supplier: "Philips", LastUpdate: ts("2025-03-02 14:20:00")}, 13, 4},
	}
}

// DemoInventory returns the five demo products.
func DemoInventory() []domain.InventoryItem {
	products := demoProducts()
	items := make([]domain.InventoryItem, len(products))
	for i, p := range products {
		items[i] = p.item
	}
	return items
}

// DemoSales returns one sale per product per day for 30 days.
func DemoSales() []domain.Sale {
	products := demoProducts()
	sales := make([]domain.Sale, 0, demoSalesDays*len(products))
	for d := 0; d < demoSalesDays; d++ {
		date := DemoSalesStart.AddDate(0, 0, d)
		for _, p := range products {
			at := date.Add(time.Duration(p.hour) * time.Hour)
			sales = append(sales, domain.NewSale(at, p.item, p.dailyQty, "admin"))
		}
	}
	return sales
}

type bulkLedger interface {
	ReplaceSales(ctx context.Context, sales []domain.Sale) error
}

// LoadDemo writes the demo inventory and sales ledger into a store that
// holds no data yet. It reports whether anything was written.
func LoadDemo(ctx context.Context, st store.Store, logger logrus.FieldLogger) (bool, error) {
	ok, err := st.Initialized(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}

	if err := st.SaveInventory(ctx, DemoInventory()); err != nil {
		return false, fmt.Errorf("unable to seed inventory: %w", err)
	}

	sales := DemoSales()
	if bulk, ok := st.(bulkLedger); ok {
		err = bulk.ReplaceSales(ctx, sales)
	} else {
		for _, sale := range sales {
			if err = st.AppendSale(ctx, sale); err != nil {
				break
			}
		}
	}
	if err != nil {
		return false, fmt.Errorf("unable to seed sales: %w", err)
	}

	logger.WithFields(logrus.Fields{"products": len(DemoInventory()), "sales": len(sales)}).Info("seeded demo inventory and sales ledger")
	return true, nil
}
