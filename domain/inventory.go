package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the on-disk format of every date+time field.
const TimestampLayout = "2006-01-02 15:04:05"

type InventoryItem struct {
	ID              string          `db:"id" json:"id"`
	Product         string          `db:"product" json:"product"`
	Category        string          `db:"category" json:"category"`
	Quantity        int64           `db:"quantity" json:"quantity"`
	Price           decimal.Decimal `db:"price" json:"price"`
	Supplier        string          `db:"supplier" json:"supplier"`
	LastUpdate      time.Time       `db:"last_update" json:"last_update"`
	EstimatedDemand float64         `db:"estimated_demand" json:"estimated_demand"`
}

// StockValue is quantity on hand times unit price.
func (i InventoryItem) StockValue() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}
