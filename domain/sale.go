package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one line of the append-only sales ledger.
type Sale struct {
	Date         time.Time       `db:"date" json:"date"`
	ID           string          `db:"product_id" json:"id"`
	Product      string          `db:"product" json:"product"`
	QuantitySold int64           `db:"quantity_sold" json:"quantity_sold"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	Total        decimal.Decimal `db:"total" json:"total"`
	User         string          `db:"user" json:"user"`
}

// NewSale builds a ledger line with Total = quantity x unit price rounded to cents.
func NewSale(at time.Time, item InventoryItem, quantity int64, user string) Sale {
	price := item.Price.Round(2)
	return Sale{
		Date:         at,
		ID:           item.ID,
		Product:      item.Product,
		QuantitySold: quantity,
		UnitPrice:    price,
		Total:        price.Mul(decimal.NewFromInt(quantity)).Round(2),
		User:         user,
	}
}
