package domain

import "time"

// Change actions recorded in the history log.
const (
	ActionSale        = "Sale"
	ActionLoadInitial = "Load Initial Inventory"
	ActionRestock     = "Restock"
	ActionEdit        = "Edit"
	ActionDelete      = "Delete"
	ActionEstimate    = "Estimate Demand"
)

// ChangeRecord is one entry of the change-history audit log.
type ChangeRecord struct {
	Date      time.Time `db:"date" json:"date"`
	Action    string    `db:"action" json:"action"`
	ProductID string    `db:"product_id" json:"product_id"`
	User      string    `db:"user" json:"user"`
}
