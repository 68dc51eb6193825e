package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run creates the flat tables used by the SQLite store.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS inventory (
            id TEXT PRIMARY KEY,
            product TEXT NOT NULL,
            category TEXT NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity >= 0),
            price TEXT NOT NULL,
            supplier TEXT NOT NULL,
            last_update TEXT NOT NULL,
            estimated_demand REAL NOT NULL DEFAULT 0,
            position INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS sales (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            date TEXT NOT NULL,
            product_id TEXT NOT NULL,
            product TEXT NOT NULL,
            quantity_sold INTEGER NOT NULL,
            unit_price TEXT NOT NULL,
            total TEXT NOT NULL,
            username TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_sales_product ON sales (product_id);`,
		`CREATE TABLE IF NOT EXISTS change_history (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            date TEXT NOT NULL,
            action TEXT NOT NULL,
            product_id TEXT NOT NULL,
            username TEXT NOT NULL
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
