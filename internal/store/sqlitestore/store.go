// Package sqlitestore keeps the three application tables in SQLite.
package sqlitestore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"stockdash/m/domain"
	"stockdash/m/internal/database"
	"stockdash/m/internal/migrations"
	"stockdash/m/internal/store"
)

// Store implements store.Store on a SQLite database.
type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn and applies the schema.
func Open(dsn string) (*Store, error) {
	db, err := database.Connect(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

type inventoryRow struct {
	ID              string          `db:"id"`
	Product         string          `db:"product"`
	Category        string          `db:"category"`
	Quantity        int64           `db:"quantity"`
	Price           decimal.Decimal `db:"price"`
	Supplier        string          `db:"supplier"`
	LastUpdate      string          `db:"last_update"`
	EstimatedDemand float64         `db:"estimated_demand"`
	Position        int             `db:"position"`
}

type saleRow struct {
	Seq          int64           `db:"seq"`
	Date         string          `db:"date"`
	ProductID    string          `db:"product_id"`
	Product      string          `db:"product"`
	QuantitySold int64           `db:"quantity_sold"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
	Total        decimal.Decimal `db:"total"`
	Username     string          `db:"username"`
}

type historyRow struct {
	Seq       int64  `db:"seq"`
	Date      string `db:"date"`
	Action    string `db:"action"`
	ProductID string `db:"product_id"`
	Username  string `db:"username"`
}

func (s *Store) Initialized(ctx context.Context) (bool, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT (SELECT COUNT(*) FROM inventory) + (SELECT COUNT(*) FROM sales)`)
	if err != nil {
		return false, fmt.Errorf("unable to inspect tables: %w", err)
	}
	return count > 0, nil
}

func (s *Store) LoadInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	var rows []inventoryRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, product, category, quantity, price, supplier, last_update, estimated_demand, position FROM inventory ORDER BY position, rowid`); err != nil {
		return nil, fmt.Errorf("unable to load inventory: %w", err)
	}
	items := make([]domain.InventoryItem, 0, len(rows))
	for _, row := range rows {
		updated, err := domain.ParseTimestamp(row.LastUpdate)
		if err != nil {
			return nil, fmt.Errorf("inventory %s: %w", row.ID, err)
		}
		items = append(items, domain.InventoryItem{
			ID:              row.ID,
			Product:         row.Product,
			Category:        row.Category,
			Quantity:        row.Quantity,
			Price:           row.Price.Round(2),
			Supplier:        row.Supplier,
			LastUpdate:      updated,
			EstimatedDemand: row.EstimatedDemand,
		})
	}
	return items, nil
}

const insertInventory = `INSERT INTO inventory (id, product, category, quantity, price, supplier, last_update, estimated_demand, position)
        VALUES (:id, :product, :category, :quantity, :price, :supplier, :last_update, :estimated_demand, :position)`

func toRow(item domain.InventoryItem, position int) map[string]any {
	return map[string]any{
		"id":               item.ID,
		"product":          item.Product,
		"category":         item.Category,
		"quantity":         item.Quantity,
		"price":            item.Price.StringFixed(2),
		"supplier":         item.Supplier,
		"last_update":      domain.FormatTimestamp(item.LastUpdate),
		"estimated_demand": decimal.NewFromFloat(item.EstimatedDemand).Round(2).InexactFloat64(),
		"position":         position,
	}
}

func (s *Store) SaveInventory(ctx context.Context, items []domain.InventoryItem) error {
	if err := store.CheckUniqueIDs(items); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to start inventory save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory`); err != nil {
		return fmt.Errorf("unable to clear inventory: %w", err)
	}
	for i, item := range items {
		if _, err := tx.NamedExecContext(ctx, insertInventory, toRow(item, i)); err != nil {
			return fmt.Errorf("unable to save inventory %s: %w", item.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) AppendInventory(ctx context.Context, items []domain.InventoryItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to start restock: %w", err)
	}
	defer tx.Rollback()

	var ids []string
	if err := tx.SelectContext(ctx, &ids, `SELECT id FROM inventory`); err != nil {
		return fmt.Errorf("unable to read inventory ids: %w", err)
	}
	existing := make([]domain.InventoryItem, len(ids))
	for i, id := range ids {
		existing[i].ID = id
	}
	if err := store.CheckUniqueIDs(existing, items); err != nil {
		return err
	}
	var next int
	if err := tx.GetContext(ctx, &next, `SELECT COALESCE(MAX(position) + 1, 0) FROM inventory`); err != nil {
		return fmt.Errorf("unable to read inventory position: %w", err)
	}
	for i, item := range items {
		if _, err := tx.NamedExecContext(ctx, insertInventory, toRow(item, next+i)); err != nil {
			return fmt.Errorf("unable to add inventory %s: %w", item.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) DeleteInventory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM inventory WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("unable to delete inventory %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) LoadSales(ctx context.Context) ([]domain.Sale, error) {
	var rows []saleRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT seq, date, product_id, product, quantity_sold, unit_price, total, username FROM sales ORDER BY seq`); err != nil {
		return nil, fmt.Errorf("unable to load sales: %w", err)
	}
	sales := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		at, err := domain.ParseTimestamp(row.Date)
		if err != nil {
			return nil, fmt.Errorf("sale %d: %w", row.Seq, err)
		}
		sales = append(sales, domain.Sale{
			Date:         at,
			ID:           row.ProductID,
			Product:      row.Product,
			QuantitySold: row.QuantitySold,
			UnitPrice:    row.UnitPrice,
			Total:        row.Total,
			User:         row.Username,
		})
	}
	return sales, nil
}

func (s *Store) AppendSale(ctx context.Context, sale domain.Sale) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sales (date, product_id, product, quantity_sold, unit_price, total, username) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		domain.FormatTimestamp(sale.Date), sale.ID, sale.Product, sale.QuantitySold, sale.UnitPrice.StringFixed(2), sale.Total.StringFixed(2), sale.User)
	if err != nil {
		return fmt.Errorf("unable to append sale: %w", err)
	}
	return nil
}

// ReplaceSales rewrites the whole ledger in one transaction. Only the demo seeder uses it.
func (s *Store) ReplaceSales(ctx context.Context, sales []domain.Sale) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to start sales seed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales`); err != nil {
		return fmt.Errorf("unable to clear sales: %w", err)
	}
	stmt, err := tx.PreparexContext(ctx, `INSERT INTO sales (date, product_id, product, quantity_sold, unit_price, total, username) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("unable to prepare sale insert: %w", err)
	}
	defer stmt.Close()

	for _, sale := range sales {
		if _, err := stmt.ExecContext(ctx, domain.FormatTimestamp(sale.Date), sale.ID, sale.Product, sale.QuantitySold, sale.UnitPrice.StringFixed(2), sale.Total.StringFixed(2), sale.User); err != nil {
			return fmt.Errorf("unable to insert sale: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) LoadHistory(ctx context.Context) ([]domain.ChangeRecord, error) {
	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT seq, date, action, product_id, username FROM change_history ORDER BY seq`); err != nil {
		return nil, fmt.Errorf("unable to load history: %w", err)
	}
	records := make([]domain.ChangeRecord, 0, len(rows))
	for _, row := range rows {
		at, err := domain.ParseTimestamp(row.Date)
		if err != nil {
			return nil, fmt.Errorf("history %d: %w", row.Seq, err)
		}
		records = append(records, domain.ChangeRecord{Date: at, Action: row.Action, ProductID: row.ProductID, User: row.Username})
	}
	return records, nil
}

func (s *Store) AppendChange(ctx context.Context, rec domain.ChangeRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO change_history (date, action, product_id, username) VALUES (?, ?, ?, ?)`,
		domain.FormatTimestamp(rec.Date), rec.Action, rec.ProductID, rec.User)
	if err != nil {
		return fmt.Errorf("unable to append history: %w", err)
	}
	return nil
}
