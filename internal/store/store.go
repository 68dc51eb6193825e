// Package store defines the durable tables the application reads and writes.
package store

import (
	"context"
	"errors"

	"stockdash/m/domain"
)

var (
	ErrNotFound    = errors.New("product not found")
	ErrDuplicateID = errors.New("duplicate product id")
)

// InventoryStore persists the inventory table keyed by product ID.
type InventoryStore interface {
	LoadInventory(ctx context.Context) ([]domain.InventoryItem, error)
	// SaveInventory replaces the whole table.
	SaveInventory(ctx context.Context, items []domain.InventoryItem) error
	AppendInventory(ctx context.Context, items []domain.InventoryItem) error
	DeleteInventory(ctx context.Context, id string) error
}

// SalesLedger is the append-only table of sales.
type SalesLedger interface {
	LoadSales(ctx context.Context) ([]domain.Sale, error)
	AppendSale(ctx context.Context, sale domain.Sale) error
}

// HistoryLog is the append-only change audit.
type HistoryLog interface {
	LoadHistory(ctx context.Context) ([]domain.ChangeRecord, error)
	AppendChange(ctx context.Context, rec domain.ChangeRecord) error
}

// Store bundles the three tables behind one backend.
type Store interface {
	InventoryStore
	SalesLedger
	HistoryLog
	// Initialized reports whether the inventory or sales table already holds data.
	Initialized(ctx context.Context) (bool, error)
	Close() error
}

// CheckUniqueIDs returns ErrDuplicateID if an ID occurs twice across the given sets.
func CheckUniqueIDs(sets ...[]domain.InventoryItem) error {
	seen := make(map[string]bool)
	for _, items := range sets {
		for _, item := range items {
			if seen[item.ID] {
				return &DuplicateIDError{ID: item.ID}
			}
			seen[item.ID] = true
		}
	}
	return nil
}

type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return "duplicate product id " + e.ID
}

func (e *DuplicateIDError) Is(target error) bool {
	return target == ErrDuplicateID
}
