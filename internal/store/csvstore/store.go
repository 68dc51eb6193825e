// Package csvstore keeps the inventory, sales and history tables as flat CSV files.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"stockdash/m/domain"
	"stockdash/m/internal/store"
)

const (
	InventoryFile = "inventory.csv"
	SalesFile     = "sales.csv"
	HistoryFile   = "change_history.csv"
)

// Store implements store.Store on top of a data directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

var _ store.Store = (*Store)(nil)

// New creates the data directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) Close() error { return nil }

// Initialized reports whether either the inventory or the sales file exists.
func (s *Store) Initialized(ctx context.Context) (bool, error) {
	for _, name := range []string{InventoryFile, SalesFile} {
		_, err := os.Stat(s.path(name))
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false, err
		}
	}
	return false, nil
}

func (s *Store) LoadInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadInventory()
}

func (s *Store) loadInventory() ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	err := readFile(s.path(InventoryFile), func(r io.Reader) (err error) {
		items, err = DecodeInventory(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return items, nil
}

func (s *Store) SaveInventory(ctx context.Context, items []domain.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveInventory(items)
}

func (s *Store) saveInventory(items []domain.InventoryItem) error {
	if err := store.CheckUniqueIDs(items); err != nil {
		return err
	}
	err := writeAtomic(s.path(InventoryFile), func(w io.Writer) error {
		return EncodeInventory(w, items)
	})
	if err != nil {
		return fmt.Errorf("failed to save inventory: %w", err)
	}
	return nil
}

func (s *Store) AppendInventory(ctx context.Context, items []domain.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadInventory()
	if err != nil {
		return err
	}
	if err := store.CheckUniqueIDs(existing, items); err != nil {
		return err
	}
	return s.saveInventory(append(existing, items...))
}

func (s *Store) DeleteInventory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadInventory()
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return store.ErrNotFound
	}
	return s.saveInventory(kept)
}

func (s *Store) LoadSales(ctx context.Context) ([]domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sales []domain.Sale
	err := readFile(s.path(SalesFile), func(r io.Reader) (err error) {
		sales, err = DecodeSales(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	return sales, nil
}

func (s *Store) AppendSale(ctx context.Context, sale domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := appendRow(s.path(SalesFile), SalesHeader, saleRecord(sale)); err != nil {
		return fmt.Errorf("failed to append sale: %w", err)
	}
	return nil
}

// ReplaceSales rewrites the whole ledger. Only the demo seeder uses it.
func (s *Store) ReplaceSales(ctx context.Context, sales []domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.path(SalesFile), func(w io.Writer) error {
		return EncodeSales(w, sales)
	})
}

func (s *Store) LoadHistory(ctx context.Context) ([]domain.ChangeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []domain.ChangeRecord
	err := readFile(s.path(HistoryFile), func(r io.Reader) (err error) {
		records, err = DecodeHistory(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return records, nil
}

func (s *Store) AppendChange(ctx context.Context, rec domain.ChangeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := appendRow(s.path(HistoryFile), HistoryHeader, historyRecord(rec)); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// readFile runs decode on the file; a missing file leaves the result empty.
func readFile(path string, decode func(io.Reader) error) error {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	if err := decode(file); err != nil && !errors.Is(err, ErrEmptyFile) {
		return err
	}
	return nil
}

// writeAtomic writes through a temp file in the same directory and renames it into place.
func writeAtomic(path string, encode func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// appendRow adds one record to the end of a CSV file, writing the header first for a new file.
func appendRow(path string, header, record []string) error {
	needHeader := true
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		needHeader = false
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if needHeader {
		if err := writer.Write(header); err != nil {
			return err
		}
	}
	if err := writer.Write(record); err != nil {
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Sync()
}
