package csvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stockdash/m/domain"
	"stockdash/m/internal/store"
)

func newItem(id string, qty int64, price string) domain.InventoryItem {
	return domain.InventoryItem{
		ID:         id,
		Product:    "Product " + id,
		Category:   "General",
		Quantity:   qty,
		Price:      decimal.RequireFromString(price),
		Supplier:   "Acme",
		LastUpdate: time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestStore_InventoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	items := []domain.InventoryItem{newItem("001", 10, "1200"), newItem("002", 20, "15.5")}
	items[1].EstimatedDemand = 3.456
	if err := s.SaveInventory(ctx, items); err != nil {
		t.Fatalf("SaveInventory failed: %v", err)
	}

	loaded, err := s.LoadInventory(ctx)
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(loaded))
	}
	if !loaded[1].Price.Equal(decimal.RequireFromString("15.50")) || loaded[1].EstimatedDemand != 3.46 {
		t.Errorf("Unexpected item %+v", loaded[1])
	}
	if !loaded[0].LastUpdate.Equal(items[0].LastUpdate) {
		t.Errorf("Expected last update %v, got %v", items[0].LastUpdate, loaded[0].LastUpdate)
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, InventoryFile))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(raw), "002,Product 002,General,20,15.50,Acme,2025-03-02 10:00:00,3.46") {
		t.Errorf("Unexpected file contents:\n%s", raw)
	}
}

func TestStore_AppendAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := New(t.TempDir())

	if err := s.SaveInventory(ctx, []domain.InventoryItem{newItem("001", 1, "1")}); err != nil {
		t.Fatalf("SaveInventory failed: %v", err)
	}
	if err := s.AppendInventory(ctx, []domain.InventoryItem{newItem("002", 2, "2")}); err != nil {
		t.Fatalf("AppendInventory failed: %v", err)
	}
	if err := s.AppendInventory(ctx, []domain.InventoryItem{newItem("001", 2, "2")}); !errors.Is(err, store.ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID, got %v", err)
	}
	if err := s.DeleteInventory(ctx, "001"); err != nil {
		t.Fatalf("DeleteInventory failed: %v", err)
	}
	if err := s.DeleteInventory(ctx, "001"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	items, _ := s.LoadInventory(ctx)
	if len(items) != 1 || items[0].ID != "002" {
		t.Errorf("Unexpected inventory %+v", items)
	}
}

func TestStore_SalesAppendOnly(t *testing.T) {
	ctx := context.Background()
	s, _ := New(t.TempDir())

	if ok, _ := s.Initialized(ctx); ok {
		t.Fatalf("Fresh store should not be initialized")
	}

	item := newItem("003", 50, "2.80")
	at := time.Date(2025, 2, 1, 11, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := s.AppendSale(ctx, domain.NewSale(at.AddDate(0, 0, i), item, 5, "admin")); err != nil {
			t.Fatalf("AppendSale failed: %v", err)
		}
	}

	sales, err := s.LoadSales(ctx)
	if err != nil {
		t.Fatalf("LoadSales failed: %v", err)
	}
	if len(sales) != 3 {
		t.Fatalf("Expected 3 sales, got %d", len(sales))
	}
	if !sales[2].Total.Equal(decimal.RequireFromString("14")) || !sales[2].Date.Equal(at.AddDate(0, 0, 2)) {
		t.Errorf("Unexpected sale %+v", sales[2])
	}
}

func TestStore_MalformedSalesTimestamp(t *testing.T) {
	dir := t.TempDir()
	content := "Date,ID,Product,Quantity Sold,Unit Price,Total,User\n" +
		"2025-02-01 09:00:00,001,Laptop,1,1200.00,1200.00,admin\n" +
		"not a date,001,Laptop,1,1200.00,1200.00,admin\n"
	if err := os.WriteFile(filepath.Join(dir, SalesFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := New(dir)

	_, err := s.LoadSales(context.Background())
	if !errors.Is(err, domain.ErrMalformedTimestamp) {
		t.Fatalf("Expected ErrMalformedTimestamp, got %v", err)
	}
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 3 {
		t.Errorf("Expected RowError on line 3, got %v", err)
	}
}

func TestStore_History(t *testing.T) {
	ctx := context.Background()
	s, _ := New(t.TempDir())

	rec := domain.ChangeRecord{Date: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), Action: domain.ActionDelete, ProductID: "004", User: "admin"}
	if err := s.AppendChange(ctx, rec); err != nil {
		t.Fatalf("AppendChange failed: %v", err)
	}
	history, err := s.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(history) != 1 || !history[0].Date.Equal(rec.Date) || history[0].Action != rec.Action || history[0].ProductID != "004" {
		t.Errorf("Unexpected history %+v", history)
	}
}

func TestDecodeInventory_OptionalDemandAndErrors(t *testing.T) {
	content := "ID,Product,Category,Quantity,Price,Supplier,Last Update\n" +
		"001,Laptop,Electronics,10,1200.004,Dell,2025-03-02 10:00:00\n"
	items, err := DecodeInventory(strings.NewReader(content))
	if err != nil {
		t.Fatalf("DecodeInventory failed: %v", err)
	}
	if items[0].EstimatedDemand != 0 || !items[0].Price.Equal(decimal.RequireFromString("1200")) {
		t.Errorf("Unexpected item %+v", items[0])
	}

	testCases := []struct {
		name    string
		content string
		want    error
	}{
		{"empty", "", ErrEmptyFile},
		{"missing columns", "ID,Product\n001,Laptop\n", ErrMissingColumns},
		{"bad timestamp", "ID,Product,Category,Quantity,Price,Supplier,Last Update\n001,L,E,1,1,D,tomorrow\n", domain.ErrMalformedTimestamp},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeInventory(strings.NewReader(tc.content)); !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}

	_, err = DecodeInventory(strings.NewReader("ID,Product,Category,Quantity,Price,Supplier,Last Update\n001,L,E,1.5,1,D,2025-03-02 10:00:00\n"))
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Column != "Quantity" {
		t.Errorf("Expected Quantity RowError, got %v", err)
	}
}
