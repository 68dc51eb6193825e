package seed

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"stockdash/m/internal/store/csvstore"
)

func TestDemoSales_Shape(t *testing.T) {
	sales := DemoSales()
	if len(sales) != 150 {
		t.Fatalf("Expected 150 demo sales, got %d", len(sales))
	}
	first, last := sales[0], sales[len(sales)-1]
	if first.ID != "001" || first.Date.Hour() != 9 || !first.Total.Equal(first.UnitPrice) {
		t.Errorf("Unexpected first sale %+v", first)
	}
	if last.ID != "005" || last.Date.Day() != 2 || last.Date.Month() != 3 {
		t.Errorf("Unexpected last sale %+v", last)
	}
}

func TestLoadDemo_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	st, err := csvstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger, hook := test.NewNullLogger()

	seeded, err := LoadDemo(ctx, st, logger)
	if err != nil || !seeded {
		t.Fatalf("Expected first LoadDemo to seed, got %v %v", seeded, err)
	}
	if len(hook.Entries) != 1 {
		t.Errorf("Expected one log entry, got %d", len(hook.Entries))
	}

	seeded, err = LoadDemo(ctx, st, logger)
	if err != nil || seeded {
		t.Fatalf("Expected second LoadDemo to be a no-op, got %v %v", seeded, err)
	}

	items, _ := st.LoadInventory(ctx)
	sales, _ := st.LoadSales(ctx)
	if len(items) != 5 || len(sales) != 150 {
		t.Errorf("Expected 5 items and 150 sales, got %d and %d", len(items), len(sales))
	}
}
