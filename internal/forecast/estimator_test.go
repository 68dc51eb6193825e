package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stockdash/m/domain"
)

func item(id string, demand float64) domain.InventoryItem {
	return domain.InventoryItem{ID: id, Product: "p" + id, Quantity: 10, Price: decimal.NewFromInt(1), EstimatedDemand: demand}
}

// dailySales returns one row per day starting 2025-02-01 with the given quantities.
func dailySales(id string, quantities ...int64) []domain.Sale {
	start := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	sales := make([]domain.Sale, len(quantities))
	for i, q := range quantities {
		sales[i] = domain.Sale{Date: start.AddDate(0, 0, i), ID: id, QuantitySold: q}
	}
	return sales
}

func findDiagnostic(diags []Diagnostic, id string) *Diagnostic {
	for i := range diags {
		if diags[i].ProductID == id {
			return &diags[i]
		}
	}
	return nil
}

func TestEstimate_ConstantDemand(t *testing.T) {
	sales := dailySales("001", 1, 1, 1, 1, 1, 1, 1, 1, 1, 1)

	res, err := Estimate(context.Background(), sales, []domain.InventoryItem{item("001", 0)}, DefaultConfig())
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if got := res.Items[0].EstimatedDemand; math.Abs(got-1.0) > 0.01 {
		t.Errorf("Expected demand ~1.00, got %v", got)
	}
	if len(res.Forecasts["001"]) != 30 {
		t.Errorf("Expected 30 forecast days, got %d", len(res.Forecasts["001"]))
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("Expected no diagnostics, got %v", res.Diagnostics)
	}
}

func TestEstimate_InsufficientHistory(t *testing.T) {
	sales := dailySales("002", 1, 2, 3, 4, 5, 6, 7, 8, 9)

	res, err := Estimate(context.Background(), sales, []domain.InventoryItem{item("002", 7.5)}, DefaultConfig())
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if got := res.Items[0].EstimatedDemand; got != 0 {
		t.Errorf("Expected demand reset to 0, got %v", got)
	}
	d := findDiagnostic(res.Diagnostics, "002")
	if d == nil {
		t.Fatalf("Expected diagnostic for 002")
	}
	if d.Kind != InsufficientData || d.Severity != SeverityInfo {
		t.Errorf("Unexpected diagnostic %+v", d)
	}
	if d.Message != "insufficient history for ID 002 (minimum 10 sales)" {
		t.Errorf("Unexpected message %q", d.Message)
	}
}

func TestEstimate_DefaultSafety(t *testing.T) {
	for n := 0; n < 10; n++ {
		t.Run(fmt.Sprintf("%d rows", n), func(t *testing.T) {
			qty := make([]int64, n)
			for i := range qty {
				qty[i] = 5
			}
			res, err := Estimate(context.Background(), dailySales("A", qty...), []domain.InventoryItem{item("A", 3)}, DefaultConfig())
			if err != nil {
				t.Fatalf("Estimate failed: %v", err)
			}
			if res.Items[0].EstimatedDemand != 0 {
				t.Errorf("Expected 0, got %v", res.Items[0].EstimatedDemand)
			}
		})
	}
}

func TestEstimate_FailureIsolation(t *testing.T) {
	sales := dailySales("good", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		sales = append(sales, domain.Sale{Date: at, ID: "bad", QuantitySold: 0})
	}
	inventory := []domain.InventoryItem{item("bad", 4), item("good", 0)}

	res, err := Estimate(context.Background(), sales, inventory, DefaultConfig())
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(res.Items))
	}
	if res.Items[0].ID != "bad" || res.Items[0].EstimatedDemand != 0 {
		t.Errorf("Expected bad item with 0 demand, got %+v", res.Items[0])
	}
	if res.Items[1].ID != "good" || res.Items[1].EstimatedDemand <= 0 {
		t.Errorf("Expected good item with positive demand, got %+v", res.Items[1])
	}
	d := findDiagnostic(res.Diagnostics, "bad")
	if d == nil || d.Kind != ModelFitFailure || d.Severity != SeverityWarning {
		t.Fatalf("Expected model fit warning for bad, got %+v", d)
	}
	if !strings.HasPrefix(d.Message, "model could not be fit for ID bad: ") {
		t.Errorf("Unexpected message %q", d.Message)
	}
	if findDiagnostic(res.Diagnostics, "good") != nil {
		t.Errorf("Did not expect diagnostic for good")
	}
}

func TestEstimate_CompletenessAndOrder(t *testing.T) {
	sales := dailySales("001", 2, 3, 2, 4, 3, 2, 5, 3, 4, 2, 3)
	inventory := []domain.InventoryItem{item("003", 9), item("001", 0), item("absent", 1.25), item("001", 0)}

	res, err := Estimate(context.Background(), sales, inventory, DefaultConfig())
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if len(res.Items) != len(inventory) {
		t.Fatalf("Expected %d items, got %d", len(inventory), len(res.Items))
	}
	for i, it := range res.Items {
		if it.ID != inventory[i].ID {
			t.Errorf("position %d: expected %s, got %s", i, inventory[i].ID, it.ID)
		}
	}
	if res.Items[1].EstimatedDemand != res.Items[3].EstimatedDemand {
		t.Errorf("Duplicate IDs should share one estimate: %v vs %v", res.Items[1].EstimatedDemand, res.Items[3].EstimatedDemand)
	}
	if res.Items[0].EstimatedDemand != 0 || res.Items[2].EstimatedDemand != 0 {
		t.Errorf("IDs without sales must be reset to 0, got %+v", res.Items)
	}
	if inventory[0].EstimatedDemand != 9 {
		t.Errorf("Input inventory must not be modified")
	}
	if len(res.Diagnostics) != 2 {
		t.Errorf("Expected 2 diagnostics, got %v", res.Diagnostics)
	}
}

func TestEstimate_Rounding(t *testing.T) {
	sales := dailySales("r", 3, 7, 2, 9, 4, 6, 1, 8, 5, 7, 3, 6, 2, 9)

	res, err := Estimate(context.Background(), sales, []domain.InventoryItem{item("r", 0)}, DefaultConfig())
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	got := res.Items[0].EstimatedDemand
	if got < 0 {
		t.Fatalf("Expected non-negative demand, got %v", got)
	}
	if scaled := got * 100; math.Abs(scaled-math.Round(scaled)) > 1e-6 {
		t.Errorf("Expected at most 2 decimals, got %v", got)
	}
}

func TestEstimate_Idempotent(t *testing.T) {
	sales := append(dailySales("x", 3, 7, 2, 9, 4, 6, 1, 8, 5, 7, 3), dailySales("y", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)...)
	inventory := []domain.InventoryItem{item("x", 0), item("y", 0), item("z", 0)}
	cfg := DefaultConfig()
	cfg.Workers = 3

	first, err := Estimate(context.Background(), sales, inventory, cfg)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	second, err := Estimate(context.Background(), sales, first.Items, cfg)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	for i := range first.Items {
		if first.Items[i].EstimatedDemand != second.Items[i].EstimatedDemand {
			t.Errorf("item %s: %v != %v", first.Items[i].ID, first.Items[i].EstimatedDemand, second.Items[i].EstimatedDemand)
		}
	}
}

func TestEstimate_EmptyLedger(t *testing.T) {
	res, err := Estimate(context.Background(), nil, []domain.InventoryItem{item("001", 2), item("002", 3)}, DefaultConfig())
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	for _, it := range res.Items {
		if it.EstimatedDemand != 0 {
			t.Errorf("Expected 0 for %s, got %v", it.ID, it.EstimatedDemand)
		}
	}
}

func TestEstimate_MalformedInput(t *testing.T) {
	sales := dailySales("001", 1, 1, 1)
	sales[1].Date = time.Time{}

	_, err := Estimate(context.Background(), sales, []domain.InventoryItem{item("001", 0)}, DefaultConfig())
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("Expected ErrMalformedInput, got %v", err)
	}
	var mie *MalformedInputError
	if !errors.As(err, &mie) || mie.Row != 2 {
		t.Fatalf("Expected MalformedInputError for row 2, got %v", err)
	}
}

func TestEstimate_ConfigurableThreshold(t *testing.T) {
	sales := dailySales("001", 2, 2, 2, 2, 2)
	cfg := DefaultConfig()
	cfg.MinHistory = 5

	res, err := Estimate(context.Background(), sales, []domain.InventoryItem{item("001", 0)}, cfg)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if got := res.Items[0].EstimatedDemand; math.Abs(got-2) > 0.01 {
		t.Errorf("Expected demand ~2, got %v", got)
	}

	cfg.Horizon = 0
	if _, err := Estimate(context.Background(), sales, nil, cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestRoundDemand(t *testing.T) {
	testCases := []struct {
		in, want float64
	}{
		{1.004, 1},
		{1.005, 1.01},
		{25.5, 25.5},
		{-3.2, 0},
	}
	for _, tc := range testCases {
		if got := RoundDemand(tc.in); got != tc.want {
			t.Errorf("RoundDemand(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestEstimate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inventory := []domain.InventoryItem{item("001", 4)}
	_, err := Estimate(ctx, dailySales("001", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12), inventory, DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if inventory[0].EstimatedDemand != 4 {
		t.Errorf("Input inventory must not change, got %v", inventory[0].EstimatedDemand)
	}
}
