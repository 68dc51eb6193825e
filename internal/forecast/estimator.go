package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"stockdash/m/domain"
)

// DiagnosticKind names why a product was given zero demand.
type DiagnosticKind string

const (
	InsufficientData DiagnosticKind = "insufficient_data"
	ModelFitFailure  DiagnosticKind = "model_fit_failure"
)

// Severity is the log level a diagnostic is reported at.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Diagnostic is an advisory note about one product. It never stops estimation.
type Diagnostic struct {
	ProductID string         `json:"product_id"`
	Kind      DiagnosticKind `json:"kind"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
}

// Result is the output of Estimate.
type Result struct {
	// Items mirrors the inventory passed in, in the same order, with
	// EstimatedDemand recomputed for every entry.
	Items       []domain.InventoryItem `json:"items"`
	Diagnostics []Diagnostic           `json:"diagnostics"`
	// Forecasts keeps the day-by-day projection behind each estimate.
	Forecasts map[string][]float64 `json:"forecasts,omitempty"`
}

type outcome struct {
	demand     float64
	forecast   []float64
	diagnostic *Diagnostic
}

// Estimate recomputes the estimated demand of every inventory item from the
// sales ledger. Items without enough history, or whose model cannot be fit,
// get 0 and a diagnostic. Only an unusable ledger timestamp or an invalid
// config returns an error, as does cancelling ctx. The inventory slice is
// not modified.
func Estimate(ctx context.Context, sales []domain.Sale, inventory []domain.InventoryItem, cfg Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	byProduct := make(map[string][]domain.Sale)
	for i, sale := range sales {
		if sale.Date.IsZero() {
			return Result{}, &MalformedInputError{Row: i + 1, ProductID: sale.ID, Reason: "missing or unparseable timestamp"}
		}
		byProduct[sale.ID] = append(byProduct[sale.ID], sale)
	}

	ids := make([]string, 0, len(inventory))
	seen := make(map[string]bool, len(inventory))
	for _, item := range inventory {
		if !seen[item.ID] {
			seen[item.ID] = true
			ids = append(ids, item.ID)
		}
	}

	outcomes := make([]outcome, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = estimateProduct(id, byProduct[id], cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	demand := make(map[string]float64, len(ids))
	result := Result{
		Items:       make([]domain.InventoryItem, len(inventory)),
		Diagnostics: []Diagnostic{},
		Forecasts:   make(map[string][]float64),
	}
	for i, id := range ids {
		o := outcomes[i]
		demand[id] = o.demand
		if o.diagnostic != nil {
			result.Diagnostics = append(result.Diagnostics, *o.diagnostic)
		}
		if o.forecast != nil {
			result.Forecasts[id] = o.forecast
		}
	}
	for i, item := range inventory {
		item.EstimatedDemand = demand[item.ID]
		result.Items[i] = item
	}
	return result, nil
}

func estimateProduct(id string, sales []domain.Sale, cfg Config) outcome {
	if len(sales) < cfg.MinHistory || len(sales) == 0 {
		return outcome{diagnostic: &Diagnostic{
			ProductID: id,
			Kind:      InsufficientData,
			Severity:  SeverityInfo,
			Message:   fmt.Sprintf("insufficient history for ID %s (minimum %d sales)", id, cfg.MinHistory),
		}}
	}

	series := BuildDailySeries(sales)
	model, err := FitARIMA(series.Values, cfg.Order)
	if err != nil {
		return outcome{diagnostic: &Diagnostic{
			ProductID: id,
			Kind:      ModelFitFailure,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("model could not be fit for ID %s: %v", id, err),
		}}
	}

	projection := model.Forecast(cfg.Horizon)
	mean := stat.Mean(projection, nil)
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return outcome{diagnostic: &Diagnostic{
			ProductID: id,
			Kind:      ModelFitFailure,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("model could not be fit for ID %s: forecast is not finite", id),
		}}
	}
	return outcome{demand: RoundDemand(mean), forecast: projection}
}

// RoundDemand clamps negative values to zero and rounds to two decimals.
func RoundDemand(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
