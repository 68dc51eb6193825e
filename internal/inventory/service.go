// Package inventory implements the dashboard operations on top of the
// inventory, sales and history tables.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stockdash/m/domain"
	"stockdash/m/internal/forecast"
	"stockdash/m/internal/logging"
	"stockdash/m/internal/store"
	"stockdash/m/internal/store/csvstore"
)

// ImportMode selects the rules applied to an uploaded inventory file.
type ImportMode int

const (
	// ModeLoad replaces the whole inventory; quantities may be zero.
	ModeLoad ImportMode = iota
	// ModeRestock adds new products; quantities must be at least one and IDs must be new.
	ModeRestock
)

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Category string
	Supplier string
}

// ProductUpdate holds the editable fields of a product.
type ProductUpdate struct {
	Product  string          `json:"product"`
	Category string          `json:"category"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Supplier string          `json:"supplier"`
}

// Service serialises every operation; the dashboard has a single operator.
type Service struct {
	store    store.Store
	forecast forecast.Config
	logger   logrus.FieldLogger
	validate *validator.Validate
	now      func() time.Time
	mu       sync.Mutex
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used for Last Update and ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the service over st. cfg is passed to every demand estimate.
func NewService(st store.Store, cfg forecast.Config, logger logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		store:    st,
		forecast: cfg,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) timestamp() time.Time {
	return s.now().Truncate(time.Second)
}

func (s *Service) record(ctx context.Context, action, productID, user string) error {
	rec := domain.ChangeRecord{Date: s.timestamp(), Action: action, ProductID: productID, User: user}
	if err := s.store.AppendChange(ctx, rec); err != nil {
		logging.LogError(s.logger, "inventory", "record", "appending change history", rec, err)
		return err
	}
	return nil
}

// List returns the inventory, optionally filtered by category and supplier.
func (s *Service) List(ctx context.Context, f Filter) ([]domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.LoadInventory(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		if f.Category != "" && item.Category != f.Category {
			continue
		}
		if f.Supplier != "" && item.Supplier != f.Supplier {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// Facets returns the distinct categories and suppliers in table order.
func (s *Service) Facets(ctx context.Context) (categories, suppliers []string, err error) {
	items, err := s.List(ctx, Filter{})
	if err != nil {
		return nil, nil, err
	}
	categories, suppliers = []string{}, []string{}
	seenC, seenS := map[string]bool{}, map[string]bool{}
	for _, item := range items {
		if !seenC[item.Category] {
			seenC[item.Category] = true
			categories = append(categories, item.Category)
		}
		if !seenS[item.Supplier] {
			seenS[item.Supplier] = true
			suppliers = append(suppliers, item.Supplier)
		}
	}
	return categories, suppliers, nil
}

// Search matches term case-insensitively against ID, product name and supplier.
func (s *Service) Search(ctx context.Context, term string) ([]domain.InventoryItem, error) {
	items, err := s.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	out := []domain.InventoryItem{}
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.ID), needle) ||
			strings.Contains(strings.ToLower(item.Product), needle) ||
			strings.Contains(strings.ToLower(item.Supplier), needle) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id string) (domain.InventoryItem, error) {
	items, err := s.List(ctx, Filter{})
	if err != nil {
		return domain.InventoryItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.InventoryItem{}, store.ErrNotFound
}

// RegisterSale takes quantity units of a product out of stock and appends
// the sale to the ledger.
func (s *Service) RegisterSale(ctx context.Context, id string, quantity int64, user string) (domain.Sale, error) {
	if quantity < 1 {
		return domain.Sale{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.LoadInventory(ctx)
	if err != nil {
		return domain.Sale{}, err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		return domain.Sale{}, store.ErrNotFound
	}
	if items[idx].Quantity < quantity {
		return domain.Sale{}, &InsufficientStockError{ID: id, Available: items[idx].Quantity}
	}

	now := s.timestamp()
	before := items[idx]
	items[idx].Quantity -= quantity
	items[idx].LastUpdate = now
	if err := s.store.SaveInventory(ctx, items); err != nil {
		return domain.Sale{}, err
	}

	sale := domain.NewSale(now, items[idx], quantity, user)
	if err := s.store.AppendSale(ctx, sale); err != nil {
		logging.LogError(s.logger, "inventory", "RegisterSale", "appending sale after stock update", sale, err)
		// the ledger has no row for this sale, so the stock must not drop either
		items[idx] = before
		if restoreErr := s.store.SaveInventory(ctx, items); restoreErr != nil {
			logging.LogError(s.logger, "inventory", "RegisterSale", "restoring stock after failed sale", before, restoreErr)
		}
		return domain.Sale{}, err
	}
	if err := s.record(ctx, domain.ActionSale, id, user); err != nil {
		return domain.Sale{}, err
	}
	s.logger.WithFields(logrus.Fields{"id": id, "quantity": quantity, "total": sale.Total.StringFixed(2)}).Info("sale registered")
	return sale, nil
}

// SalesOn returns the sales registered on the calendar day of day and their total.
func (s *Service) SalesOn(ctx context.Context, day time.Time) ([]domain.Sale, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales, err := s.store.LoadSales(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	y, m, d := day.Date()
	out := []domain.Sale{}
	total := decimal.Zero
	for _, sale := range sales {
		sy, sm, sd := sale.Date.Date()
		if sy == y && sm == m && sd == d {
			out = append(out, sale)
			total = total.Add(sale.Total)
		}
	}
	return out, total, nil
}

// Today returns the current day according to the service clock.
func (s *Service) Today() time.Time {
	return s.now()
}

// PrepareImport decodes and validates an uploaded inventory file without
// changing anything. In restock mode IDs already in the inventory are rejected.
func (s *Service) PrepareImport(ctx context.Context, r io.Reader, mode ImportMode) ([]domain.InventoryItem, error) {
	items, err := csvstore.DecodeInventory(r)
	if err != nil {
		var rowErr *csvstore.RowError
		if errors.As(err, &rowErr) {
			return nil, &ImportError{Line: rowErr.Line, Message: rowErr.Err.Error() + " in column " + rowErr.Column}
		}
		return nil, &ImportError{Message: err.Error()}
	}
	if len(items) == 0 {
		return nil, &ImportError{Message: "the file has no products"}
	}

	seen := make(map[string]bool, len(items))
	for i, item := range items {
		line := i + 2
		if err := s.validate.Struct(fieldsOf(item)); err != nil {
			return nil, &ImportError{Line: line, Message: describe(err)}
		}
		if mode == ModeRestock && item.Quantity < 1 {
			return nil, &ImportError{Line: line, Message: "Quantity must be greater than or equal to 1 to restock"}
		}
		if seen[item.ID] {
			return nil, &ImportError{Line: line, Message: fmt.Sprintf("duplicate ID %s; each ID must be unique", item.ID)}
		}
		seen[item.ID] = true
	}

	if mode == ModeRestock {
		s.mu.Lock()
		existing, err := s.store.LoadInventory(ctx)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
		for _, item := range existing {
			if seen[item.ID] {
				return nil, &ImportError{Message: fmt.Sprintf("ID %s already exists in the inventory; use unique IDs for new products", item.ID)}
			}
		}
	}
	return items, nil
}

// LoadInitial replaces the inventory with items.
func (s *Service) LoadInitial(ctx context.Context, items []domain.InventoryItem, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveInventory(ctx, items); err != nil {
		return err
	}
	return s.record(ctx, domain.ActionLoadInitial, "All", user)
}

// Restock appends new products to the inventory.
func (s *Service) Restock(ctx context.Context, items []domain.InventoryItem, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.AppendInventory(ctx, items); err != nil {
		return err
	}
	for _, item := range items {
		if err := s.record(ctx, domain.ActionRestock, item.ID, user); err != nil {
			return err
		}
	}
	return nil
}

// Edit overwrites the editable fields of a product and refreshes Last Update.
func (s *Service) Edit(ctx context.Context, id string, upd ProductUpdate, user string) (domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.LoadInventory(ctx)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		return domain.InventoryItem{}, store.ErrNotFound
	}

	item := items[idx]
	item.Product = strings.TrimSpace(upd.Product)
	item.Category = strings.TrimSpace(upd.Category)
	item.Quantity = upd.Quantity
	item.Price = upd.Price.Round(2)
	item.Supplier = strings.TrimSpace(upd.Supplier)
	if err := s.validate.Struct(fieldsOf(item)); err != nil {
		return domain.InventoryItem{}, fmt.Errorf("%w: %s", ErrInvalidProduct, describe(err))
	}
	item.LastUpdate = s.timestamp()
	items[idx] = item

	if err := s.store.SaveInventory(ctx, items); err != nil {
		return domain.InventoryItem{}, err
	}
	if err := s.record(ctx, domain.ActionEdit, id, user); err != nil {
		return domain.InventoryItem{}, err
	}
	return item, nil
}

// Delete removes a product. Its sales stay in the ledger.
func (s *Service) Delete(ctx context.Context, id string, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteInventory(ctx, id); err != nil {
		return err
	}
	return s.record(ctx, domain.ActionDelete, id, user)
}

// History returns the change log, oldest first.
func (s *Service) History(ctx context.Context) ([]domain.ChangeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.LoadHistory(ctx)
}

// EstimateDemand recomputes Estimated Demand for the whole inventory and
// persists it. A ledger with an unreadable timestamp aborts the run with
// forecast.ErrMalformedInput and leaves the inventory untouched.
func (s *Service) EstimateDemand(ctx context.Context, user string) (forecast.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales, err := s.store.LoadSales(ctx)
	if errors.Is(err, domain.ErrMalformedTimestamp) {
		return forecast.Result{}, fmt.Errorf("%w: %v", forecast.ErrMalformedInput, err)
	}
	if err != nil {
		return forecast.Result{}, err
	}
	items, err := s.store.LoadInventory(ctx)
	if err != nil {
		return forecast.Result{}, err
	}

	started := time.Now()
	result, err := forecast.Estimate(ctx, sales, items, s.forecast)
	if err != nil {
		logging.LogError(s.logger, "inventory", "EstimateDemand", "running estimator", nil, err)
		return forecast.Result{}, err
	}

	for _, d := range result.Diagnostics {
		entry := s.logger.WithFields(logrus.Fields{"id": d.ProductID, "kind": d.Kind})
		if d.Severity == forecast.SeverityWarning {
			entry.Warn(d.Message)
		} else {
			entry.Info(d.Message)
		}
	}

	if err := s.store.SaveInventory(ctx, result.Items); err != nil {
		return forecast.Result{}, err
	}
	if err := s.record(ctx, domain.ActionEstimate, "All", user); err != nil {
		return forecast.Result{}, err
	}
	s.logger.WithFields(logrus.Fields{
		"products":    len(result.Items),
		"diagnostics": len(result.Diagnostics),
		"elapsed":     time.Since(started).String(),
	}).Info("estimated demand calculated")
	return result, nil
}

func indexOf(items []domain.InventoryItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
