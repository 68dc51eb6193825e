package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"stockdash/m/domain"
)

var (
	InventoryHeader = []string{"ID", "Product", "Category", "Quantity", "Price", "Supplier", "Last Update", "Estimated Demand"}
	SalesHeader     = []string{"Date", "ID", "Product", "Quantity Sold", "Unit Price", "Total", "User"}
	HistoryHeader   = []string{"Date", "Action", "Product ID", "User"}

	// RequiredInventoryColumns excludes the optional Estimated Demand column.
	RequiredInventoryColumns = InventoryHeader[:7]
)

var (
	ErrEmptyFile      = errors.New("CSV file is empty")
	ErrMissingColumns = errors.New("CSV is missing required columns")
)

// RowError points at the CSV line (header is line 1) that failed to decode.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

type table struct {
	index   map[string]int
	records [][]string
}

func (t table) get(record []string, column string) (string, bool) {
	i, ok := t.index[column]
	if !ok || i >= len(record) {
		return "", false
	}
	return strings.TrimSpace(record[i]), true
}

func readTable(r io.Reader, required []string) (table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return table{}, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return table{}, ErrEmptyFile
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return table{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return table{index: index, records: records[1:]}, nil
}

// DecodeInventory reads an inventory table. Estimated Demand is optional
// and defaults to 0; money values are rounded to two decimals.
func DecodeInventory(r io.Reader) ([]domain.InventoryItem, error) {
	t, err := readTable(r, RequiredInventoryColumns)
	if err != nil {
		return nil, err
	}

	items := make([]domain.InventoryItem, 0, len(t.records))
	for i, record := range t.records {
		line := i + 2
		item := domain.InventoryItem{}
		item.ID, _ = t.get(record, "ID")
		item.Product, _ = t.get(record, "Product")
		item.Category, _ = t.get(record, "Category")
		item.Supplier, _ = t.get(record, "Supplier")

		raw, _ := t.get(record, "Quantity")
		if item.Quantity, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, &RowError{Line: line, Column: "Quantity", Err: fmt.Errorf("%q is not an integer", raw)}
		}
		raw, _ = t.get(record, "Price")
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, &RowError{Line: line, Column: "Price", Err: fmt.Errorf("%q is not a number", raw)}
		}
		item.Price = price.Round(2)
		raw, _ = t.get(record, "Last Update")
		if item.LastUpdate, err = domain.ParseTimestamp(raw); err != nil {
			return nil, &RowError{Line: line, Column: "Last Update", Err: err}
		}
		if raw, ok := t.get(record, "Estimated Demand"); ok && raw != "" {
			demand, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, &RowError{Line: line, Column: "Estimated Demand", Err: fmt.Errorf("%q is not a number", raw)}
			}
			item.EstimatedDemand = demand.Round(2).InexactFloat64()
		}
		items = append(items, item)
	}
	return items, nil
}

func inventoryRecord(item domain.InventoryItem) []string {
	return []string{
		item.ID,
		item.Product,
		item.Category,
		strconv.FormatInt(item.Quantity, 10),
		item.Price.StringFixed(2),
		item.Supplier,
		domain.FormatTimestamp(item.LastUpdate),
		strconv.FormatFloat(item.EstimatedDemand, 'f', 2, 64),
	}
}

// EncodeInventory writes items with the full inventory header.
func EncodeInventory(w io.Writer, items []domain.InventoryItem) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(InventoryHeader); err != nil {
		return err
	}
	for _, item := range items {
		if err := writer.Write(inventoryRecord(item)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// DecodeSales reads the sales ledger. A bad Date wraps domain.ErrMalformedTimestamp.
func DecodeSales(r io.Reader) ([]domain.Sale, error) {
	t, err := readTable(r, SalesHeader)
	if err != nil {
		return nil, err
	}

	sales := make([]domain.Sale, 0, len(t.records))
	for i, record := range t.records {
		line := i + 2
		sale := domain.Sale{}
		raw, _ := t.get(record, "Date")
		if sale.Date, err = domain.ParseTimestamp(raw); err != nil {
			return nil, &RowError{Line: line, Column: "Date", Err: err}
		}
		sale.ID, _ = t.get(record, "ID")
		sale.Product, _ = t.get(record, "Product")
		sale.User, _ = t.get(record, "User")

		raw, _ = t.get(record, "Quantity Sold")
		if sale.QuantitySold, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, &RowError{Line: line, Column: "Quantity Sold", Err: fmt.Errorf("%q is not an integer", raw)}
		}
		raw, _ = t.get(record, "Unit Price")
		if sale.UnitPrice, err = decimal.NewFromString(raw); err != nil {
			return nil, &RowError{Line: line, Column: "Unit Price", Err: fmt.Errorf("%q is not a number", raw)}
		}
		raw, _ = t.get(record, "Total")
		if sale.Total, err = decimal.NewFromString(raw); err != nil {
			return nil, &RowError{Line: line, Column: "Total", Err: fmt.Errorf("%q is not a number", raw)}
		}
		sale.UnitPrice = sale.UnitPrice.Round(2)
		sale.Total = sale.Total.Round(2)
		sales = append(sales, sale)
	}
	return sales, nil
}

func saleRecord(s domain.Sale) []string {
	return []string{
		domain.FormatTimestamp(s.Date),
		s.ID,
		s.Product,
		strconv.FormatInt(s.QuantitySold, 10),
		s.UnitPrice.StringFixed(2),
		s.Total.StringFixed(2),
		s.User,
	}
}

// EncodeSales writes the ledger with its header.
func EncodeSales(w io.Writer, sales []domain.Sale) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(SalesHeader); err != nil {
		return err
	}
	for _, s := range sales {
		if err := writer.Write(saleRecord(s)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// DecodeHistory reads the change history. A bad Date is reported as a RowError.
func DecodeHistory(r io.Reader) ([]domain.ChangeRecord, error) {
	t, err := readTable(r, HistoryHeader)
	if err != nil {
		return nil, err
	}
	records := make([]domain.ChangeRecord, 0, len(t.records))
	for i, record := range t.records {
		rec := domain.ChangeRecord{}
		raw, _ := t.get(record, "Date")
		if rec.Date, err = domain.ParseTimestamp(raw); err != nil {
			return nil, &RowError{Line: i + 2, Column: "Date", Err: err}
		}
		rec.Action, _ = t.get(record, "Action")
		rec.ProductID, _ = t.get(record, "Product ID")
		rec.User, _ = t.get(record, "User")
		records = append(records, rec)
	}
	return records, nil
}

func historyRecord(rec domain.ChangeRecord) []string {
	return []string{domain.FormatTimestamp(rec.Date), rec.Action, rec.ProductID, rec.User}
}
