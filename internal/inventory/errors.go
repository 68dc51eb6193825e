package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrInvalidImport     = errors.New("invalid inventory file")
	ErrInvalidProduct    = errors.New("invalid product data")
)

// InsufficientStockError reports how many units were available.
type InsufficientStockError struct {
	ID        string
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s. Available: %d", e.ID, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ImportError describes the first problem found in an uploaded inventory file.
type ImportError struct {
	Line    int
	Message string
}

func (e *ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", ErrInvalidImport, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidImport, e.Message)
}

func (e *ImportError) Is(target error) bool {
	return target == ErrInvalidImport
}
