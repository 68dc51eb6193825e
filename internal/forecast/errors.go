package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks a ledger that cannot be estimated at all.
	ErrMalformedInput = errors.New("malformed sales ledger")
	// ErrModelFit marks a per-product fitting failure.
	ErrModelFit = errors.New("model fit failed")
)

// MalformedInputError identifies the ledger row whose timestamp is unusable.
type MalformedInputError struct {
	Row       int
	ProductID string
	Reason    string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s: row %d (ID %s): %s", ErrMalformedInput, e.Row, e.ProductID, e.Reason)
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}
