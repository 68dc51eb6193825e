package forecast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidConfig is returned when estimator settings are out of range.
var ErrInvalidConfig = errors.New("invalid forecast config")

// Order is the (p, d, q) order of a non-seasonal ARIMA model.
type Order struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// ParseOrder reads an order written as "p,d,q".
func ParseOrder(s string) (Order, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "()"), ",")
	if len(parts) != 3 {
		return Order{}, fmt.Errorf("%w: order %q must have three components", ErrInvalidConfig, s)
	}
	vals := make([]int, 3)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 {
			return Order{}, fmt.Errorf("%w: order %q has invalid component %q", ErrInvalidConfig, s, part)
		}
		vals[i] = v
	}
	return Order{P: vals[0], D: vals[1], Q: vals[2]}, nil
}

// Config holds the estimator policy.
type Config struct {
	// Horizon is the number of future days forecast per product.
	Horizon int
	// MinHistory is the minimum number of ledger rows a product needs before a fit is attempted.
	MinHistory int
	Order      Order
	// Workers bounds how many products are fitted concurrently.
	Workers int
}

// DefaultConfig returns a 30 day horizon, a 10 sale minimum and ARIMA(1,1,1).
func DefaultConfig() Config {
	return Config{
		Horizon:    30,
		MinHistory: 10,
		Order:      Order{P: 1, D: 1, Q: 1},
		Workers:    1,
	}
}

func (c Config) validate() error {
	switch {
	case c.Horizon < 1:
		return fmt.Errorf("%w: horizon must be at least 1, got %d", ErrInvalidConfig, c.Horizon)
	case c.MinHistory < 0:
		return fmt.Errorf("%w: minimum history cannot be negative, got %d", ErrInvalidConfig, c.MinHistory)
	case c.Order.P < 0 || c.Order.D < 0 || c.Order.Q < 0:
		return fmt.Errorf("%w: order %s has a negative component", ErrInvalidConfig, c.Order)
	}
	return nil
}
