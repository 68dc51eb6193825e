package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"stockdash/m/domain"
)

// productFields carries the user-editable fields through validator.
type productFields struct {
	ID       string  `validate:"required,max=10"`
	Product  string  `validate:"required"`
	Category string  `validate:"required"`
	Quantity int64   `validate:"gte=0"`
	Price    float64 `validate:"gte=0"`
	Supplier string  `validate:"required"`
}

func fieldsOf(item domain.InventoryItem) productFields {
	return productFields{
		ID:       item.ID,
		Product:  item.Product,
		Category: item.Category,
		Quantity: item.Quantity,
		Price:    item.Price.InexactFloat64(),
		Supplier: item.Supplier,
	}
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// describe turns validator output into a short human message.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s cannot be lower than %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
