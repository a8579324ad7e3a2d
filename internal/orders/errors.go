package orders

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrMissingAddress    = errors.New("shipping address is required")
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// InsufficientStockError names the offending product and what is left of it,
// so the caller can lower the quantity and retry.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %q: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}
