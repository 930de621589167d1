package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInsufficientPayment    = errors.New("payment amount insufficient")
	ErrOrderNotFound          = errors.New("order not found")
	ErrTableNotFound          = errors.New("table not found")
	ErrProductNotFound        = errors.New("product not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrSessionNotFound        = errors.New("session not found")
	ErrInvalidQuantity        = errors.New("quantity must be a positive integer")
	ErrConcurrentModification = errors.New("record was modified concurrently, reload and retry")

	ErrProductInactive      = errors.New("product is not active")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrOrderTerminal        = errors.New("order is already delivered or canceled")
	ErrOrderNotReady        = errors.New("order must be ready before payment")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrEmptyDraft           = errors.New("order has no items")
	ErrNoTableSelected      = errors.New("no table selected")
	ErrNoActiveOrder        = errors.New("no order in progress")
	ErrTableHasOrders       = errors.New("table has active orders, resume one or start a new order")
	ErrItemNotInOrder       = errors.New("product is not in this order")
	ErrCounterOrder         = errors.New("counter orders are paid directly and have no kitchen status")
)

// StockError carries the product that could not be reserved.
type StockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (requested %d, available %d)", e.ProductName, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
