package core

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication indicates the exchange refused the API key, signature or permissions.
	ErrAuthentication = errors.New("authentication failed")
	// ErrTransport indicates the request never produced an exchange-level answer.
	ErrTransport = errors.New("transport failure")
	// ErrOrderRejected indicates the exchange understood the order and refused it.
	ErrOrderRejected = errors.New("order rejected")
	// ErrOrderNotFound indicates the order does not exist on the exchange.
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateOrder indicates the client order id has already been accepted before.
	ErrDuplicateOrder = errors.New("duplicate order")
	// ErrInsufficientBalance indicates the exchange rejected the action due to insufficient funds.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrRateLimited indicates the exchange throttled the request.
	ErrRateLimited = errors.New("rate limited")
	// ErrSymbolNotFound indicates the exchange does not list the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
)

// ValidationError reports an order intent that was refused locally.
// It never involves an exchange call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order: %s", e.Reason)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
