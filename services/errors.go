package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("prices and wholesale threshold must not be negative")
	ErrNotReady        = errors.New("cart is not loaded")
	ErrItemNotFound    = errors.New("item not in cart")
	ErrAdapterFailure  = errors.New("cart backing store failed")
)

// AdapterError wraps a backing store failure. The cart that returned it kept
// its previous state.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrAdapterFailure, e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

func (e *AdapterError) Is(target error) bool {
	return target == ErrAdapterFailure
}
