package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation                 = errors.New("validation failed")
	ErrProductNotFound            = errors.New("product not found")
	ErrInsufficientStock          = errors.New("insufficient stock")
	ErrTransactionAborted         = errors.New("transaction aborted, please try again")
	ErrNotificationDispatchFailed = errors.New("notification dispatch failed")
	ErrOrderNotFound              = errors.New("order not found")
	ErrForbidden                  = errors.New("not allowed to access this resource")
	ErrInvalidTransition          = errors.New("invalid status transition")
	ErrStatusChanged              = errors.New("order status changed concurrently")
)

// ValidationError carries the field that failed. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ProductNotFoundError names the cart line whose product no longer exists.
type ProductNotFoundError struct {
	ProductID string
	Name      string
}

func (e *ProductNotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("product %q is no longer available", e.Name)
	}
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d left in stock for %s", e.Available, e.Name)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
