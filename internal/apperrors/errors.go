// Package apperrors defines the typed business errors shared by the
// services and translated to HTTP status codes by the handlers.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NotFoundError reports a missing gem, order, cart item, or user.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// AuthorizationError reports that the principal does not own the resource
// or lacks the required role.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// UnavailableError reports a gem that cannot be ordered because it is out
// of stock or otherwise unavailable.
type UnavailableError struct {
	GemName string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s is not available or insufficient stock", e.GemName)
}

// InsufficientStockError reports a stock decrement that would drive stock
// below zero.
type InsufficientStockError struct {
	GemName   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (requested: %d, available: %d)",
		e.GemName, e.Requested, e.Available)
}

// InvalidStateError reports an order status transition that is not
// permitted, e.g. cancelling a shipped order.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// StatusCode maps a business error to the HTTP status the handlers return
// for it. Unclassified errors map to 500.
func StatusCode(err error) int {
	var (
		validation   *ValidationError
		notFound     *NotFoundError
		authz        *AuthorizationError
		unavailable  *UnavailableError
		insufficient *InsufficientStockError
		invalidState *InvalidStateError
	)
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &authz):
		return fiber.StatusForbidden
	case errors.As(err, &unavailable), errors.As(err, &insufficient), errors.As(err, &invalidState):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
