package service

import (
	"errors"
	"strings"
)

// Business failures surfaced to the handler layer. Error texts are the
// API-facing messages, the boundary maps each to a fixed status code.
var (
	ErrEmailTaken         = errors.New("Email already registered")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrOrderNotFound      = errors.New("Order not found")
	ErrOrderCompleted     = errors.New("Order is already completed and cannot be advanced")
	ErrOrderValue         = errors.New("Total order value must be greater than 0")
	// ErrOrderConflict means a concurrent transition won the conditional
	// update. Retryable from the caller's side.
	ErrOrderConflict = errors.New("Order was modified concurrently")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects per-field violations of the request rules.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
