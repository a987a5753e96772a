// Package customerr holds the domain errors shared by commands, queries and
// the API layer.
package customerr

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUserNotExist        = errors.New("user does not exist")
	ErrAggregateNotFound   = errors.New("expenses aggregate not found")
	ErrExpenseTypeNotFound = errors.New("expense type not found")
	ErrOwnershipMismatch   = errors.New("resource belongs to another user")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Code is a stable identifier for err, suitable for API responses.
func Code(err error) string {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return "validation_failed"
	case errors.Is(err, ErrUserNotExist):
		return "user_not_exist"
	case errors.Is(err, ErrAggregateNotFound):
		return "aggregate_not_found"
	case errors.Is(err, ErrExpenseTypeNotFound):
		return "expense_type_not_found"
	case errors.Is(err, ErrOwnershipMismatch):
		return "ownership_mismatch"
	}
	return "internal"
}

// IsDomain reports whether err is one of the business errors above rather
// than an infrastructure failure.
func IsDomain(err error) bool {
	return Code(err) != "internal"
}
