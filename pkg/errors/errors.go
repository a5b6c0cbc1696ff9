package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError represents a validation failure. Fields lists every
// offending field so a single error can describe the whole request.
type ValidationError struct {
	Message string
	Fields  []string
}

// NewValidationError creates a new validation error
func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{
		Message: message,
		Fields:  fields,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
	}
	return e.Message
}

// HTTPStatus returns the HTTP status for this error
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// InvalidIdentifierError is returned when a path key is not a well-formed id.
type InvalidIdentifierError struct {
	ID string
}

// NewInvalidIdentifierError creates a new invalid identifier error
func NewInvalidIdentifierError(id string) *InvalidIdentifierError {
	return &InvalidIdentifierError{ID: id}
}

// Error implements the error interface
func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid id: %q", e.ID)
}

// HTTPStatus returns the HTTP status for this error
func (e *InvalidIdentifierError) HTTPStatus() int {
	return http.StatusBadRequest
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// HTTPStatus returns the HTTP status for this error
func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

// ConflictError represents a uniqueness violation
type ConflictError struct {
	Resource string
	Message  string
}

// NewConflictError creates a new conflict error
func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// HTTPStatus returns the HTTP status for this error
func (e *ConflictError) HTTPStatus() int {
	return http.StatusConflict
}

// PersistenceError wraps a failure of the storage layer
type PersistenceError struct {
	Message string
	Err     error
}

// NewPersistenceError creates a new persistence error
func NewPersistenceError(message string, err error) *PersistenceError {
	return &PersistenceError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Detail returns the underlying error message for diagnostics.
func (e *PersistenceError) Detail() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// HTTPStatus returns the HTTP status for this error
func (e *PersistenceError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// HTTPStatuser interface for errors that can provide an HTTP status
type HTTPStatuser interface {
	HTTPStatus() int
}

// StatusCode returns the HTTP status carried by err, or 500 when err
// does not carry one.
func StatusCode(err error) int {
	var s HTTPStatuser
	if stderrors.As(err, &s) {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}
