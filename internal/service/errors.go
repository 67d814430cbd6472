package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to
// HTTP status codes.
var (
	// ErrBankNotFound indicates the requested question bank does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrBankNotFound = errors.New("question bank not found")

	// ErrTaskNotFound indicates the referenced generation task is unknown
	// to the progress broker, typically because it was never created or has
	// already been swept. API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("generation task not found")

	// ErrInvalidSubmission indicates the submission request failed
	// validation. API layer should map this to HTTP 400 Bad Request.
	ErrInvalidSubmission = errors.New("invalid generation submission")
)

// BankServiceError wraps errors from the bank service with operation
// context so log lines and API responses can say which step failed.
type BankServiceError struct {
	// Operation is the service operation that failed, e.g. "submit generation".
	Operation string

	// Message provides human-readable error context.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *BankServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bank service %s: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("bank service %s: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As chains.
func (e *BankServiceError) Unwrap() error {
	return e.Err
}

// NewBankServiceError creates a BankServiceError, passing sentinel errors
// through unchanged so callers can still match them with errors.Is.
func NewBankServiceError(operation, message string, err error) error {
	if errors.Is(err, ErrBankNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrInvalidSubmission) {
		return err
	}
	return &BankServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
