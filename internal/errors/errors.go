// Package errors defines stable error codes for Quarry failure modes.
package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// TreeNotFound indicates the requested tree is not configured
	TreeNotFound ErrorCode = "TREE_NOT_FOUND"
	// IndexMissing indicates an index file was not found at startup
	IndexMissing ErrorCode = "INDEX_MISSING"
	// QueryTooBroad indicates a query was rejected as overly broad
	QueryTooBroad ErrorCode = "QUERY_TOO_BROAD"
	// SymbolNotFound indicates a symbol has no cross-reference data
	SymbolNotFound ErrorCode = "SYMBOL_NOT_FOUND"
	// Timeout indicates a request exceeded its deadline
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// QuarryError represents a Quarry error with a stable code and message
type QuarryError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new QuarryError
func New(code ErrorCode, message string, cause error) *QuarryError {
	return &QuarryError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *QuarryError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *QuarryError) Unwrap() error {
	return e.cause
}

// Is reports whether target carries the same error code
func (e *QuarryError) Is(target error) bool {
	qe, ok := target.(*QuarryError)
	return ok && qe.Code == e.Code
}
