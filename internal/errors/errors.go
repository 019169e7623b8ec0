// Package errors defines the coded domain errors returned by the taxonomy
// engine.
//
// Callers match on codes with errors.Is against the sentinel values:
//
//	if errors.Is(err, errors.ErrDuplicateDetected) {
//	    dup, _ := errors.DuplicateOf(err)
//	    // reuse dup.ID or abandon creation
//	}
package errors

import (
	"errors"
	"fmt"

	"github.com/hejijunhao/taxon/internal/model"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

const (
	CodeTaxonomyUnavailable        Code = "TAXONOMY_UNAVAILABLE"
	CodeDuplicateDetected          Code = "DUPLICATE_DETECTED"
	CodeEmbeddingDimensionMismatch Code = "EMBEDDING_DIMENSION_MISMATCH"
	CodeEmbeddingProviderTimeout   Code = "EMBEDDING_PROVIDER_TIMEOUT"
	CodeEmbeddingProviderError     Code = "EMBEDDING_PROVIDER_ERROR"
	CodeValidation                 Code = "VALIDATION"
	CodeNotFound                   Code = "NOT_FOUND"
	CodeInternal                   Code = "INTERNAL"
)

// Recoverable reports whether a caller can reasonably continue after an
// error with this code. Dimension mismatches signal model drift and are not.
func (c Code) Recoverable() bool {
	switch c {
	case CodeDuplicateDetected, CodeValidation, CodeNotFound, CodeEmbeddingProviderTimeout:
		return true
	default:
		return false
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrTaxonomyUnavailable        = &Error{Code: CodeTaxonomyUnavailable, Message: "taxonomy unavailable"}
	ErrDuplicateDetected          = &Error{Code: CodeDuplicateDetected, Message: "duplicate detected"}
	ErrEmbeddingDimensionMismatch = &Error{Code: CodeEmbeddingDimensionMismatch, Message: "embedding dimension mismatch"}
	ErrEmbeddingProviderTimeout   = &Error{Code: CodeEmbeddingProviderTimeout, Message: "embedding provider timeout"}
	ErrEmbeddingProviderError     = &Error{Code: CodeEmbeddingProviderError, Message: "embedding provider error"}
	ErrValidation                 = &Error{Code: CodeValidation, Message: "validation error"}
	ErrNotFound                   = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInternal                   = &Error{Code: CodeInternal, Message: "internal error"}
)

// TaxonomyUnavailable reports that the store could not be read and no
// cached snapshot exists.
func TaxonomyUnavailable(cause error) *Error {
	return &Error{Code: CodeTaxonomyUnavailable, Message: "taxonomy unavailable", cause: cause}
}

// DuplicateDetected blocks a mutation; best is the highest-similarity match.
func DuplicateDetected(best model.Duplicate) *Error {
	return &Error{
		Code:    CodeDuplicateDetected,
		Message: fmt.Sprintf("possible duplicate of %q (%.2f)", best.Label, best.Similarity),
		Details: best,
	}
}

// DimensionMismatch reports vectors of incompatible length.
func DimensionMismatch(want, got int) *Error {
	return &Error{
		Code:    CodeEmbeddingDimensionMismatch,
		Message: fmt.Sprintf("embedding dimension mismatch: want %d, got %d", want, got),
		Details: map[string]int{"want": want, "got": got},
	}
}

// ProviderTimeout wraps a deadline hit while waiting on the embedding provider.
func ProviderTimeout(cause error) *Error {
	return &Error{Code: CodeEmbeddingProviderTimeout, Message: "embedding provider timeout", cause: cause}
}

// ProviderError wraps any other embedding provider failure.
func ProviderError(cause error) *Error {
	return &Error{Code: CodeEmbeddingProviderError, Message: "embedding provider error", cause: cause}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// DuplicateOf extracts the best match from a DuplicateDetected error.
func DuplicateOf(err error) (model.Duplicate, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Code != CodeDuplicateDetected {
		return model.Duplicate{}, false
	}
	d, ok := e.Details.(model.Duplicate)
	return d, ok
}
