// Package errors defines the error taxonomy of the crypto-history core. Each
// failure condition surfaces as a distinguishable error kind so callers can
// decide between fail-fast, skip-and-continue, and propagate.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for handling decisions.
type Kind string

const (
	// KindConfiguration marks invalid construction parameters (limit above the
	// exchange maximum, unsupported interval string). Fatal, never retried.
	KindConfiguration Kind = "configuration"

	// KindEmptyHistory marks a fetched pair that yielded zero records. The
	// container builder recovers locally by skipping the pair.
	KindEmptyHistory Kind = "empty_history"

	// KindFetch marks a network-collaborator failure propagated through the
	// bulk fetch. Retry policy belongs to the network layer, not here.
	KindFetch Kind = "fetch"

	// KindShapeMismatch marks a normalized table with more rows than the
	// resolved index depth. Tables are never truncated to fit.
	KindShapeMismatch Kind = "shape_mismatch"

	// KindUnknown covers unclassified errors.
	KindUnknown Kind = "unknown"
)

// Error is an error tagged with its Kind and the operation that produced it.
type Error struct {
	Kind      Kind
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Kind, e.Operation)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind, so sentinel comparisons like
// errors.Is(err, ErrEmptyHistory) work regardless of wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinel values for errors.Is checks.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrEmptyHistory  = &Error{Kind: KindEmptyHistory}
	ErrFetch         = &Error{Kind: KindFetch}
	ErrShapeMismatch = &Error{Kind: KindShapeMismatch}
)

// NewConfiguration builds a configuration error.
func NewConfiguration(operation, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Operation: operation, Err: fmt.Errorf(format, args...)}
}

// NewEmptyHistory builds an empty-history error for a ticker symbol.
func NewEmptyHistory(symbol string) *Error {
	return &Error{
		Kind:      KindEmptyHistory,
		Operation: "normalize",
		Err:       fmt.Errorf("no history for %s in the requested window", symbol),
	}
}

// NewFetch wraps a network-collaborator failure.
func NewFetch(operation string, err error) *Error {
	return &Error{Kind: KindFetch, Operation: operation, Err: err}
}

// NewShapeMismatch builds a shape-mismatch error.
func NewShapeMismatch(symbol string, got, want int) *Error {
	return &Error{
		Kind:      KindShapeMismatch,
		Operation: "normalize",
		Err:       fmt.Errorf("%s: history has %d rows, expected at most %d", symbol, got, want),
	}
}

// KindOf extracts the Kind from an error chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRecoverable reports whether the container builder may skip the failing
// pair and continue the build.
func IsRecoverable(err error) bool {
	switch KindOf(err) {
	case KindEmptyHistory, KindShapeMismatch:
		return true
	default:
		return false
	}
}
