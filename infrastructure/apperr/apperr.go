// Package apperr holds the error kinds shared by the POS managers and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness violation, e.g. a duplicate username.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStorage indicates the store failed; the enclosing transaction was rolled back.
	ErrStorage = errors.New("storage failure")
)

// Validation wraps a message as ErrValidation.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps a message as ErrNotFound.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Storage marks err as a store failure. Errors that already carry one of the
// domain kinds are returned unchanged.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	return &storageError{err: err}
}

// IsDomain reports whether err carries one of the non-storage kinds.
func IsDomain(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrStorage)
}

type storageError struct {
	err error
}

func (e *storageError) Error() string { return "storage failure: " + e.err.Error() }

func (e *storageError) Unwrap() []error { return []error{ErrStorage, e.err} }

// IntegrityWarning is advisory: the caller may proceed after confirmation.
type IntegrityWarning struct {
	Field   string
	Message string
}

func (w *IntegrityWarning) Error() string {
	return fmt.Sprintf("warning on %s: %s", w.Field, w.Message)
}

// AsWarning extracts an IntegrityWarning from err.
func AsWarning(err error) (*IntegrityWarning, bool) {
	var w *IntegrityWarning
	if errors.As(err, &w) {
		return w, true
	}
	return nil, false
}
