/*
errors.go - Centralized error types for the ledger engine

ERROR CATEGORIES:
  1. Validation errors - malformed or missing input, raised before any write
  2. Lookup errors - records missing or owned by someone else
  3. Ledger errors - rent uniqueness and store capability failures

Store implementations wrap driver failures with fmt.Errorf("...: %w") and
return the sentinels below for the cases callers branch on.
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the parent of every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a record does not exist for the owner.
	// Records of other owners are reported the same way.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateRentCharge is returned when a generated rent charge for the
	// same tenant and month is already stored.
	ErrDuplicateRentCharge = errors.New("monthly rent already recorded for period")

	// ErrStoreRequired is returned when an operation needs a store capability
	// (such as transactions) that the configured store lacks.
	ErrStoreRequired = errors.New("operation requires extended store interface")
)

// Validation codes.
const (
	CodeRequired      = "required"
	CodeInvalid       = "invalid"
	CodeNegative      = "negative"
	CodeNotNumeric    = "not_numeric"
	CodeMeterRollback = "meter_rollback"
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError names the offending field. It is surfaced to the user as an
// inline message and always aborts the operation before a write.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError carries the kind and id of the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicateRentCharge)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
