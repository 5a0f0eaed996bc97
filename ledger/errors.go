/*
errors.go - Centralized error types for the ledger core

PURPOSE:
  Storage-level sentinel errors shared by every backend. Domain packages
  wrap these with business context; HTTP layers map them to status codes
  via the helpers at the bottom.

USAGE:
  Domain packages can test for them:

    if errors.Is(err, ledger.ErrMemberNotFound) {
        ...
    }

SEE ALSO:
  - store.go: The interfaces whose implementations return these errors
  - loyalty/errors.go: Business-rule errors layered on top
*/
package ledger

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMemberNotFound is returned when a referenced member doesn't exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrBookingNotFound is returned when a referenced booking doesn't exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrActivityNotFound is returned when a referenced activity doesn't exist.
	ErrActivityNotFound = errors.New("activity not found")

	// ErrEntryNotFound is returned when a referenced ledger entry doesn't exist.
	ErrEntryNotFound = errors.New("ledger entry not found")

	// ErrDuplicatePIN is returned when creating a member whose PIN is taken.
	// Callers should regenerate and retry.
	ErrDuplicatePIN = errors.New("duplicate pin")

	// ErrDuplicatePhone is returned when a phone number is already registered.
	ErrDuplicatePhone = errors.New("phone number already registered")

	// ErrDuplicateBooking is returned when a (member, activity) booking row
	// already exists. Lifecycle transitions reuse the row instead.
	ErrDuplicateBooking = errors.New("booking already exists")

	// ErrAppendFailed is returned when an entry cannot be persisted.
	ErrAppendFailed = errors.New("ledger append failed")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrActivityNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}

// IsConflict returns true if the error is a uniqueness violation that a
// client (or a retry loop) can resolve by changing its input.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicatePIN) ||
		errors.Is(err, ErrDuplicatePhone) ||
		errors.Is(err, ErrDuplicateBooking)
}
