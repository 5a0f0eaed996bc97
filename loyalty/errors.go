/*
errors.go - Business-rule errors for the loyalty domain

PURPOSE:
  Two families: validation errors (malformed input, rejected before any
  state is read) and rule violations (well-formed requests the program's
  rules refuse). HTTP layers map validation to 400, rule violations to 422,
  and ledger.IsNotFound to 404.

SEE ALSO:
  - ledger/errors.go: Storage-level sentinels these are layered over
*/
package loyalty

import (
	"errors"
	"fmt"

	"github.com/tribe/loyalty-engine/ledger"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned for zero or negative operation amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrMissingField is returned when a required registration field is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrSelfTransfer is returned when sender and recipient are the same member.
	ErrSelfTransfer = errors.New("cannot transfer points to yourself")

	// ErrInsufficientBalance is returned when a voluntary debit exceeds the
	// member's balance. Involuntary debits clamp instead.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBelowRedemptionMinimum is returned when a member's balance is under
	// the program floor for redemptions.
	ErrBelowRedemptionMinimum = errors.New("balance below redemption minimum")

	// ErrDuplicateActiveBooking is returned when a member already holds an
	// active seat in the activity.
	ErrDuplicateActiveBooking = errors.New("member already enrolled in activity")

	// ErrBookingNotActive is returned when withdrawing or no-showing a
	// booking that is not in the active state.
	ErrBookingNotActive = errors.New("booking is not active")

	// ErrActivityFull is returned when an activity has reached capacity.
	ErrActivityFull = errors.New("activity is at capacity")

	// ErrActivityConcluded is returned when enrolling into a concluded activity.
	ErrActivityConcluded = errors.New("activity already concluded")

	// ErrGiftLimitReached is returned when a member hits the daily cap on
	// outgoing transfers.
	ErrGiftLimitReached = errors.New("daily gift limit reached")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports how far short the member fell.
type InsufficientBalanceError struct {
	MemberID  ledger.MemberID
	Available int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: member %s has %d, requested %d",
		e.MemberID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// BelowMinimumError reports a balance under the redemption floor.
type BelowMinimumError struct {
	MemberID  ledger.MemberID
	Available int64
	Minimum   int64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("balance %d is below the redemption minimum of %d", e.Available, e.Minimum)
}

func (e *BelowMinimumError) Unwrap() error { return ErrBelowRedemptionMinimum }

// DuplicateActiveBookingError identifies the seat already held.
type DuplicateActiveBookingError struct {
	MemberID   ledger.MemberID
	ActivityID ledger.ActivityID
	BookingID  ledger.BookingID
}

func (e *DuplicateActiveBookingError) Error() string {
	return fmt.Sprintf("member %s already holds active booking %s in activity %s",
		e.MemberID, e.BookingID, e.ActivityID)
}

func (e *DuplicateActiveBookingError) Unwrap() error { return ErrDuplicateActiveBooking }

// BookingNotActiveError reports the state that blocked a transition.
type BookingNotActiveError struct {
	BookingID ledger.BookingID
	Status    BookingStatus
}

func (e *BookingNotActiveError) Error() string {
	return fmt.Sprintf("booking %s is %s, not active", e.BookingID, e.Status)
}

func (e *BookingNotActiveError) Unwrap() error { return ErrBookingNotActive }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true for malformed-input errors (HTTP 400).
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrSelfTransfer)
}

// IsRuleViolation returns true for well-formed requests the program's rules
// reject (HTTP 422).
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrBelowRedemptionMinimum) ||
		errors.Is(err, ErrDuplicateActiveBooking) ||
		errors.Is(err, ErrBookingNotActive) ||
		errors.Is(err, ErrActivityFull) ||
		errors.Is(err, ErrActivityConcluded) ||
		errors.Is(err, ErrGiftLimitReached)
}
