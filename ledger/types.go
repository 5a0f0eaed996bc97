/*
Package ledger provides the append-only points ledger at the core of the
loyalty engine.

PURPOSE:
  This package contains the domain-agnostic ledger primitives: the immutable
  Entry record, the Kind taxonomy classifying why points moved, and the
  storage contract every backend must satisfy. The ledger is the single
  source of truth for member balances; everything else (the balance column,
  reports, rankings) is derived state that must be re-computable from the
  entries alone.

KEY CONCEPTS IN THIS FILE (types.go):
  - Entry: An immutable ledger record (positive = credit, negative = debit)
  - Kind: Classifies the business event that produced an entry
  - Member/Booking/Activity/Entry IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: Entries are never updated or reversed in place; corrections
     append compensating entries
  2. Recorded deltas are applied deltas: when a debit is clamped at a zero
     balance, the entry records what actually left the account, so that
     sum(entries) == balance holds at all times
  3. Type Safety: Strong typing for IDs prevents mixing member/booking IDs

USAGE:
  e := ledger.Entry{
      MemberID: "mem-123",
      Kind:     ledger.KindEnrollment,
      Amount:   10,
  }

SEE ALSO:
  - store.go: Entry persistence interface
  - clock.go: Injectable time source used for entry timestamps
*/
package ledger

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MemberID string
type BookingID string
type ActivityID string
type EntryID string

// =============================================================================
// KIND - Why points moved
// =============================================================================

type Kind string

const (
	KindEnrollment     Kind = "enrollment"        // Credit for registering into an activity (also covers reactivation)
	KindWithdrawal     Kind = "withdrawal"        // Debit reversing an enrollment credit (also radical activity removal)
	KindNoShow         Kind = "no_show"           // Debit for a missed activity, flagged as penalized
	KindBirthdayBonus  Kind = "birthday_bonus"    // Once-per-year credit on the member's birthday
	KindWelcomeBonus   Kind = "welcome_bonus"     // One-time credit on first registration
	KindManualAdjust   Kind = "manual_adjustment" // Admin correction, either sign
	KindPenalty        Kind = "penalty"           // Admin sanction debit, flagged as penalized
	KindRestitution    Kind = "restitution"       // Admin credit restoring previously removed points
	KindDonation       Kind = "donation"          // Voluntary debit donated to a cause
	KindRedemption     Kind = "redemption"        // Voluntary debit exchanging points for a reward
	KindPointsPurchase Kind = "points_purchase"   // Credit bought with real money, net of the handling fee
	KindGiftSent       Kind = "gift_sent"         // Debit half of a peer-to-peer transfer
	KindGiftReceived   Kind = "gift_received"     // Credit half of a peer-to-peer transfer
)

// Valid reports whether k is one of the known entry kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindEnrollment, KindWithdrawal, KindNoShow, KindBirthdayBonus,
		KindWelcomeBonus, KindManualAdjust, KindPenalty, KindRestitution,
		KindDonation, KindRedemption, KindPointsPurchase, KindGiftSent,
		KindGiftReceived:
		return true
	}
	return false
}

// =============================================================================
// ENTRY - Atomic change to a member's balance
// =============================================================================

type Entry struct {
	ID          EntryID
	MemberID    MemberID
	Kind        Kind
	Amount      int64 // positive = credit, negative = debit; never zero
	Description string

	// BookingID links enrollment-related entries back to the booking that
	// produced them, enabling exact reversal. Empty for standalone entries.
	BookingID BookingID

	// Penalized marks sanction entries (no-shows, admin penalties) so they
	// can be surfaced separately in history views.
	Penalized     bool
	PenaltyReason string

	CreatedAt time.Time
}

func (e Entry) IsCredit() bool { return e.Amount > 0 }
func (e Entry) IsDebit() bool  { return e.Amount < 0 }
