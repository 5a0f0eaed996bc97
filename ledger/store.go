/*
store.go - Entry persistence contract

PURPOSE:
  Defines what the ledger core needs from a storage backend. Backends live
  in store/ (sqlite today); the domain layer composes this interface with
  member, booking and activity persistence.

INVARIANTS THE BACKEND MUST UPHOLD:
  1. Entries are append-only: no update path exists for amount, kind or
     member. DetachBooking may clear the booking reference and annotate the
     description when an activity is concluded; it never touches amounts.
  2. History ordering is newest-first by (created_at, id) so entries that
     share a timestamp still come back in a stable order.
  3. AppendBatch is atomic with respect to the surrounding transaction.

SEE ALSO:
  - store/sqlite: The production backend
  - loyalty/store.go: The full domain store composed from this interface
*/
package ledger

import (
	"context"
	"time"
)

// EntryStore persists and queries ledger entries.
type EntryStore interface {
	// Append persists a single entry.
	Append(ctx context.Context, e Entry) error

	// AppendBatch persists several entries in order. The caller is expected
	// to have given them strictly increasing timestamps.
	AppendBatch(ctx context.Context, entries []Entry) error

	// MemberHistory returns a member's entries, newest first.
	// limit <= 0 means no limit.
	MemberHistory(ctx context.Context, id MemberID, limit int) ([]Entry, error)

	// GlobalHistory returns entries across all members, newest first.
	GlobalHistory(ctx context.Context, limit, offset int) ([]Entry, error)

	// SumByMember returns the sum of all entry amounts for a member.
	// This is the member's true balance; the cached balance column is
	// reconciled against it.
	SumByMember(ctx context.Context, id MemberID) (int64, error)

	// CountByMemberKindSince counts a member's entries of the given kind
	// created at or after the given instant. Used for daily gift limits.
	CountByMemberKindSince(ctx context.Context, id MemberID, kind Kind, since time.Time) (int, error)

	// EntriesByBooking returns entries tied to a booking, oldest first.
	EntriesByBooking(ctx context.Context, id BookingID) ([]Entry, error)

	// DetachBooking clears the booking reference on all entries tied to the
	// booking and appends the given suffix to their descriptions. Returns
	// the number of entries touched. Points are untouched.
	DetachBooking(ctx context.Context, id BookingID, suffix string) (int, error)

	// DeleteByMember removes all of a member's entries. Only the member
	// purge cascade may call this.
	DeleteByMember(ctx context.Context, id MemberID) error
}
