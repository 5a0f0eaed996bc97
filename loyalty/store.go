/*
store.go - Persistence contract for the loyalty domain

PURPOSE:
  Composes the ledger's entry store with member, activity, booking and
  notification persistence, plus WithTx for the multi-write operations that
  must commit atomically (enroll, transfer, reconcile, activity removal).

BALANCE OPERATIONS:
  The cached balance column is only ever touched through the three
  operations below, all of which keep it non-negative:
    - CreditBalance:       balance += amount (amount > 0)
    - DebitBalanceClamped: balance = max(0, balance - amount); returns what
                           was actually removed so the ledger entry can
                           record the applied delta
    - DebitBalanceStrict:  balance -= amount only if balance >= amount;
                           returns ErrInsufficientBalance otherwise
  SetBalance exists solely for reconciliation repair.

SEE ALSO:
  - store/sqlite: The production implementation
  - ledger/store.go: The embedded entry contract
*/
package loyalty

import (
	"context"
	"time"

	"github.com/tribe/loyalty-engine/ledger"
)

// Store is the full persistence surface the Service operates on.
type Store interface {
	ledger.EntryStore

	// --- Members ---

	CreateMember(ctx context.Context, m Member) error
	GetMember(ctx context.Context, id ledger.MemberID) (*Member, error)
	GetMemberByPIN(ctx context.Context, pin string) (*Member, error)
	GetMemberByPhone(ctx context.Context, phone string) (*Member, error)
	ListMembers(ctx context.Context) ([]Member, error)

	// Ranking returns members ordered by balance, highest first.
	Ranking(ctx context.Context, limit int) ([]Member, error)

	// MembersWithBirthday returns members whose birth date falls on the
	// given month and day, any year.
	MembersWithBirthday(ctx context.Context, month time.Month, day int) ([]Member, error)

	CreditBalance(ctx context.Context, id ledger.MemberID, amount int64) (newBalance int64, err error)
	DebitBalanceClamped(ctx context.Context, id ledger.MemberID, amount int64) (applied, newBalance int64, err error)
	DebitBalanceStrict(ctx context.Context, id ledger.MemberID, amount int64) (newBalance int64, err error)
	SetBalance(ctx context.Context, id ledger.MemberID, balance int64) error

	// ClaimBirthdayBonus performs the conditional update that makes the
	// yearly grant idempotent: it sets last_bonus_year to year only if it
	// differs, and reports whether this caller won the claim.
	ClaimBirthdayBonus(ctx context.Context, id ledger.MemberID, year int) (claimed bool, err error)

	// DeleteMember removes the member row. Callers must cascade bookings
	// and entries first (see Service.PurgeMember).
	DeleteMember(ctx context.Context, id ledger.MemberID) error

	// --- Activities ---

	CreateActivity(ctx context.Context, a Activity) error
	UpdateActivity(ctx context.Context, a Activity) error
	GetActivity(ctx context.Context, id ledger.ActivityID) (*Activity, error)
	ListActivities(ctx context.Context) ([]Activity, error)
	DeleteActivity(ctx context.Context, id ledger.ActivityID) error

	// --- Bookings ---

	CreateBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id ledger.BookingID) (*Booking, error)

	// FindBooking returns the (member, activity) booking row regardless of
	// its status, or ledger.ErrBookingNotFound.
	FindBooking(ctx context.Context, memberID ledger.MemberID, activityID ledger.ActivityID) (*Booking, error)

	SetBookingStatus(ctx context.Context, id ledger.BookingID, status BookingStatus, at time.Time) error

	// BookingsByActivity returns the activity's bookings, newest first.
	// An empty status matches all statuses.
	BookingsByActivity(ctx context.Context, activityID ledger.ActivityID, status BookingStatus) ([]Booking, error)
	BookingsByMember(ctx context.Context, memberID ledger.MemberID) ([]Booking, error)
	CountActiveBookings(ctx context.Context, activityID ledger.ActivityID) (int, error)
	DeleteBookingsByActivity(ctx context.Context, activityID ledger.ActivityID) error
	DeleteBookingsByMember(ctx context.Context, memberID ledger.MemberID) error

	// --- Notifications ---

	SaveNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, limit int) ([]Notification, error)
	MarkNotificationsRead(ctx context.Context) error
}

// TxStore adds transactional composition. The Store passed to fn sees and
// joins the transaction; the whole fn commits or rolls back as one unit.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
