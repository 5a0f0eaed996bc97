/*
Package loyalty implements the community loyalty-points domain on top of
the ledger core.

PURPOSE:
  Members earn points by enrolling in activities and through bonuses, spend
  them on redemptions, donations and peer gifts, and lose them when they
  withdraw or miss an activity. This package holds the domain records
  (Member, Activity, Booking), the tunable Rules, and the Service that
  enforces every business invariant before anything is written.

KEY INVARIANTS:
  1. Every balance change is one atomic unit: ledger entry (or entries) and
     balance update commit together or not at all
  2. Cached balances never go negative; involuntary debits clamp at zero
     and the entry records the applied delta
  3. Voluntary debits (gifts, redemptions, donations) are rejected outright
     when the balance cannot cover them
  4. A member holds at most one active booking per activity

SEE ALSO:
  - service.go: The Service and its construction options
  - store.go: The persistence contract the Service runs against
*/
package loyalty

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tribe/loyalty-engine/ledger"
)

// =============================================================================
// MEMBER
// =============================================================================

type Member struct {
	ID  ledger.MemberID
	PIN string // 6-digit lookup code, unique

	FirstName      string
	LastName       string
	SecondLastName string
	Phone          string // unique; duplicate registrations are rejected
	BirthDate      *time.Time

	// Balance is the denormalized cache of sum(entries). It is updated in
	// the same transaction as every ledger append and repaired by
	// reconciliation when it drifts.
	Balance int64

	// LastBonusYear is the year the birthday bonus was last granted.
	// Zero means never. The conditional update on this column is what makes
	// the grant idempotent under concurrency.
	LastBonusYear int

	CreatedAt time.Time
}

// FullName joins the member's name parts, skipping empty ones.
func (m Member) FullName() string {
	name := m.FirstName + " " + m.LastName
	if m.SecondLastName != "" {
		name += " " + m.SecondLastName
	}
	return name
}

// Level buckets members by lifetime standing for profile display.
func (m Member) Level() string {
	switch {
	case m.Balance >= 3000:
		return "Gold"
	case m.Balance >= 1000:
		return "Silver"
	default:
		return "Bronze"
	}
}

// =============================================================================
// ACTIVITY
// =============================================================================

type ActivityStatus string

const (
	ActivityOpen      ActivityStatus = "open"
	ActivityConcluded ActivityStatus = "concluded"
)

type Activity struct {
	ID           ledger.ActivityID
	Title        string
	Description  string
	ActivityDate time.Time
	PointsReward int64 // credit granted per enrollment; 0 falls back to Rules.DefaultActivityPoints
	Capacity     int   // maximum active bookings; 0 = unlimited
	Status       ActivityStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// =============================================================================
// BOOKING - One member's seat in one activity
// =============================================================================

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingWithdrawn BookingStatus = "withdrawn"
	BookingNoShow    BookingStatus = "no_show"
)

type Booking struct {
	ID         ledger.BookingID
	MemberID   ledger.MemberID
	ActivityID ledger.ActivityID
	Status     BookingStatus

	// PointsAtRegistration snapshots the credit granted when the booking was
	// made, so withdrawal and no-show reverse exactly that amount even if
	// the activity's reward changes later.
	PointsAtRegistration int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b Booking) IsActive() bool { return b.Status == BookingActive }

// =============================================================================
// RULES - Tunable program parameters
// =============================================================================

type Rules struct {
	WelcomeBonus          int64
	BirthdayBonus         int64
	DefaultActivityPoints int64

	// RedemptionMinBalance is the floor a member must be at before any
	// redemption is allowed, independent of the reward's cost.
	RedemptionMinBalance int64

	// PurchaseFeePercent is the handling fee withheld from point purchases.
	// The ledger entry records the net credit.
	PurchaseFeePercent decimal.Decimal

	// MaxGiftsPerDay caps outgoing transfers per member per calendar day.
	// 0 = unlimited.
	MaxGiftsPerDay int
}

func DefaultRules() Rules {
	return Rules{
		WelcomeBonus:          500,
		BirthdayBonus:         500,
		DefaultActivityPoints: 10,
		RedemptionMinBalance:  100,
		PurchaseFeePercent:    decimal.NewFromInt(10),
		MaxGiftsPerDay:        5,
	}
}

// RewardFor resolves the credit an enrollment in the activity grants.
func (r Rules) RewardFor(a *Activity) int64 {
	if a.PointsReward > 0 {
		return a.PointsReward
	}
	return r.DefaultActivityPoints
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// ReconciliationReport describes one member's audit outcome. When Corrected
// is true the cached balance was repaired to TrueSum; no ledger entry is
// ever written for the repair.
type ReconciliationReport struct {
	MemberID        ledger.MemberID
	PreviousBalance int64
	TrueSum         int64
	Corrected       bool
}

// Drift is the discrepancy the audit found (cache minus ledger).
func (r ReconciliationReport) Drift() int64 {
	return r.PreviousBalance - r.TrueSum
}

// =============================================================================
// NOTIFICATION - Admin activity feed
// =============================================================================

type Notification struct {
	ID        string
	Category  string // "member", "booking", "points", "reconciliation"
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}
