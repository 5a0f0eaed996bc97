/*
lifecycle.go - Booking state transitions

PURPOSE:
  A booking moves Active -> Withdrawn or Active -> NoShow, and back to
  Active through re-enrollment (enroll.go). Both exits reverse the snapshot
  credit with a clamped debit: the member never goes negative, and the
  ledger entry records what was actually removed.
*/
package loyalty

import (
	"context"
	"fmt"

	"github.com/tribe/loyalty-engine/ledger"
)

// Withdraw cancels an active booking and reverses its enrollment credit.
func (s *Service) Withdraw(ctx context.Context, bookingID ledger.BookingID) (*ledger.Entry, error) {
	return s.closeBooking(ctx, bookingID, BookingWithdrawn)
}

// MarkNoShow marks an active booking as missed, reverses its credit and
// flags the debit as penalized.
func (s *Service) MarkNoShow(ctx context.Context, bookingID ledger.BookingID) (*ledger.Entry, error) {
	return s.closeBooking(ctx, bookingID, BookingNoShow)
}

// closeBooking returns the reversal entry, or nil when the member's balance
// was already at zero and the clamp removed nothing.
func (s *Service) closeBooking(ctx context.Context, bookingID ledger.BookingID, to BookingStatus) (*ledger.Entry, error) {
	var entry *ledger.Entry
	var memberID ledger.MemberID
	err := s.store.WithTx(ctx, func(store Store) error {
		b, err := store.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if !b.IsActive() {
			return &BookingNotActiveError{BookingID: b.ID, Status: b.Status}
		}
		act, err := store.GetActivity(ctx, b.ActivityID)
		if err != nil {
			return err
		}

		applied, _, err := store.DebitBalanceClamped(ctx, b.MemberID, b.PointsAtRegistration)
		if err != nil {
			return err
		}

		st := s.newStamper()
		now := s.clock.Now().UTC()
		if err := store.SetBookingStatus(ctx, b.ID, to, now); err != nil {
			return err
		}
		memberID = b.MemberID
		if applied == 0 {
			return nil
		}

		e := newEntry(b.MemberID, ledger.KindWithdrawal, -applied,
			fmt.Sprintf("withdrawal: %s", act.Title), st.next())
		if to == BookingNoShow {
			e.Kind = ledger.KindNoShow
			e.Description = fmt.Sprintf("no-show: %s", act.Title)
			e.Penalized = true
			e.PenaltyReason = "missed activity without withdrawing"
		}
		e.BookingID = b.ID
		entry = &e
		return appendEntry(ctx, store, e)
	})
	if err != nil {
		return nil, err
	}

	reversed := int64(0)
	if entry != nil {
		reversed = -entry.Amount
	}
	s.publish(ctx, "booking", "Booking closed", "booking %s for member %s moved to %s (%d points reversed)",
		bookingID, memberID, to, reversed)
	return entry, nil
}
