/*
adjust.go - Administrative balance corrections

PURPOSE:
  Admin operations that move points outside the booking lifecycle. Debits
  here are involuntary, so they clamp at zero rather than reject; the entry
  always records the applied delta so the ledger keeps summing to the
  cached balance.
*/
package loyalty

import (
	"context"
	"fmt"

	"github.com/tribe/loyalty-engine/ledger"
)

// ManualAdjust applies a signed admin correction. Positive credits in full;
// negative clamps at a zero balance. A zero applied delta (debiting an
// already-empty account) writes no entry and returns nil.
func (s *Service) ManualAdjust(ctx context.Context, memberID ledger.MemberID, amount int64, reason string) (*ledger.Entry, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: adjustment of zero", ErrInvalidAmount)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: reason", ErrMissingField)
	}

	var entry *ledger.Entry
	err := s.store.WithTx(ctx, func(store Store) error {
		if _, err := store.GetMember(ctx, memberID); err != nil {
			return err
		}
		applied := amount
		if amount > 0 {
			if _, err := store.CreditBalance(ctx, memberID, amount); err != nil {
				return err
			}
		} else {
			removed, _, err := store.DebitBalanceClamped(ctx, memberID, -amount)
			if err != nil {
				return err
			}
			applied = -removed
		}
		if applied == 0 {
			return nil
		}
		e := newEntry(memberID, ledger.KindManualAdjust, applied,
			fmt.Sprintf("manual adjustment: %s", reason), s.clock.Now().UTC())
		entry = &e
		return appendEntry(ctx, store, e)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "points", "Manual adjustment", "member %s adjusted by %d: %s", memberID, amount, reason)
	return entry, nil
}

// Penalize removes points as a sanction. Clamps at zero; the entry is
// flagged as penalized with the given reason.
func (s *Service) Penalize(ctx context.Context, memberID ledger.MemberID, amount int64, reason string) (*ledger.Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: reason", ErrMissingField)
	}

	var entry *ledger.Entry
	err := s.store.WithTx(ctx, func(store Store) error {
		if _, err := store.GetMember(ctx, memberID); err != nil {
			return err
		}
		applied, _, err := store.DebitBalanceClamped(ctx, memberID, amount)
		if err != nil {
			return err
		}
		if applied == 0 {
			return nil
		}
		e := newEntry(memberID, ledger.KindPenalty, -applied,
			fmt.Sprintf("penalty: %s", reason), s.clock.Now().UTC())
		e.Penalized = true
		e.PenaltyReason = reason
		entry = &e
		return appendEntry(ctx, store, e)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "points", "Penalty", "member %s penalized %d points: %s", memberID, amount, reason)
	return entry, nil
}

// Restitute credits points back to a member, typically reversing an earlier
// penalty or administrative mistake.
func (s *Service) Restitute(ctx context.Context, memberID ledger.MemberID, amount int64, reason string) (*ledger.Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: reason", ErrMissingField)
	}

	var entry ledger.Entry
	err := s.store.WithTx(ctx, func(store Store) error {
		if _, err := store.GetMember(ctx, memberID); err != nil {
			return err
		}
		if _, err := store.CreditBalance(ctx, memberID, amount); err != nil {
			return err
		}
		entry = newEntry(memberID, ledger.KindRestitution, amount,
			fmt.Sprintf("restitution: %s", reason), s.clock.Now().UTC())
		return appendEntry(ctx, store, entry)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "points", "Restitution", "member %s restored %d points: %s", memberID, amount, reason)
	return &entry, nil
}
