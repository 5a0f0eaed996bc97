/*
transfer.go - Voluntary spends: gifts, redemptions, donations, purchases

PURPOSE:
  Unlike the involuntary reversals in lifecycle.go and adjust.go, every
  debit here is something the member chose to do, so insufficient balance
  rejects the whole operation instead of clamping.

TRANSFER ATOMICITY:
  A gift writes two entries (sent, received) and two balance updates in one
  transaction. There is no interleaving in which one member's points moved
  and the other's did not.
*/
package loyalty

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/metrics"
)

// TransferResult reports both sides of a completed gift.
type TransferResult struct {
	Sender    *Member
	Recipient *Member
	Amount    int64
}

// Transfer gifts points from one member to another.
func (s *Service) Transfer(ctx context.Context, senderID, recipientID ledger.MemberID, amount int64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if senderID == recipientID {
		return nil, ErrSelfTransfer
	}

	var res TransferResult
	err := s.store.WithTx(ctx, func(store Store) error {
		sender, err := store.GetMember(ctx, senderID)
		if err != nil {
			return err
		}
		recipient, err := store.GetMember(ctx, recipientID)
		if err != nil {
			return err
		}

		if s.rules.MaxGiftsPerDay > 0 {
			sent, err := store.CountByMemberKindSince(ctx, senderID, ledger.KindGiftSent,
				ledger.StartOfDay(s.clock.Now()))
			if err != nil {
				return err
			}
			if sent >= s.rules.MaxGiftsPerDay {
				metrics.RuleRejections.WithLabelValues("gift_limit").Inc()
				return fmt.Errorf("%w: %d gifts sent today", ErrGiftLimitReached, sent)
			}
		}

		if sender.Balance < amount {
			metrics.RuleRejections.WithLabelValues("insufficient_balance").Inc()
			return &InsufficientBalanceError{MemberID: senderID, Available: sender.Balance, Requested: amount}
		}
		senderBal, err := store.DebitBalanceStrict(ctx, senderID, amount)
		if err != nil {
			return err
		}
		recipientBal, err := store.CreditBalance(ctx, recipientID, amount)
		if err != nil {
			return err
		}

		st := s.newStamper()
		sent := newEntry(senderID, ledger.KindGiftSent, -amount,
			fmt.Sprintf("gift to %s", recipient.FullName()), st.next())
		received := newEntry(recipientID, ledger.KindGiftReceived, amount,
			fmt.Sprintf("gift from %s", sender.FullName()), st.next())
		if err := store.AppendBatch(ctx, []ledger.Entry{sent, received}); err != nil {
			return err
		}
		metrics.LedgerEntries.WithLabelValues(string(ledger.KindGiftSent)).Inc()
		metrics.LedgerEntries.WithLabelValues(string(ledger.KindGiftReceived)).Inc()

		sender.Balance = senderBal
		recipient.Balance = recipientBal
		res = TransferResult{Sender: sender, Recipient: recipient, Amount: amount}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "points", "Gift", "%s gifted %d points to %s",
		res.Sender.FullName(), amount, res.Recipient.FullName())
	return &res, nil
}

// Redeem exchanges points for a reward. The member must be at or above the
// program's redemption floor and able to cover the full cost.
func (s *Service) Redeem(ctx context.Context, memberID ledger.MemberID, cost int64, reward string) (*ledger.Entry, error) {
	if cost <= 0 {
		return nil, ErrInvalidAmount
	}
	if reward == "" {
		return nil, fmt.Errorf("%w: reward description", ErrMissingField)
	}

	var entry ledger.Entry
	err := s.store.WithTx(ctx, func(store Store) error {
		m, err := store.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if m.Balance < s.rules.RedemptionMinBalance {
			metrics.RuleRejections.WithLabelValues("below_minimum").Inc()
			return &BelowMinimumError{MemberID: memberID, Available: m.Balance, Minimum: s.rules.RedemptionMinBalance}
		}
		if m.Balance < cost {
			metrics.RuleRejections.WithLabelValues("insufficient_balance").Inc()
			return &InsufficientBalanceError{MemberID: memberID, Available: m.Balance, Requested: cost}
		}
		if _, err := store.DebitBalanceStrict(ctx, memberID, cost); err != nil {
			return err
		}
		entry = newEntry(memberID, ledger.KindRedemption, -cost,
			fmt.Sprintf("redemption: %s", reward), s.clock.Now().UTC())
		return appendEntry(ctx, store, entry)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "points", "Redemption", "member %s redeemed %d points: %s", memberID, cost, reward)
	return &entry, nil
}

// Donate spends points on a cause. Rejected when the balance cannot cover it.
func (s *Service) Donate(ctx context.Context, memberID ledger.MemberID, amount int64, cause string) (*ledger.Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if cause == "" {
		return nil, fmt.Errorf("%w: cause", ErrMissingField)
	}

	var entry ledger.Entry
	err := s.store.WithTx(ctx, func(store Store) error {
		m, err := store.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if m.Balance < amount {
			metrics.RuleRejections.WithLabelValues("insufficient_balance").Inc()
			return &InsufficientBalanceError{MemberID: memberID, Available: m.Balance, Requested: amount}
		}
		if _, err := store.DebitBalanceStrict(ctx, memberID, amount); err != nil {
			return err
		}
		entry = newEntry(memberID, ledger.KindDonation, -amount,
			fmt.Sprintf("donation: %s", cause), s.clock.Now().UTC())
		return appendEntry(ctx, store, entry)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "points", "Donation", "member %s donated %d points: %s", memberID, amount, cause)
	return &entry, nil
}

// PurchaseResult breaks down a point purchase.
type PurchaseResult struct {
	Gross int64
	Fee   int64
	Net   int64
	Entry *ledger.Entry
}

// PurchasePoints credits points bought with real money, net of the
// handling fee. The single entry records the net amount, so the ledger sum
// stays equal to the balance without a separate fee entry.
func (s *Service) PurchasePoints(ctx context.Context, memberID ledger.MemberID, gross int64) (*PurchaseResult, error) {
	if gross <= 0 {
		return nil, ErrInvalidAmount
	}

	fee := decimal.NewFromInt(gross).
		Mul(s.rules.PurchaseFeePercent).
		Div(decimal.NewFromInt(100)).
		Ceil().IntPart()
	net := gross - fee
	if net <= 0 {
		return nil, fmt.Errorf("%w: fee consumes the whole purchase", ErrInvalidAmount)
	}

	var entry ledger.Entry
	err := s.store.WithTx(ctx, func(store Store) error {
		if _, err := store.GetMember(ctx, memberID); err != nil {
			return err
		}
		if _, err := store.CreditBalance(ctx, memberID, net); err != nil {
			return err
		}
		entry = newEntry(memberID, ledger.KindPointsPurchase, net,
			fmt.Sprintf("purchase of %d points (%s%% fee: %d)", gross, s.rules.PurchaseFeePercent, fee),
			s.clock.Now().UTC())
		return appendEntry(ctx, store, entry)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "points", "Purchase", "member %s purchased %d points (net %d)", memberID, gross, net)
	return &PurchaseResult{Gross: gross, Fee: fee, Net: net, Entry: &entry}, nil
}
