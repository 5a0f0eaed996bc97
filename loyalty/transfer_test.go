package loyalty_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/loyalty"
)

// =============================================================================
// TRANSFERS
// =============================================================================

func TestTransfer_MovesPointsAtomically(t *testing.T) {
	// GIVEN: Two members at 500 each
	// WHEN: One gifts 200 to the other
	// THEN: Both balances move, both ledgers record it, and each ledger
	//       still sums to its cached balance

	svc, store := newTestService(t)
	ctx := context.Background()
	sender, err := svc.RegisterMember(ctx, *registration("555-0500"))
	require.NoError(t, err)
	recipient, err := svc.RegisterMember(ctx, *registration("555-0501"))
	require.NoError(t, err)

	res, err := svc.Transfer(ctx, sender.ID, recipient.ID, 200)
	require.NoError(t, err)

	assert.EqualValues(t, 300, res.Sender.Balance)
	assert.EqualValues(t, 700, res.Recipient.Balance)

	senderHist, err := svc.History(ctx, sender.ID, 0)
	require.NoError(t, err)
	require.Len(t, senderHist, 2)
	assert.Equal(t, ledger.KindGiftSent, senderHist[0].Kind)
	assert.EqualValues(t, -200, senderHist[0].Amount)

	recipientHist, err := svc.History(ctx, recipient.ID, 0)
	require.NoError(t, err)
	require.Len(t, recipientHist, 2)
	assert.Equal(t, ledger.KindGiftReceived, recipientHist[0].Kind)
	assert.EqualValues(t, 200, recipientHist[0].Amount)

	for _, id := range []ledger.MemberID{sender.ID, recipient.ID} {
		sum, err := store.SumByMember(ctx, id)
		require.NoError(t, err)
		m, err := svc.Member(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, m.Balance, sum)
	}
}

func TestTransfer_InsufficientBalance_NothingMoves(t *testing.T) {
	// GIVEN: A sender with 500 points
	// WHEN: They try to gift 600
	// THEN: The whole transfer is rejected; neither balance nor either
	//       ledger changed

	svc, _ := newTestService(t)
	ctx := context.Background()
	sender, err := svc.RegisterMember(ctx, *registration("555-0502"))
	require.NoError(t, err)
	recipient, err := svc.RegisterMember(ctx, *registration("555-0503"))
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, sender.ID, recipient.ID, 600)

	var insufficient *loyalty.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.EqualValues(t, 500, insufficient.Available)
	assert.EqualValues(t, 600, insufficient.Requested)
	assert.True(t, loyalty.IsRuleViolation(err))

	gotSender, err := svc.Member(ctx, sender.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 500, gotSender.Balance)
	gotRecipient, err := svc.Member(ctx, recipient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 500, gotRecipient.Balance)

	hist, err := svc.History(ctx, sender.ID, 0)
	require.NoError(t, err)
	assert.Len(t, hist, 1, "welcome bonus only")
}

func TestTransfer_SelfAndInvalidAmount_Rejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0504"))
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, m.ID, m.ID, 10)
	assert.ErrorIs(t, err, loyalty.ErrSelfTransfer)

	other, err := svc.RegisterMember(ctx, *registration("555-0505"))
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, m.ID, other.ID, 0)
	assert.ErrorIs(t, err, loyalty.ErrInvalidAmount)
	_, err = svc.Transfer(ctx, m.ID, other.ID, -5)
	assert.ErrorIs(t, err, loyalty.ErrInvalidAmount)
}

func TestTransfer_DailyGiftLimit(t *testing.T) {
	// GIVEN: A program capped at 2 gifts per day
	// WHEN: A member sends a third gift
	// THEN: It is rejected

	rules := loyalty.DefaultRules()
	rules.MaxGiftsPerDay = 2
	svc, _ := newTestService(t, loyalty.WithRules(rules))
	ctx := context.Background()
	sender, err := svc.RegisterMember(ctx, *registration("555-0506"))
	require.NoError(t, err)
	recipient, err := svc.RegisterMember(ctx, *registration("555-0507"))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := svc.Transfer(ctx, sender.ID, recipient.ID, 10)
		require.NoError(t, err)
	}

	_, err = svc.Transfer(ctx, sender.ID, recipient.ID, 10)
	assert.ErrorIs(t, err, loyalty.ErrGiftLimitReached)
}

// =============================================================================
// REDEMPTION
// =============================================================================

func TestRedeem_BelowFloor_Rejected(t *testing.T) {
	// GIVEN: A member under the 100-point redemption floor
	// WHEN: They try to redeem even a cheap reward
	// THEN: The floor blocks it regardless of the cost

	svc, _ := newTestService(t, loyalty.WithRules(noBonusRules()))
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0508"))
	require.NoError(t, err)
	_, err = svc.Restitute(ctx, m.ID, 50, "seed balance")
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, m.ID, 10, "sticker")

	var below *loyalty.BelowMinimumError
	require.ErrorAs(t, err, &below)
	assert.EqualValues(t, 50, below.Available)
	assert.EqualValues(t, 100, below.Minimum)
}

func TestRedeem_DebitsCost(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0509"))
	require.NoError(t, err)

	entry, err := svc.Redeem(ctx, m.ID, 150, "water bottle")
	require.NoError(t, err)

	assert.Equal(t, ledger.KindRedemption, entry.Kind)
	assert.EqualValues(t, -150, entry.Amount)

	got, err := svc.Member(ctx, m.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 350, got.Balance)
}

func TestRedeem_CostOverBalance_Rejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0510"))
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, m.ID, 600, "spa day")
	assert.ErrorIs(t, err, loyalty.ErrInsufficientBalance)
}

// =============================================================================
// DONATION
// =============================================================================

func TestDonate_DebitsAmount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0511"))
	require.NoError(t, err)

	entry, err := svc.Donate(ctx, m.ID, 100, "animal shelter")
	require.NoError(t, err)

	assert.Equal(t, ledger.KindDonation, entry.Kind)
	assert.EqualValues(t, -100, entry.Amount)

	_, err = svc.Donate(ctx, m.ID, 1000, "animal shelter")
	assert.ErrorIs(t, err, loyalty.ErrInsufficientBalance)
}

// =============================================================================
// POINT PURCHASES
// =============================================================================

func TestPurchasePoints_FeeWithheld(t *testing.T) {
	// GIVEN: A 10% handling fee
	// WHEN: A member buys 100 points
	// THEN: 90 are credited and the single entry records the net

	svc, store := newTestService(t)
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0512"))
	require.NoError(t, err)

	res, err := svc.PurchasePoints(ctx, m.ID, 100)
	require.NoError(t, err)

	assert.EqualValues(t, 100, res.Gross)
	assert.EqualValues(t, 10, res.Fee)
	assert.EqualValues(t, 90, res.Net)
	assert.Equal(t, ledger.KindPointsPurchase, res.Entry.Kind)
	assert.EqualValues(t, 90, res.Entry.Amount)

	sum, err := store.SumByMember(ctx, m.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 590, sum)
}

func TestPurchasePoints_FeeRoundsUp(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0513"))
	require.NoError(t, err)

	res, err := svc.PurchasePoints(ctx, m.ID, 95)
	require.NoError(t, err)
	assert.EqualValues(t, 10, res.Fee, "9.5 rounds up")
	assert.EqualValues(t, 85, res.Net)
}

func TestPurchasePoints_FeeConsumesWholePurchase_Rejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0514"))
	require.NoError(t, err)

	_, err = svc.PurchasePoints(ctx, m.ID, 1)
	assert.ErrorIs(t, err, loyalty.ErrInvalidAmount)
}
