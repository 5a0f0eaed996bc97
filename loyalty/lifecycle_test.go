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
// WITHDRAWAL
// =============================================================================

func TestWithdraw_ReversesSnapshotCredit(t *testing.T) {
	// GIVEN: A member who earned 10 points enrolling
	// WHEN: They withdraw from the activity
	// THEN: Exactly the snapshot amount comes back out and the ledger still
	//       sums to the cached balance

	svc, store := newTestService(t)
	ctx := context.Background()
	act := mustActivity(t, svc, "Morning Yoga", 10, 0)
	res := mustEnrollNew(t, svc, act.ID, "555-0200")

	entry, err := svc.Withdraw(ctx, res.Booking.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, ledger.KindWithdrawal, entry.Kind)
	assert.EqualValues(t, -10, entry.Amount)
	assert.Equal(t, res.Booking.ID, entry.BookingID)
	assert.False(t, entry.Penalized)

	m, err := svc.Member(ctx, res.Member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 500, m.Balance)

	sum, err := store.SumByMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Balance, sum)

	b, err := store.GetBooking(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, loyalty.BookingWithdrawn, b.Status)
}

func TestWithdraw_SnapshotSurvivesRewardChange(t *testing.T) {
	// GIVEN: An enrollment at 10 points, then the activity's reward raised to 50
	// WHEN: The member withdraws
	// THEN: Only the original 10 is reversed

	svc, _ := newTestService(t)
	ctx := context.Background()
	act := mustActivity(t, svc, "Morning Yoga", 10, 0)
	res := mustEnrollNew(t, svc, act.ID, "555-0201")

	_, err := svc.UpdateActivity(ctx, act.ID, loyalty.ActivityInput{
		Title:        act.Title,
		ActivityDate: act.ActivityDate,
		PointsReward: 50,
	})
	require.NoError(t, err)

	entry, err := svc.Withdraw(ctx, res.Booking.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.EqualValues(t, -10, entry.Amount)
}

func TestWithdraw_NotActive_Rejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	act := mustActivity(t, svc, "Morning Yoga", 10, 0)
	res := mustEnrollNew(t, svc, act.ID, "555-0202")

	_, err := svc.Withdraw(ctx, res.Booking.ID)
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, res.Booking.ID)
	var notActive *loyalty.BookingNotActiveError
	require.ErrorAs(t, err, &notActive)
	assert.Equal(t, loyalty.BookingWithdrawn, notActive.Status)
	assert.True(t, loyalty.IsRuleViolation(err))
}

func TestWithdraw_ClampsAtZero_NoEntry(t *testing.T) {
	// GIVEN: A member whose balance was drained to zero after enrolling
	// WHEN: They withdraw
	// THEN: The booking flips but nothing is debited and no entry is written,
	//       keeping sum(entries) == balance

	svc, store := newTestService(t)
	ctx := context.Background()
	act := mustActivity(t, svc, "Morning Yoga", 10, 0)
	res := mustEnrollNew(t, svc, act.ID, "555-0203")

	_, err := svc.Penalize(ctx, res.Member.ID, 510, "terms violation")
	require.NoError(t, err)

	entry, err := svc.Withdraw(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Nil(t, entry, "nothing was removed, nothing is recorded")

	b, err := store.GetBooking(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, loyalty.BookingWithdrawn, b.Status)

	sum, err := store.SumByMember(ctx, res.Member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, sum)
	m, err := svc.Member(ctx, res.Member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, m.Balance)
}

// =============================================================================
// NO-SHOW
// =============================================================================

func TestNoShow_PenalizedReversal(t *testing.T) {
	// GIVEN: A member with an active seat
	// WHEN: Staff marks them a no-show
	// THEN: The reversal is flagged as penalized

	svc, store := newTestService(t)
	ctx := context.Background()
	act := mustActivity(t, svc, "Spin Class", 25, 0)
	res := mustEnrollNew(t, svc, act.ID, "555-0204")

	entry, err := svc.MarkNoShow(ctx, res.Booking.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, ledger.KindNoShow, entry.Kind)
	assert.EqualValues(t, -25, entry.Amount)
	assert.True(t, entry.Penalized)
	assert.NotEmpty(t, entry.PenaltyReason)

	b, err := store.GetBooking(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, loyalty.BookingNoShow, b.Status)
}
