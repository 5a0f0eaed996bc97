package loyalty_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/loyalty"
)

// noBonusRules zeroes the automatic bonuses so tests control the balance.
func noBonusRules() loyalty.Rules {
	r := loyalty.DefaultRules()
	r.WelcomeBonus = 0
	r.BirthdayBonus = 0
	return r
}

// =============================================================================
// MANUAL ADJUSTMENT
// =============================================================================

func TestManualAdjust_PositiveCreditsInFull(t *testing.T) {
	svc, store := newTestService(t, loyalty.WithRules(noBonusRules()))
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0400"))
	require.NoError(t, err)

	entry, err := svc.ManualAdjust(ctx, m.ID, 120, "migration from the old system")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, ledger.KindManualAdjust, entry.Kind)
	assert.EqualValues(t, 120, entry.Amount)

	sum, err := store.SumByMember(ctx, m.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 120, sum)
}

func TestManualAdjust_NegativeClampsAtZero(t *testing.T) {
	// GIVEN: A member holding 30 points
	// WHEN: An admin adjusts by -80
	// THEN: Only -30 is applied and recorded; the balance lands at zero,
	//       never below

	svc, store := newTestService(t, loyalty.WithRules(noBonusRules()))
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0401"))
	require.NoError(t, err)
	_, err = svc.Restitute(ctx, m.ID, 30, "seed balance")
	require.NoError(t, err)

	entry, err := svc.ManualAdjust(ctx, m.ID, -80, "duplicate credit cleanup")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.EqualValues(t, -30, entry.Amount, "the entry records what actually left")

	got, err := svc.Member(ctx, m.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.Balance)

	sum, err := store.SumByMember(ctx, m.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, sum)
}

func TestManualAdjust_DebitOnEmptyAccount_NoEntry(t *testing.T) {
	svc, _ := newTestService(t, loyalty.WithRules(noBonusRules()))
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0402"))
	require.NoError(t, err)

	entry, err := svc.ManualAdjust(ctx, m.ID, -50, "cleanup")
	require.NoError(t, err)
	assert.Nil(t, entry)

	history, err := svc.History(ctx, m.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestManualAdjust_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0403"))
	require.NoError(t, err)

	_, err = svc.ManualAdjust(ctx, m.ID, 0, "nothing")
	assert.ErrorIs(t, err, loyalty.ErrInvalidAmount)

	_, err = svc.ManualAdjust(ctx, m.ID, 10, "")
	assert.ErrorIs(t, err, loyalty.ErrMissingField)
}

// =============================================================================
// PENALTY AND RESTITUTION
// =============================================================================

func TestPenalize_ClampedAndFlagged(t *testing.T) {
	svc, _ := newTestService(t, loyalty.WithRules(noBonusRules()))
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0404"))
	require.NoError(t, err)
	_, err = svc.Restitute(ctx, m.ID, 40, "seed balance")
	require.NoError(t, err)

	entry, err := svc.Penalize(ctx, m.ID, 100, "equipment damage")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, ledger.KindPenalty, entry.Kind)
	assert.EqualValues(t, -40, entry.Amount)
	assert.True(t, entry.Penalized)
	assert.Equal(t, "equipment damage", entry.PenaltyReason)

	got, err := svc.Member(ctx, m.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.Balance)
}

func TestRestitute_Credits(t *testing.T) {
	svc, _ := newTestService(t, loyalty.WithRules(noBonusRules()))
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0405"))
	require.NoError(t, err)

	entry, err := svc.Restitute(ctx, m.ID, 75, "penalty reversed on appeal")
	require.NoError(t, err)

	assert.Equal(t, ledger.KindRestitution, entry.Kind)
	assert.EqualValues(t, 75, entry.Amount)

	got, err := svc.Member(ctx, m.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 75, got.Balance)
}

func TestAdjust_UnknownMember_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ManualAdjust(context.Background(), "ghost", 10, "test")
	assert.ErrorIs(t, err, ledger.ErrMemberNotFound)
}
