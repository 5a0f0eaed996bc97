package loyalty_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribe/loyalty-engine/loyalty"
)

func TestReconcile_CleanBalance_NoCorrection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0600"))
	require.NoError(t, err)

	report, err := svc.Reconcile(ctx, m.ID)
	require.NoError(t, err)

	assert.False(t, report.Corrected)
	assert.EqualValues(t, 500, report.PreviousBalance)
	assert.EqualValues(t, 500, report.TrueSum)
	assert.EqualValues(t, 0, report.Drift())
}

func TestReconcile_DriftedBalance_Repaired(t *testing.T) {
	// GIVEN: A cached balance hand-corrupted away from the ledger sum
	// WHEN: The member is reconciled
	// THEN: The cache is repaired to the ledger's truth and no ledger entry
	//       is written for the repair

	svc, store := newTestService(t)
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0601"))
	require.NoError(t, err)

	require.NoError(t, store.SetBalance(ctx, m.ID, 9999))

	report, err := svc.Reconcile(ctx, m.ID)
	require.NoError(t, err)

	assert.True(t, report.Corrected)
	assert.EqualValues(t, 9999, report.PreviousBalance)
	assert.EqualValues(t, 500, report.TrueSum)
	assert.EqualValues(t, 9499, report.Drift())

	got, err := svc.Member(ctx, m.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 500, got.Balance)

	history, err := svc.History(ctx, m.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1, "repairs never write entries")
}

func TestReconcileAll_ReportsOnlyCorrections(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	clean, err := svc.RegisterMember(ctx, *registration("555-0602"))
	require.NoError(t, err)
	drifted, err := svc.RegisterMember(ctx, *registration("555-0603"))
	require.NoError(t, err)

	require.NoError(t, store.SetBalance(ctx, drifted.ID, 1))

	reports, err := svc.ReconcileAll(ctx)
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.Equal(t, drifted.ID, reports[0].MemberID)
	assert.EqualValues(t, 500, reports[0].TrueSum)

	gotClean, err := svc.Member(ctx, clean.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 500, gotClean.Balance)
}

func TestReconcile_MemberWithNoEntries_SumsToZero(t *testing.T) {
	svc, store := newTestService(t, loyalty.WithRules(noBonusRules()))
	ctx := context.Background()
	m, err := svc.RegisterMember(ctx, *registration("555-0604"))
	require.NoError(t, err)

	require.NoError(t, store.SetBalance(ctx, m.ID, 77))

	report, err := svc.Reconcile(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, report.Corrected)
	assert.EqualValues(t, 0, report.TrueSum, "no entries means a zero balance")
}
