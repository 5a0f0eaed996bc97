/*
reconcile.go - Ledger-vs-cache audit

PURPOSE:
  The cached balance column is derived state. Reconciliation recomputes the
  true balance as sum(entries) and, when the cache has drifted (a crashed
  migration, a hand-edited row), repairs the cache to match the ledger.
  The repair itself NEVER writes a ledger entry: the ledger is the truth
  being restored, not an account movement.
*/
package loyalty

import (
	"context"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/metrics"
)

// Reconcile audits one member. Read, compare and repair run in a single
// transaction so a concurrent append cannot be misread as drift.
func (s *Service) Reconcile(ctx context.Context, memberID ledger.MemberID) (*ReconciliationReport, error) {
	var report ReconciliationReport
	err := s.store.WithTx(ctx, func(store Store) error {
		m, err := store.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		sum, err := store.SumByMember(ctx, memberID)
		if err != nil {
			return err
		}
		report = ReconciliationReport{
			MemberID:        memberID,
			PreviousBalance: m.Balance,
			TrueSum:         sum,
		}
		if m.Balance == sum {
			return nil
		}
		if err := store.SetBalance(ctx, memberID, sum); err != nil {
			return err
		}
		report.Corrected = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ReconciliationRuns.Inc()
	if report.Corrected {
		metrics.ReconciliationRepairs.Inc()
		drift := report.Drift()
		if drift < 0 {
			drift = -drift
		}
		metrics.ReconciliationDrift.Add(float64(drift))
		s.log.WarnContext(ctx, "reconciliation repaired balance",
			"member_id", memberID,
			"cached", report.PreviousBalance,
			"ledger", report.TrueSum)
		s.publish(ctx, "reconciliation", "Balance repaired",
			"member %s: cached %d corrected to ledger sum %d",
			memberID, report.PreviousBalance, report.TrueSum)
	}
	return &report, nil
}

// ReconcileAll audits every member, one transaction each, and returns only
// the reports that found drift.
func (s *Service) ReconcileAll(ctx context.Context) ([]ReconciliationReport, error) {
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	var corrected []ReconciliationReport
	for _, m := range members {
		report, err := s.Reconcile(ctx, m.ID)
		if err != nil {
			s.log.WarnContext(ctx, "reconciliation: skipping member", "member_id", m.ID, "error", err)
			continue
		}
		if report.Corrected {
			corrected = append(corrected, *report)
		}
	}
	return corrected, nil
}
