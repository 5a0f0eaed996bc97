/*
bonus.go - Birthday bonus grants

PURPOSE:
  The birthday bonus is granted at most once per calendar year per member,
  opportunistically: whenever a member interacts with the program on their
  birthday, and via the explicit sweep an admin or cron job can trigger.

IDEMPOTENCY:
  Concurrent grant attempts race on a conditional update of the member's
  last-bonus-year column. Exactly one attempt flips the year and credits;
  every loser sees zero rows updated and skips without error.
*/
package loyalty

import (
	"context"
	"fmt"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/metrics"
)

// CheckAndGrantBirthdayBonus grants the member's birthday bonus if today is
// their birthday and this year's bonus is still unclaimed. Returns whether
// a grant happened; "no" is the normal outcome, not an error.
func (s *Service) CheckAndGrantBirthdayBonus(ctx context.Context, memberID ledger.MemberID) (bool, error) {
	var granted bool
	err := s.store.WithTx(ctx, func(store Store) error {
		m, err := store.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		st := s.newStamper()
		granted, err = s.grantBirthdayIfDue(ctx, store, m, st)
		return err
	})
	if err != nil {
		return false, err
	}
	if granted {
		s.publish(ctx, "points", "Birthday bonus", "member %s received the %d-point birthday bonus",
			memberID, s.rules.BirthdayBonus)
	}
	return granted, nil
}

// GrantDueBirthdayBonuses sweeps every member whose birthday is today and
// grants pending bonuses. Each member is its own transaction so one bad
// row cannot block the rest. Returns the number of bonuses granted.
func (s *Service) GrantDueBirthdayBonuses(ctx context.Context) (int, error) {
	today := s.clock.Now()
	due, err := s.store.MembersWithBirthday(ctx, today.Month(), today.Day())
	if err != nil {
		return 0, err
	}

	granted := 0
	for _, m := range due {
		ok, err := s.CheckAndGrantBirthdayBonus(ctx, m.ID)
		if err != nil {
			s.log.WarnContext(ctx, "birthday sweep: skipping member",
				"member_id", m.ID, "error", err)
			continue
		}
		if ok {
			granted++
		}
	}
	return granted, nil
}

// grantBirthdayIfDue holds the actual grant logic. Must run inside a
// transaction. Updates m's Balance and LastBonusYear on success.
func (s *Service) grantBirthdayIfDue(ctx context.Context, store Store, m *Member, st *stamper) (bool, error) {
	if m.BirthDate == nil || s.rules.BirthdayBonus <= 0 {
		return false, nil
	}
	today := s.clock.Now()
	if !ledger.SameMonthDay(*m.BirthDate, today) {
		return false, nil
	}
	year := today.Year()
	if m.LastBonusYear == year {
		return false, nil
	}

	claimed, err := store.ClaimBirthdayBonus(ctx, m.ID, year)
	if err != nil {
		return false, err
	}
	if !claimed {
		// Another writer granted this year's bonus first.
		return false, nil
	}

	balance, err := store.CreditBalance(ctx, m.ID, s.rules.BirthdayBonus)
	if err != nil {
		return false, err
	}
	e := newEntry(m.ID, ledger.KindBirthdayBonus, s.rules.BirthdayBonus,
		fmt.Sprintf("birthday bonus %d", year), st.next())
	if err := appendEntry(ctx, store, e); err != nil {
		return false, err
	}

	m.Balance = balance
	m.LastBonusYear = year
	metrics.BirthdayBonuses.Inc()
	return true, nil
}
