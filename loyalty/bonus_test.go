package loyalty_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/loyalty"
)

func birthdayMember(t *testing.T, svc *loyalty.Service, phone string, birth time.Time) *loyalty.Member {
	t.Helper()
	in := registration(phone)
	in.BirthDate = &birth
	m, err := svc.RegisterMember(context.Background(), *in)
	require.NoError(t, err)
	return m
}

// =============================================================================
// SINGLE GRANTS
// =============================================================================

func TestBirthdayBonus_GrantedOncePerYear(t *testing.T) {
	// GIVEN: A member whose birthday is today, registered in a prior year
	// WHEN: The bonus check runs twice
	// THEN: Exactly one grant lands

	today := time.Date(2026, time.June, 15, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, loyalty.WithClock(ledger.FixedClock{T: today}))
	ctx := context.Background()

	birth := time.Date(1985, time.June, 15, 0, 0, 0, 0, time.UTC)
	member := birthdayMember(t, svc, "555-0300", birth)
	// Registration happened "today" in this service, but the birth date
	// matches, so the welcome path already granted this year's bonus.
	assert.Equal(t, 2026, member.LastBonusYear)

	granted, err := svc.CheckAndGrantBirthdayBonus(ctx, member.ID)
	require.NoError(t, err)
	assert.False(t, granted, "this year's bonus is already claimed")

	got, err := svc.Member(ctx, member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, got.Balance, "welcome 500 + one birthday 500")
}

func TestBirthdayBonus_NotBirthday_NoGrant(t *testing.T) {
	today := time.Date(2026, time.June, 15, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, loyalty.WithClock(ledger.FixedClock{T: today}))
	ctx := context.Background()

	birth := time.Date(1985, time.December, 1, 0, 0, 0, 0, time.UTC)
	member := birthdayMember(t, svc, "555-0301", birth)

	granted, err := svc.CheckAndGrantBirthdayBonus(ctx, member.ID)
	require.NoError(t, err)
	assert.False(t, granted)
	assert.Equal(t, 0, member.LastBonusYear)
}

func TestBirthdayBonus_NoBirthDate_NoGrant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.RegisterMember(ctx, *registration("555-0302"))
	require.NoError(t, err)

	granted, err := svc.CheckAndGrantBirthdayBonus(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestBirthdayBonus_NewYearNewGrant(t *testing.T) {
	// GIVEN: A member who claimed 2026's bonus
	// WHEN: Their birthday comes around in 2027
	// THEN: A fresh grant lands

	birthday2026 := time.Date(2026, time.June, 15, 9, 0, 0, 0, time.UTC)
	clock := &steppingClock{t: birthday2026}
	svc, _ := newTestService(t, loyalty.WithClock(clock))
	ctx := context.Background()

	birth := time.Date(1985, time.June, 15, 0, 0, 0, 0, time.UTC)
	member := birthdayMember(t, svc, "555-0303", birth)
	require.Equal(t, 2026, member.LastBonusYear)

	clock.set(time.Date(2027, time.June, 15, 9, 0, 0, 0, time.UTC))
	granted, err := svc.CheckAndGrantBirthdayBonus(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, granted)

	got, err := svc.Member(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 2027, got.LastBonusYear)
	assert.EqualValues(t, 1500, got.Balance, "welcome + two birthdays")
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestBirthdayBonus_ConcurrentChecks_SingleGrant(t *testing.T) {
	// GIVEN: A member due this year's bonus
	// WHEN: Many goroutines race the grant
	// THEN: Exactly one wins; the rest skip silently

	birthday := time.Date(2027, time.June, 15, 9, 0, 0, 0, time.UTC)
	clock := &steppingClock{t: time.Date(2026, time.June, 15, 9, 0, 0, 0, time.UTC)}
	svc, store := newTestService(t, loyalty.WithClock(clock))
	ctx := context.Background()

	birth := time.Date(1985, time.June, 15, 0, 0, 0, 0, time.UTC)
	member := birthdayMember(t, svc, "555-0304", birth)
	clock.set(birthday)

	var grants int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted, err := svc.CheckAndGrantBirthdayBonus(ctx, member.ID)
			assert.NoError(t, err)
			if granted {
				atomic.AddInt64(&grants, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, grants, "exactly one goroutine wins the claim")

	sum, err := store.SumByMember(ctx, member.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1500, sum, "welcome + 2026 grant + one 2027 grant")
}

// =============================================================================
// SWEEP
// =============================================================================

func TestGrantDueBirthdayBonuses_SweepsOnlyTodaysBirthdays(t *testing.T) {
	today := time.Date(2027, time.June, 15, 9, 0, 0, 0, time.UTC)
	clock := &steppingClock{t: time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, loyalty.WithClock(clock))
	ctx := context.Background()

	due := birthdayMember(t, svc, "555-0305", time.Date(1985, time.June, 15, 0, 0, 0, 0, time.UTC))
	notDue := birthdayMember(t, svc, "555-0306", time.Date(1985, time.December, 1, 0, 0, 0, 0, time.UTC))

	clock.set(today)
	granted, err := svc.GrantDueBirthdayBonuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, granted)

	gotDue, err := svc.Member(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, 2027, gotDue.LastBonusYear)

	gotNot, err := svc.Member(ctx, notDue.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, gotNot.LastBonusYear)
}

// steppingClock is a settable clock for multi-day test timelines.
type steppingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *steppingClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
