/*
clock.go - Injectable time source

PURPOSE:
  Bonus grants and history ordering depend on "today", so time is a
  dependency, not an ambient. Production wires SystemClock; tests pin a
  FixedClock to exercise birthday and daily-limit edges deterministically.
*/
package ledger

import "time"

// Clock supplies the current instant. All timestamps in the engine flow
// through a Clock so behavior is reproducible under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SameMonthDay reports whether a and b share a calendar month and day,
// ignoring the year. Used for birthday matching.
func SameMonthDay(a, b time.Time) bool {
	return a.Month() == b.Month() && a.Day() == b.Day()
}

// StartOfDay truncates t to midnight in t's location. Daily gift limits
// count transfers since this instant.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
