package clock

import "time"

// Clock yields the current instant. Everything that depends on "today"
// takes a Clock instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At }

// Offset shifts another clock by a whole number of days, which is how the
// --date override keeps time-of-day moving while pinning the calendar day.
type Offset struct {
	Base Clock
	Days int
}

func (o Offset) Now() time.Time {
	return o.Base.Now().AddDate(0, 0, o.Days)
}

// Func adapts a plain function, mirroring the nowFn parameters used by commands.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// Today returns the start of the clock's current day.
func Today(c Clock) time.Time {
	return StartOfDay(c.Now())
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of whole calendar days from start to day.
// Both are reduced to their calendar dates first so DST transitions and
// time-of-day never produce a partial day.
func DaysBetween(start, day time.Time) int {
	sy, sm, sd := start.Date()
	dy, dm, dd := day.In(start.Location()).Date()
	a := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	b := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// AddDays returns the start of the day n days after t.
func AddDays(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, n)
}
