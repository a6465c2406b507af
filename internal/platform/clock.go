package platform

import "time"

// Clock abstracts "now" so scheduling decisions and session timestamps stay
// deterministic in tests. Implementations return local time; calendar-day
// boundaries are derived with StartOfDay.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// NewSystemClock returns the process wall clock.
func NewSystemClock() Clock {
	return SystemClock{}
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
