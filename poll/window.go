// Package poll holds the decision rules of the weekly cleanup poll: the
// voting window, candidate selection, vote validation, tallying and
// resolution. Everything here is a pure function of its arguments.
package poll

import "time"

// ThisWeekStart returns Monday 00:00:00 of the week containing now, in now's
// location. Sunday belongs to the week that started six days earlier.
func ThisWeekStart(now time.Time) time.Time {
	diff := 1 - int(now.Weekday())
	if now.Weekday() == time.Sunday {
		diff = -6
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+diff, 0, 0, 0, 0, now.Location())
}

// ThisWeekEnd returns Friday 23:59:59.999 of the week containing now
func ThisWeekEnd(now time.Time) time.Time {
	y, m, d := ThisWeekStart(now).Date()
	return time.Date(y, m, d+4, 23, 59, 59, int(999*time.Millisecond), now.Location())
}

// Window is the voting window of one week
type Window struct {
	Start time.Time
	End   time.Time
}

// CurrentWindow returns the voting window of the week containing now
func CurrentWindow(now time.Time) Window {
	return Window{Start: ThisWeekStart(now), End: ThisWeekEnd(now)}
}

// Ended reports whether now is past the end of the window
func (w Window) Ended(now time.Time) bool {
	return now.After(w.End)
}

// Contains reports whether now lies within the window, bounds included
func (w Window) Contains(now time.Time) bool {
	return !now.Before(w.Start) && !now.After(w.End)
}
