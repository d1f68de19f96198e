package models

import "time"

// DayLayout is the layout used for calendar-day keys.
const DayLayout = "2006-01-02"

// CalendarDays returns the signed number of calendar days from `from` to `to`,
// evaluated in the location of `to`. A zero `from` yields 0.
func CalendarDays(from, to time.Time) int {
	if from.IsZero() {
		return 0
	}
	loc := to.Location()
	f := from.In(loc)
	a := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// DaysSince is CalendarDays clamped at zero, for ages that cannot be negative.
func DaysSince(from, now time.Time) int {
	if d := CalendarDays(from, now); d > 0 {
		return d
	}
	return 0
}

// DayKey formats the calendar day of t.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// SameDay reports whether t falls on the calendar day of now, in now's location.
func SameDay(t, now time.Time) bool {
	if t.IsZero() {
		return false
	}
	return CalendarDays(t, now) == 0
}

// WithinDays reports whether t lies in the trailing window of `days` calendar days ending today,
// i.e. 0 <= CalendarDays(t, now) < days.
func WithinDays(t, now time.Time, days int) bool {
	if t.IsZero() {
		return false
	}
	d := CalendarDays(t, now)
	return d >= 0 && d < days
}

// BetweenDays reports whether t lies in the window [from, to) of calendar days ago.
func BetweenDays(t, now time.Time, from, to int) bool {
	if t.IsZero() {
		return false
	}
	d := CalendarDays(t, now)
	return d >= from && d < to
}
