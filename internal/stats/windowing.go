package stats

import (
	"time"
)

// SprintWindow is the date range of one sprint as recorded on one ticket.
type SprintWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, bounds included.
func (w SprintWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// BusinessDays counts the business days of the window.
func (w SprintWindow) BusinessDays() int {
	return CountBusinessDays(w.Start, w.End)
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// CountBusinessDays enumerates calendar days from `from` in 24h steps while
// not after `to`, counting the ones that are not weekend days. An inverted
// range counts zero.
func CountBusinessDays(from, to time.Time) int {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return 0
	}
	count := 0
	for d := from; !d.After(to); d = d.Add(24 * time.Hour) {
		if !IsWeekend(d) {
			count++
		}
	}
	return count
}

// OverlapBusinessDays counts business days in the intersection of
// [aStart, aEnd] and [bStart, bEnd].
func OverlapBusinessDays(aStart, aEnd, bStart, bEnd time.Time) int {
	lo := aStart
	if bStart.After(lo) {
		lo = bStart
	}
	hi := aEnd
	if bEnd.Before(hi) {
		hi = bEnd
	}
	return CountBusinessDays(lo, hi)
}
