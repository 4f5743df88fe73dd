// Package timerange holds calendar-day arithmetic shared by availability
// reporting and booking creation. All values are UTC calendar dates.
package timerange

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"
)

const day = 24 * time.Hour

var ErrInvalidRange = errors.New("end date is before start date")

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts "2006-01-02" or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return Day(t), nil
}

// DaysBetweenInclusive counts the calendar days from start to end, both included.
func DaysBetweenInclusive(start, end time.Time) (int, error) {
	s, e := Day(start), Day(end)
	if e.Before(s) {
		return 0, ErrInvalidRange
	}
	return int(e.Sub(s)/day) + 1, nil
}

// RangesOverlap reports whether [aStart, aEnd] and [bStart, bEnd] share at least one instant.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// Contains reports whether the calendar date d falls within [start, end].
func Contains(start, end, d time.Time) bool {
	d = Day(d)
	return !d.Before(Day(start)) && !d.After(Day(end))
}

// EnumerateDays yields every calendar day from start to end inclusive, ascending.
// The sequence is empty when end is before start.
func EnumerateDays(start, end time.Time) iter.Seq[time.Time] {
	s, e := Day(start), Day(end)
	return func(yield func(time.Time) bool) {
		for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Format renders a calendar date as YYYY-MM-DD.
func Format(t time.Time) string {
	return Day(t).Format(time.DateOnly)
}
