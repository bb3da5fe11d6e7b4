package block

import (
	"errors"
	"sort"
	"time"
)

// DateLayout is the ISO calendar date format used for every Date value.
const DateLayout = "2006-01-02"

// ErrInvalidDate indicates a value is not a YYYY-MM-DD calendar date.
var ErrInvalidDate = errors.New("block: invalid date")

// Date is a naive calendar date in ISO form. Comparing two valid dates as
// strings is equivalent to comparing them on the calendar.
type Date string

// ParseDate validates s and returns it as a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", ErrInvalidDate
	}
	// Reject non-canonical spellings such as 2024-1-5.
	if t.Format(DateLayout) != s {
		return "", ErrInvalidDate
	}
	return Date(s), nil
}

// MustDate is ParseDate for literals; it panics on malformed input.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the wall-clock date of t.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// Valid reports whether d is a well formed calendar date.
func (d Date) Valid() bool {
	_, err := ParseDate(string(d))
	return err == nil
}

// Time returns midnight of d in UTC. The zone carries no meaning; it only
// gives date arithmetic a stable base.
func (d Date) Time() time.Time {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Weekday returns the day of week, 0=Sunday through 6=Saturday.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays shifts d by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d < other }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d > other }

// DaysUntil returns the number of days from d to other (negative if other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int((other.Time().Unix() - d.Time().Unix()) / 86400)
}

// String implements fmt.Stringer.
func (d Date) String() string { return string(d) }

// DateSet is an unordered set of dates.
type DateSet map[Date]struct{}

// NewDateSet builds a set from the provided dates.
func NewDateSet(dates ...Date) DateSet {
	set := make(DateSet, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s DateSet) Has(d Date) bool {
	_, ok := s[d]
	return ok
}

// Sorted returns the members in ascending order. Never nil.
func (s DateSet) Sorted() []Date {
	out := make([]Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy.
func (s DateSet) Clone() DateSet {
	out := make(DateSet, len(s))
	for d := range s {
		out[d] = struct{}{}
	}
	return out
}

// CompletionLog records per-occurrence completion of a recurring block.
// A date maps to true once that occurrence is done; undone dates are absent.
type CompletionLog map[Date]bool

// Done reports whether the occurrence on d is complete.
func (c CompletionLog) Done(d Date) bool {
	return c[d]
}

// Dates returns completed dates in ascending order. Never nil.
func (c CompletionLog) Dates() []Date {
	out := make([]Date, 0, len(c))
	for d, done := range c {
		if done {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy.
func (c CompletionLog) Clone() CompletionLog {
	out := make(CompletionLog, len(c))
	for d, done := range c {
		if done {
			out[d] = true
		}
	}
	return out
}
