package block

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinutesPerDay is the number of wall-clock minutes in a day.
	MinutesPerDay = 24 * 60
	// EndOfDay is 23:59, the latest representable clock value.
	EndOfDay Clock = MinutesPerDay - 1
)

// ErrInvalidClock indicates a value is not an HH:MM wall-clock time.
var ErrInvalidClock = errors.New("block: invalid clock time")

// Clock is a wall-clock time of day in minutes since midnight (0..1439).
type Clock int

// NewClock builds a Clock from an hour and minute without validation.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses a 24-hour "HH:MM" value.
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, ErrInvalidClock
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, ErrInvalidClock
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, ErrInvalidClock
	}
	return NewClock(hour, minute), nil
}

// MustClock is ParseClock for literals; it panics on malformed input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hour returns the hour component.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c Clock) Minute() int { return int(c) % 60 }

// Valid reports whether c lies within a single day.
func (c Clock) Valid() bool { return c >= 0 && c <= EndOfDay }

// String renders c as zero padded HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Clamp bounds c to [lo, hi].
func (c Clock) Clamp(lo, hi Clock) Clock {
	if c < lo {
		return lo
	}
	if c > hi {
		return hi
	}
	return c
}
