package models

import (
	"fmt"
	"sort"
	"time"
)

// TimeOfDay is a wall-clock time with minute precision used for payout schedules
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an "HH:MM" string
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// TimeOfDayFromMinutes converts minutes since midnight back to a TimeOfDay
func TimeOfDayFromMinutes(minutes int) TimeOfDay {
	return TimeOfDay{Hour: minutes / 60, Minute: minutes % 60}
}

// String formats the time as HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// NextOccurrence returns the next instant strictly after now with this wall-clock
// time, in now's location. Today's occurrence is used unless it is not after now.
func (t TimeOfDay) NextOccurrence(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if now.After(next) || now.Equal(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// SortTimes sorts times of day in ascending order
func SortTimes(times []TimeOfDay) {
	sort.Slice(times, func(i, j int) bool {
		return times[i].Minutes() < times[j].Minutes()
	})
}
