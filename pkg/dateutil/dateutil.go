// Package dateutil provides UTC day-boundary helpers used by report keys
// and settlement scheduling.
package dateutil

import "time"

// StartOfDayUTC truncates t to 00:00:00 UTC of the same calendar day.
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDaysUTC shifts t by the given number of calendar days in UTC.
func AddDaysUTC(t time.Time, days int) time.Time {
	return t.UTC().AddDate(0, 0, days)
}

// SameUTCDay reports whether a and b fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	return StartOfDayUTC(a).Equal(StartOfDayUTC(b))
}
