package calendar

import "time"

// Clock supplies the current calendar day.
type Clock interface {
	Today() Date
}

// SystemClock reads the wall clock in Location (local time when nil).
type SystemClock struct {
	Location *time.Location
}

// Today returns the current day in the clock location.
func (c SystemClock) Today() Date {
	now := time.Now()
	if c.Location != nil {
		now = now.In(c.Location)
	}
	return FromTime(now)
}

// FixedClock always reports the same day.
type FixedClock Date

// Today returns the pinned day.
func (c FixedClock) Today() Date {
	return Date(c)
}
