// Package calendar implements timezone-less calendar dates and the duration
// arithmetic used to derive contract expirations.
package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unit enumerates the duration units accepted by AddDuration.
type Unit string

const (
	UnitDay   Unit = "day"
	UnitMonth Unit = "month"
	UnitYear  Unit = "year"
)

var (
	// ErrMalformedDate indicates a date that does not exist on the calendar or cannot be parsed.
	ErrMalformedDate = errors.New("calendar: malformed date")
	// ErrUnknownUnit indicates an unsupported duration unit.
	ErrUnknownUnit = errors.New("calendar: unknown duration unit")
)

// Date is a calendar day with no time component. Month is 1-based.
type Date struct {
	Day   int
	Month int
	Year  int
}

// NewDate builds a Date from its components without validating it.
func NewDate(day, month, year int) Date {
	return Date{Day: day, Month: month, Year: year}
}

// FromTime returns the calendar day of t in its own location.
func FromTime(t time.Time) Date {
	return Date{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

// Valid reports whether d names an existing calendar day.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return d.Day <= DaysIn(d.Year, d.Month)
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// String formats d as DD/MM/YYYY.
func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}

// ISO formats d as YYYY-MM-DD.
func (d Date) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MarshalJSON encodes d as an ISO string, or null for the zero date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.ISO())
}

// UnmarshalJSON accepts null, an ISO date or a DD/MM/YYYY date.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedDate, string(data))
	}
	if strings.TrimSpace(raw) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Parse reads a date written as DD/MM/YYYY or YYYY-MM-DD. Each field must be
// all digits; anything else, trailing text included, is malformed.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	var d Date
	var ok bool
	switch {
	case strings.Count(s, "/") == 2:
		ok = fields(s, "/", &d.Day, &d.Month, &d.Year)
	case strings.Count(s, "-") == 2:
		ok = fields(s, "-", &d.Year, &d.Month, &d.Day)
	}
	if !ok || !d.Valid() {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return d, nil
}

func fields(s, sep string, dst ...*int) bool {
	parts := strings.Split(s, sep)
	if len(parts) != len(dst) {
		return false
	}
	for i, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return false
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return false
		}
		*dst[i] = n
	}
	return true
}

// DaysIn returns the number of days of month in year.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
