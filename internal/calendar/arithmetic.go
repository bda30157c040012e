package calendar

import (
	"fmt"
)

const secondsPerDay = 24 * 60 * 60

// Policy selects how date helpers react to malformed input.
type Policy string

const (
	// PolicyLenient returns a safe default (the base date, or zero days) on malformed input.
	PolicyLenient Policy = "lenient"
	// PolicyStrict surfaces ErrMalformedDate / ErrUnknownUnit to the caller.
	PolicyStrict Policy = "strict"
)

// ParsePolicy maps a configuration value to a Policy, defaulting to lenient.
func ParsePolicy(s string) Policy {
	if Policy(s) == PolicyStrict {
		return PolicyStrict
	}
	return PolicyLenient
}

// Add shifts base by amount units. Day arithmetic rolls over month and year
// boundaries; month and year arithmetic clamp to the last day of the target month.
func Add(base Date, amount int, unit Unit) (Date, error) {
	if !base.Valid() {
		return base, fmt.Errorf("%w: %+v", ErrMalformedDate, base)
	}
	switch unit {
	case UnitDay, UnitMonth, UnitYear:
	default:
		return base, fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
	if amount == 0 {
		return base, nil
	}
	switch unit {
	case UnitDay:
		return FromTime(base.Time().AddDate(0, 0, amount)), nil
	case UnitMonth:
		return shiftMonths(base, amount), nil
	default:
		return clamp(base.Year+amount, base.Month, base.Day), nil
	}
}

// AddDuration is the lenient form of Add: malformed input yields base unchanged.
func AddDuration(base Date, amount int, unit Unit) Date {
	d, _ := PolicyLenient.AddDuration(base, amount, unit)
	return d
}

// AddDuration applies Add under the policy.
func (p Policy) AddDuration(base Date, amount int, unit Unit) (Date, error) {
	d, err := Add(base, amount, unit)
	if err != nil {
		if p == PolicyStrict {
			return base, err
		}
		return base, nil
	}
	return d, nil
}

// Between returns the signed number of days from -> to.
func Between(from, to Date) (int, error) {
	if !from.Valid() {
		return 0, fmt.Errorf("%w: %+v", ErrMalformedDate, from)
	}
	if !to.Valid() {
		return 0, fmt.Errorf("%w: %+v", ErrMalformedDate, to)
	}
	// Both sides are UTC midnights; Unix seconds keep far dates such as 31/12/9999 exact.
	return int((to.Time().Unix() - from.Time().Unix()) / secondsPerDay), nil
}

// DaysUntil is the lenient day distance from the clock's today to target.
func DaysUntil(clock Clock, target Date) int {
	n, _ := PolicyLenient.DaysUntil(clock, target)
	return n
}

// DaysUntil measures days from the clock's today to target under the policy.
func (p Policy) DaysUntil(clock Clock, target Date) (int, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	n, err := Between(clock.Today(), target)
	if err != nil {
		if p == PolicyStrict {
			return 0, err
		}
		return 0, nil
	}
	return n, nil
}

func shiftMonths(base Date, amount int) Date {
	total := base.Year*12 + (base.Month - 1) + amount
	year := total / 12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}
	return clamp(year, month+1, base.Day)
}

func clamp(year, month, day int) Date {
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return Date{Day: day, Month: month, Year: year}
}
