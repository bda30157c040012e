package contracts

import "github.com/gestao-municipal/gestao/internal/calendar"

// DeriveContractStatus computes days remaining and status with the default
// warning band. A manual override skips date arithmetic entirely.
func DeriveContractStatus(c Contract, effective calendar.Date, clock calendar.Clock) Derived {
	d, _ := DeriveWith(calendar.PolicyLenient, DefaultWarningDays, c, effective, clock)
	return d
}

// DeriveWith is DeriveContractStatus with an explicit policy and warning band.
func DeriveWith(policy calendar.Policy, warningDays int, c Contract, effective calendar.Date, clock calendar.Clock) (Derived, error) {
	switch c.ManualStatus {
	case ManualExecuted:
		return Derived{Status: StatusExecuted}, nil
	case ManualRescinded:
		return Derived{Status: StatusRescinded}, nil
	}
	days, err := policy.DaysUntil(clock, effective)
	if err != nil {
		return Derived{}, err
	}
	return Derived{DaysRemaining: days, Status: classify(days, warningDays)}, nil
}

func classify(days, warningDays int) Status {
	switch {
	case days < 0:
		return StatusExpired
	case days <= warningDays:
		return StatusWarning
	default:
		return StatusActive
	}
}
