package notifications

import "github.com/gestao-municipal/gestao/internal/contracts"

// DefaultThresholds are the advance-warning days used when none are configured.
var DefaultThresholds = []int{180, 150, 120, 90, 60, 30, 7}

// ShouldNotify reports whether daysRemaining is exactly one of the thresholds.
// Days between thresholds never fire.
func ShouldNotify(daysRemaining int, thresholds []int) bool {
	for _, t := range thresholds {
		if t == daysRemaining {
			return true
		}
	}
	return false
}

// Due reports whether the contract view should be notified today. Contracts
// with a manual status are never evaluated.
func Due(v contracts.View, thresholds []int) bool {
	if v.ManualStatus.Set() {
		return false
	}
	return ShouldNotify(v.DaysRemaining, thresholds)
}
