package contracts

import (
	"errors"
	"time"

	"github.com/gestao-municipal/gestao/internal/calendar"
)

// ManualStatus is the operator override stored on a contract.
type ManualStatus string

const (
	ManualNone      ManualStatus = ""
	ManualExecuted  ManualStatus = "executed"
	ManualRescinded ManualStatus = "rescinded"
)

// Valid reports whether m is a known override.
func (m ManualStatus) Valid() bool {
	switch m {
	case ManualNone, ManualExecuted, ManualRescinded:
		return true
	default:
		return false
	}
}

// Set reports whether an override takes precedence over date status.
func (m ManualStatus) Set() bool {
	return m == ManualExecuted || m == ManualRescinded
}

// Status is the coarse contract category.
type Status string

const (
	StatusActive    Status = "active"
	StatusWarning   Status = "warning"
	StatusExpired   Status = "expired"
	StatusExecuted  Status = "executed"
	StatusRescinded Status = "rescinded"
)

// AllStatuses lists statuses in dashboard order.
var AllStatuses = []Status{StatusActive, StatusWarning, StatusExpired, StatusExecuted, StatusRescinded}

// DefaultWarningDays is the days-remaining bound of the warning band.
const DefaultWarningDays = 30

// Contract is the parent record amendments attach to.
type Contract struct {
	ID           int64         `json:"id"`
	Code         string        `json:"code"`
	Object       string        `json:"object"`
	Supplier     string        `json:"supplier"`
	Value        float64       `json:"value"`
	BaseEndDate  calendar.Date `json:"base_end_date"`
	ManualStatus ManualStatus  `json:"manual_status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Derived pairs days remaining with the status computed from it.
type Derived struct {
	DaysRemaining int    `json:"days_remaining"`
	Status        Status `json:"status"`
}

// BadgeKind is the short label of an amendment still in flight.
type BadgeKind string

const (
	BadgeApproved                BadgeKind = "approved"
	BadgeRejected                BadgeKind = "rejected"
	BadgeApprovedWithReservation BadgeKind = "approved_with_reservation"
	BadgeInLegalReview           BadgeKind = "in_legal_review"
	BadgeInDrafting              BadgeKind = "in_drafting"
)

// Badge describes the in-flight term amendment of a contract.
type Badge struct {
	AmendmentID int64     `json:"amendment_id"`
	Number      string    `json:"number"`
	Kind        BadgeKind `json:"kind"`
}

// View is the read model served to list and dashboard screens.
type View struct {
	Contract
	EffectiveEndDate calendar.Date `json:"effective_end_date"`
	Derived
	ActiveAmendment *Badge  `json:"active_amendment,omitempty"`
	TotalValue      float64 `json:"total_value"`
}

// Summary aggregates views per status.
type Summary struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
	// ExpiringSoon holds warning contracts ordered by days remaining.
	ExpiringSoon []View `json:"expiring_soon"`
}

var (
	// ErrNotFound indicates the contract does not exist.
	ErrNotFound = errors.New("contracts: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("contracts: invalid input")
	// ErrDuplicateCode indicates another contract already uses the code.
	ErrDuplicateCode = errors.New("contracts: duplicate code")
)
