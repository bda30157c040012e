package amendments

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/gestao-municipal/gestao/internal/calendar"
)

// Type distinguishes amendments that move dates from those that move money.
type Type string

const (
	TypeTerm  Type = "term"
	TypeValue Type = "value"
)

// LegalDecision is the ruling recorded at checklist step 4. The empty value means
// no ruling has been received yet and is encoded as JSON null.
type LegalDecision string

const (
	DecisionNone                    LegalDecision = ""
	DecisionApproved                LegalDecision = "approved"
	DecisionRejected                LegalDecision = "rejected"
	DecisionApprovedWithReservation LegalDecision = "approved_with_reservation"
)

// Valid reports whether d belongs to the step 4 domain.
func (d LegalDecision) Valid() bool {
	switch d {
	case DecisionNone, DecisionApproved, DecisionRejected, DecisionApprovedWithReservation:
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the absent ruling as null.
func (d LegalDecision) MarshalJSON() ([]byte, error) {
	if d == DecisionNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(d))
}

// UnmarshalJSON accepts null, "" or one of the ruling values.
func (d *LegalDecision) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = DecisionNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDecision, string(data))
	}
	decision := LegalDecision(raw)
	if !decision.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDecision, raw)
	}
	*d = decision
	return nil
}

// HistoryTag labels an entry of the legal review history.
type HistoryTag string

const (
	TagApproved                HistoryTag = "approved"
	TagRejected                HistoryTag = "rejected"
	TagApprovedWithReservation HistoryTag = "approved_with_reservation"
	TagComment                 HistoryTag = "comment"
)

// Status is the semantic label derived from the checklist.
type Status string

const (
	StatusDrafting                 Status = "DRAFTING"
	StatusLegalReview              Status = "LEGAL_REVIEW"
	StatusLegalRejected            Status = "LEGAL_REJECTED"
	StatusAdjustmentsNeeded        Status = "ADJUSTMENTS_NEEDED"
	StatusReadyForSignature        Status = "READY_FOR_SIGNATURE"
	StatusSentForSupplierSignature Status = "SENT_FOR_SUPPLIER_SIGNATURE"
	StatusExecutiveSignature       Status = "EXECUTIVE_SIGNATURE"
	StatusPublication              Status = "PUBLICATION"
	StatusConcluded                Status = "CONCLUDED"
)

// Filings is the composite step 7: all four filings must be done.
type Filings struct {
	Ledger        bool `json:"ledger"`
	Attachments   bool `json:"attachments"`
	Registry      bool `json:"registry"`
	PurchaseOrder bool `json:"purchase_order"`
}

// Complete reports whether every filing is done.
func (f Filings) Complete() bool {
	return f.Ledger && f.Attachments && f.Registry && f.PurchaseOrder
}

// Checklist holds the eight approval steps of an amendment.
type Checklist struct {
	ProcessOpened   bool          `json:"process_opened"`
	DraftPrepared   bool          `json:"draft_prepared"`
	SentToLegal     bool          `json:"sent_to_legal"`
	LegalDecision   LegalDecision `json:"legal_decision"`
	SupplierSigned  bool          `json:"supplier_signed"`
	MayorSigned     bool          `json:"mayor_signed"`
	Filings         Filings       `json:"filings"`
	WitnessesSigned bool          `json:"witnesses_signed"`
	// LegacyExecuted is set when a legacy record marked the supplier receipt
	// object as received, which those records used as the execution marker.
	LegacyExecuted bool `json:"legacy_executed,omitempty"`
}

// FullyExecuted reports whether the amendment counts as signed and in force.
func (c Checklist) FullyExecuted() bool {
	return c.WitnessesSigned || c.LegacyExecuted
}

// HistoryEntry is one line of the legal review log.
type HistoryEntry struct {
	ID       uuid.UUID  `json:"id"`
	At       time.Time  `json:"at"`
	Note     string     `json:"note"`
	Decision HistoryTag `json:"decision"`
	Author   string     `json:"author"`
}

// Amendment is a change request against a contract.
type Amendment struct {
	ID           int64          `json:"id"`
	ContractID   int64          `json:"contract_id"`
	Number       string         `json:"number"`
	Type         Type           `json:"type"`
	Duration     float64        `json:"duration"`
	DurationUnit calendar.Unit  `json:"duration_unit,omitempty"`
	Description  string         `json:"description"`
	EntryDate    string         `json:"entry_date"`
	Checklist    Checklist      `json:"checklist"`
	Status       Status         `json:"status"`
	Note         string         `json:"note"`
	PGMHistory   []HistoryEntry `json:"pgm_history"`
	Version      int64          `json:"version"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TermLength returns the whole number of units a term amendment adds.
func (a Amendment) TermLength() int {
	return int(math.Trunc(a.Duration))
}

// Foldable reports whether the amendment moves its contract's end date.
func (a Amendment) Foldable() bool {
	return a.Type == TypeTerm && a.Checklist.FullyExecuted()
}

// recompute refreshes every derived field. All mutations go through it.
func (a *Amendment) recompute() {
	a.Status = ComputeStatus(a.Checklist)
}

// clone returns a copy whose history does not alias a's.
func (a Amendment) clone() Amendment {
	out := a
	out.PGMHistory = append([]HistoryEntry(nil), a.PGMHistory...)
	return out
}

var (
	// ErrNotFound indicates the amendment does not exist.
	ErrNotFound = errors.New("amendments: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("amendments: invalid input")
	// ErrInvalidDecision indicates a value outside the legal ruling domain.
	ErrInvalidDecision = errors.New("amendments: invalid legal decision")
	// ErrNotRejected is returned when resetting an amendment whose ruling is not a rejection.
	ErrNotRejected = errors.New("amendments: amendment is not legally rejected")
	// ErrVersionConflict indicates a write against a stale version.
	ErrVersionConflict = errors.New("amendments: version conflict")
)
