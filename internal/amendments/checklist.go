package amendments

import "fmt"

// ComputeStatus derives the amendment status from its checklist. Rules are
// evaluated top-down and the first match wins.
func ComputeStatus(c Checklist) Status {
	switch {
	case c.WitnessesSigned:
		return StatusConcluded
	case c.Filings.Complete():
		return StatusPublication
	case c.MayorSigned:
		return StatusExecutiveSignature
	case c.SupplierSigned:
		return StatusSentForSupplierSignature
	case c.LegalDecision == DecisionApproved:
		return StatusReadyForSignature
	case c.LegalDecision == DecisionApprovedWithReservation:
		return StatusAdjustmentsNeeded
	case c.LegalDecision == DecisionRejected:
		return StatusLegalRejected
	case c.SentToLegal:
		return StatusLegalReview
	default:
		return StatusDrafting
	}
}

// FilingsPatch carries optional step 7 changes.
type FilingsPatch struct {
	Ledger        *bool `json:"ledger,omitempty"`
	Attachments   *bool `json:"attachments,omitempty"`
	Registry      *bool `json:"registry,omitempty"`
	PurchaseOrder *bool `json:"purchase_order,omitempty"`
}

// ChecklistPatch carries optional checklist changes; nil fields are left untouched.
type ChecklistPatch struct {
	ProcessOpened   *bool          `json:"process_opened,omitempty"`
	DraftPrepared   *bool          `json:"draft_prepared,omitempty"`
	SentToLegal     *bool          `json:"sent_to_legal,omitempty"`
	LegalDecision   *LegalDecision `json:"legal_decision,omitempty"`
	SupplierSigned  *bool          `json:"supplier_signed,omitempty"`
	MayorSigned     *bool          `json:"mayor_signed,omitempty"`
	Filings         *FilingsPatch  `json:"filings,omitempty"`
	WitnessesSigned *bool          `json:"witnesses_signed,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ChecklistPatch) Empty() bool {
	return p.ProcessOpened == nil && p.DraftPrepared == nil && p.SentToLegal == nil &&
		p.LegalDecision == nil && p.SupplierSigned == nil && p.MayorSigned == nil &&
		p.Filings == nil && p.WitnessesSigned == nil
}

// ApplyChecklistUpdate merges patch into c and returns the new checklist with its
// status. An invalid patch leaves c untouched.
func ApplyChecklistUpdate(c Checklist, patch ChecklistPatch) (Checklist, Status, error) {
	if patch.LegalDecision != nil && !patch.LegalDecision.Valid() {
		return c, ComputeStatus(c), fmt.Errorf("%w: %q", ErrInvalidDecision, *patch.LegalDecision)
	}
	next := c
	setBool(&next.ProcessOpened, patch.ProcessOpened)
	setBool(&next.DraftPrepared, patch.DraftPrepared)
	setBool(&next.SentToLegal, patch.SentToLegal)
	if patch.LegalDecision != nil {
		next.LegalDecision = *patch.LegalDecision
	}
	setBool(&next.SupplierSigned, patch.SupplierSigned)
	setBool(&next.MayorSigned, patch.MayorSigned)
	if f := patch.Filings; f != nil {
		setBool(&next.Filings.Ledger, f.Ledger)
		setBool(&next.Filings.Attachments, f.Attachments)
		setBool(&next.Filings.Registry, f.Registry)
		setBool(&next.Filings.PurchaseOrder, f.PurchaseOrder)
	}
	setBool(&next.WitnessesSigned, patch.WitnessesSigned)
	return next, ComputeStatus(next), nil
}

// UpdateChecklist applies patch to the amendment and recomputes its status.
func UpdateChecklist(a Amendment, patch ChecklistPatch) (Amendment, error) {
	next, _, err := ApplyChecklistUpdate(a.Checklist, patch)
	if err != nil {
		return a, err
	}
	out := a.clone()
	out.Checklist = next
	out.recompute()
	return out, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
