package amendments

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func decisionPtr(d LegalDecision) *LegalDecision { return &d }

// expectedStatus restates the priority order independently of the switch in ComputeStatus.
func expectedStatus(c Checklist) Status {
	if c.WitnessesSigned {
		return StatusConcluded
	}
	if c.Filings.Ledger && c.Filings.Attachments && c.Filings.Registry && c.Filings.PurchaseOrder {
		return StatusPublication
	}
	if c.MayorSigned {
		return StatusExecutiveSignature
	}
	if c.SupplierSigned {
		return StatusSentForSupplierSignature
	}
	switch c.LegalDecision {
	case DecisionApproved:
		return StatusReadyForSignature
	case DecisionApprovedWithReservation:
		return StatusAdjustmentsNeeded
	case DecisionRejected:
		return StatusLegalRejected
	}
	if c.SentToLegal {
		return StatusLegalReview
	}
	return StatusDrafting
}

func TestComputeStatusCoversEveryCombination(t *testing.T) {
	decisions := []LegalDecision{DecisionNone, DecisionApproved, DecisionRejected, DecisionApprovedWithReservation}
	seen := make(map[Status]int)
	total := 0
	for mask := 0; mask < 1<<5; mask++ {
		for _, decision := range decisions {
			for filings := 0; filings < 1<<4; filings++ {
				for witnesses := 0; witnesses < 2; witnesses++ {
					c := Checklist{
						ProcessOpened:  mask&1 != 0,
						DraftPrepared:  mask&2 != 0,
						SentToLegal:    mask&4 != 0,
						SupplierSigned: mask&8 != 0,
						MayorSigned:    mask&16 != 0,
						LegalDecision:  decision,
						Filings: Filings{
							Ledger:        filings&1 != 0,
							Attachments:   filings&2 != 0,
							Registry:      filings&4 != 0,
							PurchaseOrder: filings&8 != 0,
						},
						WitnessesSigned: witnesses == 1,
					}
					status := ComputeStatus(c)
					require.Equal(t, expectedStatus(c), status, "checklist %+v", c)
					seen[status]++
					total++
				}
			}
		}
	}
	require.Equal(t, 2*2*2*4*2*2*16*2, total)
	require.Len(t, seen, 9)
}

func TestComputeStatusPriority(t *testing.T) {
	cases := []struct {
		name string
		c    Checklist
		want Status
	}{
		{"empty", Checklist{}, StatusDrafting},
		{"opened only", Checklist{ProcessOpened: true, DraftPrepared: true}, StatusDrafting},
		{"sent to legal", Checklist{SentToLegal: true}, StatusLegalReview},
		{"rejected beats review", Checklist{SentToLegal: true, LegalDecision: DecisionRejected}, StatusLegalRejected},
		{"reservation", Checklist{LegalDecision: DecisionApprovedWithReservation}, StatusAdjustmentsNeeded},
		{"approved", Checklist{LegalDecision: DecisionApproved}, StatusReadyForSignature},
		{"supplier", Checklist{LegalDecision: DecisionRejected, SupplierSigned: true}, StatusSentForSupplierSignature},
		{"mayor", Checklist{SupplierSigned: true, MayorSigned: true}, StatusExecutiveSignature},
		{"partial filings", Checklist{MayorSigned: true, Filings: Filings{Ledger: true, Attachments: true, Registry: true}}, StatusExecutiveSignature},
		{"filings", Checklist{Filings: Filings{Ledger: true, Attachments: true, Registry: true, PurchaseOrder: true}}, StatusPublication},
		{"witnesses alone", Checklist{WitnessesSigned: true}, StatusConcluded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ComputeStatus(tc.c))
		})
	}
}

func TestApplyChecklistUpdate(t *testing.T) {
	base := Checklist{ProcessOpened: true, SentToLegal: true, Filings: Filings{Ledger: true}}

	next, status, err := ApplyChecklistUpdate(base, ChecklistPatch{
		LegalDecision: decisionPtr(DecisionApproved),
		Filings:       &FilingsPatch{Registry: boolPtr(true)},
	})
	require.NoError(t, err)
	require.Equal(t, StatusReadyForSignature, status)
	require.True(t, next.Filings.Ledger)
	require.True(t, next.Filings.Registry)
	require.False(t, next.Filings.Attachments)
	require.True(t, next.ProcessOpened)
	require.False(t, base.Filings.Registry)

	next, status, err = ApplyChecklistUpdate(next, ChecklistPatch{LegalDecision: decisionPtr(DecisionNone), SentToLegal: boolPtr(false)})
	require.NoError(t, err)
	require.Equal(t, StatusDrafting, status)
	require.Equal(t, DecisionNone, next.LegalDecision)
}

func TestApplyChecklistUpdateRejectsUnknownDecision(t *testing.T) {
	base := Checklist{SentToLegal: true}
	next, status, err := ApplyChecklistUpdate(base, ChecklistPatch{
		DraftPrepared: boolPtr(true),
		LegalDecision: decisionPtr("maybe"),
	})
	require.ErrorIs(t, err, ErrInvalidDecision)
	require.Equal(t, base, next)
	require.Equal(t, StatusLegalReview, status)
}

func TestUpdateChecklistRecomputesStatus(t *testing.T) {
	a := Amendment{ID: 1, Checklist: Checklist{ProcessOpened: true}}
	a.recompute()
	require.Equal(t, StatusDrafting, a.Status)

	out, err := UpdateChecklist(a, ChecklistPatch{WitnessesSigned: boolPtr(true)})
	require.NoError(t, err)
	require.Equal(t, StatusConcluded, out.Status)
	require.Equal(t, StatusDrafting, a.Status)
}

func TestChecklistPatchEmpty(t *testing.T) {
	require.True(t, ChecklistPatch{}.Empty())
	require.False(t, ChecklistPatch{Filings: &FilingsPatch{}}.Empty())
}
