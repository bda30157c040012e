package amendments

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordLegalDecision stores a legal ruling. The step 3 flag is cleared because
// the amendment leaves the pending review queue once a ruling exists.
func RecordLegalDecision(a Amendment, decision LegalDecision, note, author string, at time.Time) (Amendment, error) {
	tag, ok := decisionTag(decision)
	if !ok {
		return a, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}
	out := a.clone()
	out.PGMHistory = append(out.PGMHistory, newEntry(tag, note, author, at))
	out.Checklist.LegalDecision = decision
	out.Checklist.SentToLegal = false
	out.Note = ""
	out.recompute()
	return out, nil
}

// AddComment appends a discussion entry without touching the checklist.
func AddComment(a Amendment, note, author string, at time.Time) (Amendment, error) {
	if strings.TrimSpace(note) == "" {
		return a, fmt.Errorf("%w: comment note required", ErrValidation)
	}
	out := a.clone()
	out.PGMHistory = append(out.PGMHistory, newEntry(TagComment, note, author, at))
	return out, nil
}

// ResetRejected archives the rejection note and resubmits the amendment for
// legal review. It is only valid while step 4 holds a rejection.
func ResetRejected(a Amendment, author string, at time.Time) (Amendment, error) {
	if a.Checklist.LegalDecision != DecisionRejected {
		return a, ErrNotRejected
	}
	out := a.clone()
	out.PGMHistory = append(out.PGMHistory, newEntry(TagRejected, a.Note, author, at))
	out.Checklist.LegalDecision = DecisionNone
	out.Checklist.SentToLegal = true
	out.Note = ""
	out.recompute()
	return out, nil
}

func decisionTag(d LegalDecision) (HistoryTag, bool) {
	switch d {
	case DecisionApproved:
		return TagApproved, true
	case DecisionRejected:
		return TagRejected, true
	case DecisionApprovedWithReservation:
		return TagApprovedWithReservation, true
	default:
		return "", false
	}
}

func newEntry(tag HistoryTag, note, author string, at time.Time) HistoryEntry {
	if at.IsZero() {
		at = time.Now()
	}
	return HistoryEntry{
		ID:       uuid.New(),
		At:       at.UTC(),
		Note:     strings.TrimSpace(note),
		Decision: tag,
		Author:   author,
	}
}
