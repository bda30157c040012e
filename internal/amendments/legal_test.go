package amendments

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var reviewAt = time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)

func inReview() Amendment {
	a := Amendment{
		ID:        7,
		Type:      TypeTerm,
		Checklist: Checklist{ProcessOpened: true, DraftPrepared: true, SentToLegal: true},
		Note:      "  prazo compatível com a lei  ",
	}
	a.recompute()
	return a
}

func TestRecordLegalDecisionApproved(t *testing.T) {
	a := inReview()
	out, err := RecordLegalDecision(a, DecisionApproved, a.Note, "procuradora", reviewAt)
	require.NoError(t, err)

	require.Equal(t, DecisionApproved, out.Checklist.LegalDecision)
	require.False(t, out.Checklist.SentToLegal)
	require.Empty(t, out.Note)
	require.Equal(t, StatusReadyForSignature, out.Status)
	require.Len(t, out.PGMHistory, len(a.PGMHistory)+1)

	entry := out.PGMHistory[len(out.PGMHistory)-1]
	require.Equal(t, TagApproved, entry.Decision)
	require.Equal(t, "prazo compatível com a lei", entry.Note)
	require.Equal(t, "procuradora", entry.Author)
	require.Equal(t, reviewAt, entry.At)
	require.NotEqual(t, uuid.Nil, entry.ID)

	// input untouched
	require.True(t, a.Checklist.SentToLegal)
	require.Empty(t, a.PGMHistory)
}

func TestRecordLegalDecisionTags(t *testing.T) {
	cases := map[LegalDecision]struct {
		tag    HistoryTag
		status Status
	}{
		DecisionRejected:                {TagRejected, StatusLegalRejected},
		DecisionApprovedWithReservation: {TagApprovedWithReservation, StatusAdjustmentsNeeded},
	}
	for decision, want := range cases {
		out, err := RecordLegalDecision(inReview(), decision, "n", "pgm", reviewAt)
		require.NoError(t, err)
		require.Equal(t, want.tag, out.PGMHistory[0].Decision)
		require.Equal(t, want.status, out.Status)
	}
}

func TestRecordLegalDecisionInvalid(t *testing.T) {
	a := inReview()
	for _, d := range []LegalDecision{DecisionNone, "archived"} {
		out, err := RecordLegalDecision(a, d, "x", "pgm", reviewAt)
		require.ErrorIs(t, err, ErrInvalidDecision)
		require.Equal(t, a, out)
	}
}

func TestAddComment(t *testing.T) {
	a := inReview()
	out, err := AddComment(a, "falta certidão", "setor de contratos", reviewAt)
	require.NoError(t, err)
	require.Len(t, out.PGMHistory, 1)
	require.Equal(t, TagComment, out.PGMHistory[0].Decision)
	require.Equal(t, a.Checklist, out.Checklist)
	require.Equal(t, a.Status, out.Status)
	require.Equal(t, a.Note, out.Note)

	_, err = AddComment(a, "   ", "x", reviewAt)
	require.ErrorIs(t, err, ErrValidation)
}

func TestResetRejected(t *testing.T) {
	rejected, err := RecordLegalDecision(inReview(), DecisionRejected, "sem dotação", "pgm", reviewAt)
	require.NoError(t, err)
	rejected.Note = "ajustar cláusula terceira"

	out, err := ResetRejected(rejected, "setor de contratos", reviewAt.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, DecisionNone, out.Checklist.LegalDecision)
	require.True(t, out.Checklist.SentToLegal)
	require.Empty(t, out.Note)
	require.Equal(t, StatusLegalReview, out.Status)
	require.Len(t, out.PGMHistory, 2)
	last := out.PGMHistory[1]
	require.Equal(t, TagRejected, last.Decision)
	require.Equal(t, "ajustar cláusula terceira", last.Note)
	require.Len(t, rejected.PGMHistory, 1)
}

func TestResetRejectedRequiresRejection(t *testing.T) {
	approved, err := RecordLegalDecision(inReview(), DecisionApproved, "ok", "pgm", reviewAt)
	require.NoError(t, err)
	before := approved.Checklist

	out, err := ResetRejected(approved, "x", reviewAt)
	require.ErrorIs(t, err, ErrNotRejected)
	require.Equal(t, before, out.Checklist)
	require.Equal(t, approved, out)

	_, err = ResetRejected(inReview(), "x", reviewAt)
	require.ErrorIs(t, err, ErrNotRejected)
}
