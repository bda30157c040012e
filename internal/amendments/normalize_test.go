package amendments

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeChecklistCanonical(t *testing.T) {
	in := Checklist{
		ProcessOpened: true,
		SentToLegal:   true,
		LegalDecision: DecisionApprovedWithReservation,
		Filings:       Filings{Ledger: true, PurchaseOrder: true},
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := NormalizeChecklist(raw)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestNormalizeChecklistLegacySupplierReceipt(t *testing.T) {
	raw := []byte(`{"process_opened":true,"legal_decision":"approved","supplier_signed":{"received":true},"witnesses_signed":null}`)
	out, err := NormalizeChecklist(raw)
	require.NoError(t, err)
	require.True(t, out.SupplierSigned)
	require.True(t, out.LegacyExecuted)
	require.False(t, out.WitnessesSigned)
	require.True(t, out.FullyExecuted())

	out, err = NormalizeChecklist([]byte(`{"supplier_signed":{"received":false}}`))
	require.NoError(t, err)
	require.False(t, out.SupplierSigned)
	require.False(t, out.FullyExecuted())
}

func TestNormalizeChecklistPlainSupplierIsNotExecution(t *testing.T) {
	out, err := NormalizeChecklist([]byte(`{"supplier_signed":true}`))
	require.NoError(t, err)
	require.True(t, out.SupplierSigned)
	require.False(t, out.FullyExecuted())
}

func TestNormalizeChecklistEmptyAndNull(t *testing.T) {
	for _, raw := range []string{"", "null", " ", `{}`, `{"legal_decision":null,"filings":null}`} {
		out, err := NormalizeChecklist([]byte(raw))
		require.NoError(t, err, raw)
		require.Equal(t, Checklist{}, out, raw)
	}
}

func TestNormalizeChecklistRejectsBadDecision(t *testing.T) {
	_, err := NormalizeChecklist([]byte(`{"legal_decision":"pending"}`))
	require.ErrorIs(t, err, ErrInvalidDecision)
}

func TestLegacyExecutedSurvivesRoundTrip(t *testing.T) {
	out, err := NormalizeChecklist([]byte(`{"supplier_signed":{"received":true}}`))
	require.NoError(t, err)
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	again, err := NormalizeChecklist(raw)
	require.NoError(t, err)
	require.Equal(t, out, again)
}
