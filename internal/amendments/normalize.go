package amendments

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// flexBool decodes a step stored as a boolean, as null, or as a legacy
// {"received": bool} object.
type flexBool struct {
	Value  bool
	Object bool
}

func (f *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = flexBool{}
		return nil
	case len(data) > 0 && data[0] == '{':
		var obj struct {
			Received bool `json:"received"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*f = flexBool{Value: obj.Received, Object: true}
		return nil
	default:
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexBool{Value: v}
		return nil
	}
}

type rawFilings struct {
	Ledger        flexBool `json:"ledger"`
	Attachments   flexBool `json:"attachments"`
	Registry      flexBool `json:"registry"`
	PurchaseOrder flexBool `json:"purchase_order"`
}

type rawChecklist struct {
	ProcessOpened   flexBool      `json:"process_opened"`
	DraftPrepared   flexBool      `json:"draft_prepared"`
	SentToLegal     flexBool      `json:"sent_to_legal"`
	LegalDecision   LegalDecision `json:"legal_decision"`
	SupplierSigned  flexBool      `json:"supplier_signed"`
	MayorSigned     flexBool      `json:"mayor_signed"`
	Filings         *rawFilings   `json:"filings"`
	WitnessesSigned flexBool      `json:"witnesses_signed"`
	LegacyExecuted  bool          `json:"legacy_executed"`
}

// NormalizeChecklist converts a stored checklist document, canonical or legacy,
// into a Checklist. An empty document yields the zero checklist.
func NormalizeChecklist(raw []byte) (Checklist, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Checklist{}, nil
	}
	var in rawChecklist
	if err := json.Unmarshal(raw, &in); err != nil {
		return Checklist{}, fmt.Errorf("amendments: normalize checklist: %w", err)
	}
	c := Checklist{
		ProcessOpened:   in.ProcessOpened.Value,
		DraftPrepared:   in.DraftPrepared.Value,
		SentToLegal:     in.SentToLegal.Value,
		LegalDecision:   in.LegalDecision,
		SupplierSigned:  in.SupplierSigned.Value,
		MayorSigned:     in.MayorSigned.Value,
		WitnessesSigned: in.WitnessesSigned.Value,
		LegacyExecuted:  in.LegacyExecuted || (in.SupplierSigned.Object && in.SupplierSigned.Value),
	}
	if in.Filings != nil {
		c.Filings = Filings{
			Ledger:        in.Filings.Ledger.Value,
			Attachments:   in.Filings.Attachments.Value,
			Registry:      in.Filings.Registry.Value,
			PurchaseOrder: in.Filings.PurchaseOrder.Value,
		}
	}
	return c, nil
}
