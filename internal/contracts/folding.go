package contracts

import (
	"sort"

	"github.com/gestao-municipal/gestao/internal/amendments"
	"github.com/gestao-municipal/gestao/internal/calendar"
)

// EffectiveEndDate folds the contract's executed term amendments into its base
// end date. Malformed amendment data is skipped.
func EffectiveEndDate(c Contract, as []amendments.Amendment) calendar.Date {
	d, _ := FoldEndDate(calendar.PolicyLenient, c, as)
	return d
}

// FoldEndDate applies each eligible amendment in fold order under policy.
// With no eligible amendments the base end date is returned unchanged.
func FoldEndDate(policy calendar.Policy, c Contract, as []amendments.Amendment) (calendar.Date, error) {
	end := c.BaseEndDate
	for _, a := range foldOrder(c, as, amendments.Amendment.Foldable) {
		next, err := policy.AddDuration(end, a.TermLength(), a.DurationUnit)
		if err != nil {
			return c.BaseEndDate, err
		}
		end = next
	}
	return end, nil
}

// ActiveAmendment returns the badge of the first term amendment that is not
// yet fully executed, or nil.
func ActiveAmendment(c Contract, as []amendments.Amendment) *Badge {
	inFlight := foldOrder(c, as, func(a amendments.Amendment) bool {
		return a.Type == amendments.TypeTerm && !a.Checklist.FullyExecuted()
	})
	if len(inFlight) == 0 {
		return nil
	}
	a := inFlight[0]
	return &Badge{AmendmentID: a.ID, Number: a.Number, Kind: badgeKind(a.Checklist)}
}

func badgeKind(c amendments.Checklist) BadgeKind {
	switch c.LegalDecision {
	case amendments.DecisionApproved:
		return BadgeApproved
	case amendments.DecisionRejected:
		return BadgeRejected
	case amendments.DecisionApprovedWithReservation:
		return BadgeApprovedWithReservation
	}
	if c.SentToLegal {
		return BadgeInLegalReview
	}
	return BadgeInDrafting
}

// foldOrder keeps the contract's amendments matching keep, ordered by entry
// date ascending with undated entries last and ties broken by ID.
func foldOrder(c Contract, as []amendments.Amendment, keep func(amendments.Amendment) bool) []amendments.Amendment {
	type keyed struct {
		a     amendments.Amendment
		date  calendar.Date
		dated bool
	}
	items := make([]keyed, 0, len(as))
	for _, a := range as {
		if a.ContractID != c.ID || !keep(a) {
			continue
		}
		d, err := calendar.Parse(a.EntryDate)
		items = append(items, keyed{a: a, date: d, dated: err == nil})
	}
	sort.SliceStable(items, func(i, j int) bool {
		x, y := items[i], items[j]
		if x.dated != y.dated {
			return x.dated
		}
		if x.dated && x.date != y.date {
			return x.date.Before(y.date)
		}
		return x.a.ID < y.a.ID
	})
	out := make([]amendments.Amendment, len(items))
	for i := range items {
		out[i] = items[i].a
	}
	return out
}
