package contracts

import (
	"github.com/gestao-municipal/gestao/internal/amendments"
	"github.com/gestao-municipal/gestao/internal/calendar"
)

// Engine derives contract views from raw records. It performs no I/O.
type Engine struct {
	Policy      calendar.Policy
	Clock       calendar.Clock
	WarningDays int
}

// NewEngine returns an Engine with the default warning band when warningDays <= 0.
func NewEngine(policy calendar.Policy, clock calendar.Clock, warningDays int) Engine {
	if warningDays <= 0 {
		warningDays = DefaultWarningDays
	}
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	return Engine{Policy: policy, Clock: clock, WarningDays: warningDays}
}

// Build computes the view of c from its amendments.
func (e Engine) Build(c Contract, as []amendments.Amendment) (View, error) {
	warning := e.WarningDays
	if warning <= 0 {
		warning = DefaultWarningDays
	}
	end, err := FoldEndDate(e.Policy, c, as)
	if err != nil {
		return View{}, err
	}
	derived, err := DeriveWith(e.Policy, warning, c, end, e.Clock)
	if err != nil {
		return View{}, err
	}
	return View{
		Contract:         c,
		EffectiveEndDate: end,
		Derived:          derived,
		ActiveAmendment:  ActiveAmendment(c, as),
		TotalValue:       TotalValue(c, as),
	}, nil
}

// BuildAll computes views for every contract, grouping amendments by contract.
func (e Engine) BuildAll(cs []Contract, as []amendments.Amendment) ([]View, error) {
	byContract := make(map[int64][]amendments.Amendment, len(cs))
	for _, a := range as {
		byContract[a.ContractID] = append(byContract[a.ContractID], a)
	}
	views := make([]View, 0, len(cs))
	for _, c := range cs {
		v, err := e.Build(c, byContract[c.ID])
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// TotalValue adds the monetary delta of executed value amendments to the contract value.
func TotalValue(c Contract, as []amendments.Amendment) float64 {
	total := c.Value
	for _, a := range as {
		if a.ContractID == c.ID && a.Type == amendments.TypeValue && a.Checklist.FullyExecuted() {
			total += a.Duration
		}
	}
	return total
}
