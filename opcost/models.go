// Package opcost models operating costs and their expense types.
package opcost

import (
	"time"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

type ExpenseType struct {
	types.Entity
	ID   id.ExpenseTypeID `json:"id"`
	Name string           `json:"name"`
}

func (e *ExpenseType) Clone() *ExpenseType {
	c := *e
	return &c
}

type Cost struct {
	types.Entity
	ID            id.OperatingCostID `json:"id"`
	Amount        types.Money        `json:"amount"`
	Source        asset.Funding      `json:"source"`
	ExpenseTypeID id.ExpenseTypeID   `json:"expenseTypeId"`
	Note          string             `json:"note,omitempty"`
	Date          time.Time          `json:"date"`
	OperationID   id.OperationID     `json:"operationId,omitzero"`
}

func (c *Cost) Clone() *Cost {
	cc := *c
	return &cc
}

type ListOpts struct {
	ExpenseTypeID id.ExpenseTypeID
	From          time.Time
	To            time.Time
}

func (o ListOpts) Match(c *Cost) bool {
	if !o.ExpenseTypeID.IsNil() && c.ExpenseTypeID != o.ExpenseTypeID {
		return false
	}
	if !o.From.IsZero() && c.Date.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && !c.Date.Before(o.To) {
		return false
	}
	return true
}

// Totals sums costs per expense type and currency.
func Totals(costs []*Cost) map[id.ExpenseTypeID]map[string]types.Money {
	out := make(map[id.ExpenseTypeID]map[string]types.Money)
	for _, c := range costs {
		byCur, ok := out[c.ExpenseTypeID]
		if !ok {
			byCur = make(map[string]types.Money)
			out[c.ExpenseTypeID] = byCur
		}
		cur, ok := byCur[c.Amount.Currency]
		if !ok {
			cur = types.Zero(c.Amount.Currency)
		}
		byCur[c.Amount.Currency] = cur.Add(c.Amount)
	}
	return out
}
