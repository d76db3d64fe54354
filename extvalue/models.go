// Package extvalue tracks off-books values. They never touch an asset.
package extvalue

import (
	"time"

	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

type EntryType string

const (
	EntryInitial    EntryType = "initial"
	EntryDeposit    EntryType = "deposit"
	EntryWithdrawal EntryType = "withdrawal"
)

func (t EntryType) Valid() bool {
	return t == EntryInitial || t == EntryDeposit || t == EntryWithdrawal
}

type Value struct {
	types.Entity
	ID       id.ExternalValueID `json:"id"`
	Name     string             `json:"name"`
	Amount   types.Money        `json:"amount"`
	Currency string             `json:"currency"`
	Notes    string             `json:"notes,omitempty"`
	History  []*Entry           `json:"history"`
}

// Entry amounts are positive; Type gives the sign.
type Entry struct {
	ID     id.ExternalChangeID `json:"id"`
	Type   EntryType           `json:"type"`
	Amount types.Money         `json:"amount"`
	Date   time.Time           `json:"date"`
	User   string              `json:"user,omitempty"`
	Notes  string              `json:"notes,omitempty"`
}

// Signed returns the entry's contribution to the value.
func (e *Entry) Signed() types.Money {
	if e.Type == EntryWithdrawal {
		return e.Amount.Negate()
	}
	return e.Amount
}

// Resum recomputes Amount from the history.
func (v *Value) Resum() {
	total := types.Zero(v.Currency)
	for _, e := range v.History {
		total = total.Add(e.Signed())
	}
	v.Amount = total
}

func (v *Value) Clone() *Value {
	c := *v
	c.History = make([]*Entry, len(v.History))
	for i, e := range v.History {
		ec := *e
		c.History[i] = &ec
	}
	return &c
}
