// Package asset models the value containers money moves between: the fixed
// cash tills and the user-created banks.
package asset

import (
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

type Kind string

const (
	KindCashTill Kind = "cash_till"
	KindBank     Kind = "bank"
)

// BankCurrency is the only currency a bank may hold.
const BankCurrency = types.CurrencyLYD

type Asset struct {
	types.Entity
	ID       id.AssetID  `json:"id"`
	Key      string      `json:"key,omitempty"`
	Name     string      `json:"displayName"`
	Currency string      `json:"currency"`
	Kind     Kind        `json:"kind"`
	Location string      `json:"location,omitempty"`
	Balance  types.Money `json:"balance"`
	// Adjustments accumulates direct balance overwrites made outside the
	// transaction log.
	Adjustments types.Money `json:"adjustments"`
	POSEnabled  bool        `json:"isPosEnabled,omitempty"`
}

func (a *Asset) IsBank() bool { return a.Kind == KindBank }

func (a *Asset) IsTill() bool { return a.Kind == KindCashTill }

// Clone returns a copy of the asset.
func (a *Asset) Clone() *Asset {
	c := *a
	return &c
}

type ListOpts struct {
	Kind     Kind
	Currency string
	Location string
	POSOnly  bool
}

// Match reports whether a satisfies the filter.
func (o ListOpts) Match(a *Asset) bool {
	if o.Kind != "" && a.Kind != o.Kind {
		return false
	}
	if o.Currency != "" && a.Currency != o.Currency {
		return false
	}
	if o.Location != "" && a.Location != o.Location {
		return false
	}
	if o.POSOnly && !a.POSEnabled {
		return false
	}
	return true
}
