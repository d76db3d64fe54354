// Package pos models point-of-sale settlements: card payments taken on a
// bank's terminal and paid out to the customer in cash.
package pos

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

type Transaction struct {
	types.Entity
	ID                  id.PosID        `json:"id"`
	Date                time.Time       `json:"date"`
	BankID              id.AssetID      `json:"bankId"`
	CashAssetID         id.AssetID      `json:"cashAssetId,omitzero"`
	TotalAmount         types.Money     `json:"totalAmount"`
	BankCommissionRate  decimal.Decimal `json:"bankCommissionRate"`
	BankDepositAmount   types.Money     `json:"bankDepositAmount"`
	ManualDeposit       bool            `json:"manualDeposit,omitempty"`
	CashGivenToCustomer types.Money     `json:"cashGivenToCustomer"`
	NoCashGiven         bool            `json:"noCashGiven,omitempty"`
	NetProfit           types.Money     `json:"netProfit"`
	TransactionCount    int             `json:"transactionCount"`
	Note                string          `json:"note,omitempty"`
	IsArchived          bool            `json:"isArchived"`
	OperationID         id.OperationID  `json:"operationId"`
}

func (t *Transaction) Clone() *Transaction {
	c := *t
	return &c
}

// Deposit returns total - total*rate/100, rounded to the currency's minor
// unit. rate is a percentage.
func Deposit(total types.Money, rate decimal.Decimal) types.Money {
	return total.Subtract(total.Percent(rate))
}

// Settle computes the deposit and net profit. A non-nil manual deposit
// overrides the commission formula.
func Settle(total types.Money, rate decimal.Decimal, manual *types.Money, cashGiven types.Money) (deposit, profit types.Money) {
	deposit = Deposit(total, rate)
	if manual != nil {
		deposit = *manual
	}
	return deposit, deposit.Subtract(cashGiven)
}

type ListOpts struct {
	IncludeArchived bool
	BankID          id.AssetID
	From            time.Time
	To              time.Time
}

func (o ListOpts) Match(t *Transaction) bool {
	if t.IsArchived && !o.IncludeArchived {
		return false
	}
	if !o.BankID.IsNil() && t.BankID != o.BankID {
		return false
	}
	if !o.From.IsZero() && t.Date.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && !t.Date.Before(o.To) {
		return false
	}
	return true
}
