// Package transaction models the signed money movements recorded against
// assets and the operations that group them.
package transaction

import (
	"time"

	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

type Type string

const (
	TypeOpeningBalance    Type = "opening_balance"
	TypeDeposit           Type = "deposit"
	TypeWithdrawal        Type = "withdrawal"
	TypeTransferIn        Type = "transfer_in"
	TypeTransferOut       Type = "transfer_out"
	TypeExchangeIn        Type = "exchange_in"
	TypeExchangeOut       Type = "exchange_out"
	TypeDebtIssued        Type = "debt_issued"
	TypeDebtPayment       Type = "debt_payment"
	TypeSurplusProfit     Type = "surplus_profit"
	TypeReceivableFunding Type = "receivable_funding"
	TypeReceivablePayment Type = "receivable_payment"
	TypePosDeposit        Type = "pos_deposit"
	TypePosCashOut        Type = "pos_cash_out"
	TypeCardPayment       Type = "dollar_card_payment"
	TypeCardReceipt       Type = "dollar_card_receipt"
	TypeOperatingCost     Type = "operating_cost"
	TypeReversal          Type = "reversal"
)

// Transaction is one signed movement against an asset. Only IsDeleted,
// Voided, IsTemporarilyHidden, ReversedBy and Date change after creation.
type Transaction struct {
	ID           id.TransactionID `json:"id"`
	Date         time.Time        `json:"date"`
	Description  string           `json:"description"`
	AssetID      id.AssetID       `json:"assetId"`
	Amount       types.Money      `json:"amount"`
	Type         Type             `json:"type"`
	RelatedParty string           `json:"relatedParty,omitempty"`
	OperationID  id.OperationID   `json:"operationId"`

	IsDeleted           bool `json:"isDeleted"`
	Voided              bool `json:"voided,omitempty"`
	IsTemporarilyHidden bool `json:"isTemporarilyHidden"`

	ReversalOf id.TransactionID `json:"reversalOf,omitzero"`
	ReversedBy id.TransactionID `json:"reversedBy,omitzero"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Counts reports whether the row contributes to its asset's balance.
func (t *Transaction) Counts() bool { return !t.IsDeleted }

// Visible reports whether the row appears in the queryable log. Silently
// voided rows stay stored but are never listed.
func (t *Transaction) Visible() bool { return !t.Voided }

func (t *Transaction) Clone() *Transaction {
	c := *t
	return &c
}

// Filter selects rows for listing.
type Filter struct {
	AssetID        id.AssetID
	OperationID    id.OperationID
	Type           Type
	From           time.Time // inclusive
	To             time.Time // exclusive
	IncludeDeleted bool
	IncludeHidden  bool
}

// Match reports whether t passes the filter. Voided rows never match.
func (f Filter) Match(t *Transaction) bool {
	if !t.Visible() {
		return false
	}
	if t.IsDeleted && !f.IncludeDeleted {
		return false
	}
	if t.IsTemporarilyHidden && !f.IncludeHidden {
		return false
	}
	if !f.AssetID.IsNil() && t.AssetID != f.AssetID {
		return false
	}
	if !f.OperationID.IsNil() && t.OperationID != f.OperationID {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.Date.Before(f.To) {
		return false
	}
	return true
}

// Direction moves rows between calendar days.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// Days returns the signed day offset of the direction.
func (d Direction) Days() int {
	switch d {
	case Forward:
		return 1
	case Backward:
		return -1
	default:
		return 0
	}
}
