package transaction

import (
	"slices"
	"time"

	"github.com/xraph/treasury/id"
)

// Kind tags what produced an Operation.
type Kind string

const (
	KindOpeningBalance        Kind = "opening_balance"
	KindDeposit               Kind = "deposit"
	KindWithdrawal            Kind = "withdrawal"
	KindTransfer              Kind = "transfer"
	KindExchange              Kind = "exchange"
	KindDebtIssue             Kind = "debt_issue"
	KindDebtPayment           Kind = "debt_payment"
	KindDebtSurplusSettlement Kind = "debt_surplus_settlement"
	KindDebtMerge             Kind = "debt_merge"
	KindDebtConversion        Kind = "debt_conversion"
	KindReceivableFunding     Kind = "receivable_funding"
	KindReceivablePayment     Kind = "receivable_payment"
	KindReceivableMerge       Kind = "receivable_merge"
	KindPosSettlement         Kind = "pos_settlement"
	KindCardPayment           Kind = "dollar_card_payment"
	KindCardCompletion        Kind = "dollar_card_completion"
	KindOperatingCost         Kind = "operating_cost"
	KindReversal              Kind = "reversal"
)

// Standalone reports whether operations of this kind may be voided
// directly. The others belong to a domain record and are removed through it.
func (k Kind) Standalone() bool {
	switch k {
	case KindOpeningBalance, KindDeposit, KindWithdrawal, KindTransfer, KindExchange:
		return true
	default:
		return false
	}
}

// Operation is one logical, all-or-nothing unit that produced zero or more
// transaction rows.
type Operation struct {
	ID             id.OperationID     `json:"id"`
	Kind           Kind               `json:"kind"`
	TransactionIDs []id.TransactionID `json:"transactionIds"`
	Reference      string             `json:"reference,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	// VoidedBy names the reversal operation of a visible reversal.
	Voided   bool           `json:"voided,omitempty"`
	VoidedBy id.OperationID `json:"voidedBy,omitzero"`
}

func (o *Operation) Clone() *Operation {
	c := *o
	c.TransactionIDs = slices.Clone(o.TransactionIDs)
	return &c
}

// DeletionPolicy decides the audit visibility of a void.
type DeletionPolicy string

const (
	// Reversed appends a visible negated counter-row.
	Reversed DeletionPolicy = "reversed"
	// SilentlyVoided restores balances and hides the rows.
	SilentlyVoided DeletionPolicy = "silently_voided"
)

func (p DeletionPolicy) Valid() bool {
	return p == Reversed || p == SilentlyVoided
}
