// Package dollarcard models prepaid-dollar-card brokering: a customer pays
// in dinars over time and the business later receives the dollars.
package dollarcard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// PaymentCurrency is the currency customers pay in.
const PaymentCurrency = types.CurrencyLYD

// Purchase is one customer's card order with KYC details.
type Purchase struct {
	types.Entity
	ID             id.CardPurchaseID `json:"id"`
	CustomerName   string            `json:"customerName"`
	Phone          string            `json:"phone,omitempty"`
	NationalID     string            `json:"nationalId,omitempty"`
	PassportNumber string            `json:"passportNumber,omitempty"`
	PassportExpiry string            `json:"passportExpiry,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	Status         Status            `json:"status"`
	Payments       []*Payment        `json:"payments"`

	CompletionDetails     *Completion    `json:"completionDetails,omitempty"`
	CompletionOperationID id.OperationID `json:"completionOperationId,omitzero"`
}

type Payment struct {
	ID          id.CardPaymentID `json:"id"`
	Amount      types.Money      `json:"amount"`
	Source      asset.Funding    `json:"source"`
	Note        string           `json:"note,omitempty"`
	Date        time.Time        `json:"date"`
	OperationID id.OperationID   `json:"operationId,omitzero"`
}

// Completion is frozen when the dollars arrive.
type Completion struct {
	ReceivedUSDAmount   types.Money     `json:"receivedUsdAmount"`
	USDDestinationAsset id.AssetID      `json:"usdDestinationAsset"`
	TotalLYDPaid        types.Money     `json:"totalLydPaid"`
	FinalCostPerDollar  decimal.Decimal `json:"finalCostPerDollar"`
	CompletedAt         time.Time       `json:"completedAt"`
}

// TotalPaid sums the payments.
func (p *Purchase) TotalPaid() types.Money {
	total := types.Zero(PaymentCurrency)
	for _, pay := range p.Payments {
		total = total.Add(pay.Amount)
	}
	return total
}

// Complete builds the completion details from the payments so far.
func (p *Purchase) Complete(received types.Money, dest id.AssetID, at time.Time) *Completion {
	paid := p.TotalPaid()
	return &Completion{
		ReceivedUSDAmount:   received,
		USDDestinationAsset: dest,
		TotalLYDPaid:        paid,
		FinalCostPerDollar:  paid.Ratio(received),
		CompletedAt:         at,
	}
}

func (p *Purchase) Payment(paymentID id.CardPaymentID) (int, *Payment) {
	for i, pay := range p.Payments {
		if pay.ID == paymentID {
			return i, pay
		}
	}
	return -1, nil
}

func (p *Purchase) Clone() *Purchase {
	c := *p
	c.Payments = make([]*Payment, len(p.Payments))
	for i, pay := range p.Payments {
		pc := *pay
		c.Payments[i] = &pc
	}
	if p.CompletionDetails != nil {
		d := *p.CompletionDetails
		c.CompletionDetails = &d
	}
	return &c
}

type ListOpts struct {
	Status Status
}
