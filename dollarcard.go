package treasury

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/dollarcard"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// AddPurchaseInput carries a card order's KYC details.
type AddPurchaseInput struct {
	CustomerName   string
	Phone          string
	NationalID     string
	PassportNumber string
	PassportExpiry string
	Notes          string
}

// AddDollarCardPurchase opens a new active purchase.
func (t *Treasury) AddDollarCardPurchase(ctx context.Context, in AddPurchaseInput) (*dollarcard.Purchase, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, invalid("customerName", "customer name is required")
	}

	var out *dollarcard.Purchase
	err := t.mutate(ctx, "add_card_purchase", func(b *book) error {
		p := &dollarcard.Purchase{
			Entity:         b.entity(),
			ID:             id.NewCardPurchaseID(),
			CustomerName:   name,
			Phone:          strings.TrimSpace(in.Phone),
			NationalID:     strings.TrimSpace(in.NationalID),
			PassportNumber: strings.TrimSpace(in.PassportNumber),
			PassportExpiry: strings.TrimSpace(in.PassportExpiry),
			Notes:          in.Notes,
			Status:         dollarcard.StatusActive,
			Payments:       []*dollarcard.Payment{},
		}
		b.snap.DollarCardPurchases = append(b.snap.DollarCardPurchases, p)
		out = p.Clone()
		return nil
	})
	return out, err
}

// DollarCardPurchase retrieves a purchase by ID.
func (t *Treasury) DollarCardPurchase(ctx context.Context, purchaseID id.CardPurchaseID) (*dollarcard.Purchase, error) {
	var out *dollarcard.Purchase
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, p := range s.DollarCardPurchases {
			if p.ID == purchaseID {
				out = p.Clone()
				return nil
			}
		}
		return notFound("dollar card purchase", purchaseID)
	})
	return out, err
}

// DollarCardPurchases lists purchases, optionally by status.
func (t *Treasury) DollarCardPurchases(ctx context.Context, opts dollarcard.ListOpts) ([]*dollarcard.Purchase, error) {
	var out []*dollarcard.Purchase
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, p := range s.DollarCardPurchases {
			if opts.Status == "" || p.Status == opts.Status {
				out = append(out, p.Clone())
			}
		}
		return nil
	})
	return out, err
}

// CardPaymentInput is one LYD installment towards a purchase.
type CardPaymentInput struct {
	PurchaseID id.CardPurchaseID
	Amount     types.Money
	Source     asset.Funding
	Date       time.Time
	Note       string
}

// AddDollarCardPayment records a payment on an active purchase. The source
// asset is debited unless the payment is external.
func (t *Treasury) AddDollarCardPayment(ctx context.Context, in CardPaymentInput) (*dollarcard.Payment, error) {
	if err := positive("amount", in.Amount); err != nil {
		return nil, err
	}
	if in.Amount.Currency != dollarcard.PaymentCurrency {
		return nil, invalid("amount", "card payments are in %s", dollarcard.PaymentCurrency)
	}

	var out *dollarcard.Payment
	err := t.mutate(ctx, "add_card_payment", func(b *book) error {
		p, err := b.purchase(in.PurchaseID)
		if err != nil {
			return err
		}
		if p.Status != dollarcard.StatusActive {
			return violation("card-active", "purchase %s is %s", p.ID, p.Status)
		}

		pay := &dollarcard.Payment{
			ID:     id.NewCardPaymentID(),
			Amount: in.Amount,
			Source: in.Source,
			Note:   in.Note,
			Date:   b.dateOr(in.Date),
		}
		if !in.Source.External {
			src, err := b.resolve(dollarcard.PaymentCurrency, in.Source.Selection)
			if err != nil {
				return err
			}
			op := b.begin(transaction.KindCardPayment, p.ID.String())
			if _, err := b.debit(op, entry{
				asset:       src,
				amount:      in.Amount,
				typ:         transaction.TypeCardPayment,
				description: "Dollar card payment: " + p.CustomerName,
				party:       p.CustomerName,
				date:        pay.Date,
			}); err != nil {
				return err
			}
			pay.Source = asset.FromAsset(src.ID)
			pay.OperationID = op.ID
		}

		p.Payments = append(p.Payments, pay)
		p.Touch(b.now)
		pc := *pay
		out = &pc
		return nil
	})
	return out, err
}

// CompleteInput records the dollars received for a purchase.
type CompleteInput struct {
	PurchaseID  id.CardPurchaseID
	ReceivedUSD types.Money
	Destination asset.Selection
}

// CompleteDollarCardPurchase credits the USD asset with the dollars
// received and freezes the completion details. A purchase completes once.
func (t *Treasury) CompleteDollarCardPurchase(ctx context.Context, in CompleteInput) (*dollarcard.Purchase, error) {
	if err := positive("receivedUsd", in.ReceivedUSD); err != nil {
		return nil, err
	}
	if in.ReceivedUSD.Currency != types.CurrencyUSD {
		return nil, invalid("receivedUsd", "must be in USD, got %s", in.ReceivedUSD.Currency)
	}

	var out *dollarcard.Purchase
	err := t.mutate(ctx, "complete_card_purchase", func(b *book) error {
		p, err := b.purchase(in.PurchaseID)
		if err != nil {
			return err
		}
		if p.Status == dollarcard.StatusCompleted {
			return violation("card-complete-once", "purchase %s is already completed", p.ID)
		}

		dest, err := b.resolve(types.CurrencyUSD, in.Destination)
		if err != nil {
			return err
		}
		op := b.begin(transaction.KindCardCompletion, p.ID.String())
		if _, err := b.credit(op, entry{
			asset:       dest,
			amount:      in.ReceivedUSD,
			typ:         transaction.TypeCardReceipt,
			description: "Dollar card received: " + p.CustomerName,
			party:       p.CustomerName,
		}); err != nil {
			return err
		}

		p.Status = dollarcard.StatusCompleted
		p.CompletionDetails = p.Complete(in.ReceivedUSD, dest.ID, b.now.UTC())
		p.CompletionOperationID = op.ID
		p.Touch(b.now)

		out = p.Clone()
		done := p.Clone()
		b.emit(func(ctx context.Context, r *plugin.Registry) { r.EmitDollarCardCompleted(ctx, done) })
		return nil
	})
	return out, err
}

// DeleteDollarCardPayment silently voids a payment of an active purchase.
func (t *Treasury) DeleteDollarCardPayment(ctx context.Context, purchaseID id.CardPurchaseID, paymentID id.CardPaymentID) error {
	return t.mutate(ctx, "delete_card_payment", func(b *book) error {
		p, err := b.purchase(purchaseID)
		if err != nil {
			return err
		}
		if p.Status != dollarcard.StatusActive {
			return violation("card-active", "purchase %s is %s", p.ID, p.Status)
		}
		i, pay := p.Payment(paymentID)
		if pay == nil {
			return notFound("dollar card payment", paymentID)
		}
		if err := b.voidByID(pay.OperationID, transaction.SilentlyVoided); err != nil {
			return err
		}
		p.Payments = slices.Delete(p.Payments, i, i+1)
		p.Touch(b.now)
		return nil
	})
}

// DeleteDollarCardPurchase silently voids every payment and the completion
// credit, then removes the purchase.
func (t *Treasury) DeleteDollarCardPurchase(ctx context.Context, purchaseID id.CardPurchaseID) error {
	return t.mutate(ctx, "delete_card_purchase", func(b *book) error {
		p, err := b.purchase(purchaseID)
		if err != nil {
			return err
		}
		for _, pay := range p.Payments {
			if err := b.voidByID(pay.OperationID, transaction.SilentlyVoided); err != nil {
				return err
			}
		}
		if err := b.voidByID(p.CompletionOperationID, transaction.SilentlyVoided); err != nil {
			return err
		}
		b.snap.DollarCardPurchases = slices.DeleteFunc(b.snap.DollarCardPurchases, func(x *dollarcard.Purchase) bool { return x.ID == p.ID })
		b.recordChange("delete", "dollar_card_purchase", p.ID, map[string]string{"customer": p.CustomerName})
		return nil
	})
}
