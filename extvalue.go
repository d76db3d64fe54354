package treasury

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/xraph/treasury/extvalue"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/types"
)

// AddExternalValueInput describes an off-books value with its initial amount.
type AddExternalValueInput struct {
	Name   string
	Amount types.Money
	Notes  string
	User   string
	Date   time.Time
}

// AddExternalValue creates a value with an initial history entry.
func (t *Treasury) AddExternalValue(ctx context.Context, in AddExternalValueInput) (*extvalue.Value, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "value name is required")
	}
	if err := currencyCode("amount", in.Amount); err != nil {
		return nil, err
	}
	if in.Amount.IsNegative() {
		return nil, invalid("amount", "must not be negative")
	}

	var out *extvalue.Value
	err := t.mutate(ctx, "add_external_value", func(b *book) error {
		v := &extvalue.Value{
			Entity:   b.entity(),
			ID:       id.NewExternalValueID(),
			Name:     name,
			Currency: in.Amount.Currency,
			Notes:    in.Notes,
			History: []*extvalue.Entry{{
				ID:     id.NewExternalChangeID(),
				Type:   extvalue.EntryInitial,
				Amount: in.Amount,
				Date:   b.dateOr(in.Date),
				User:   in.User,
				Notes:  in.Notes,
			}},
		}
		v.Resum()
		b.snap.ExternalValues = append(b.snap.ExternalValues, v)
		out = v.Clone()
		return nil
	})
	return out, err
}

// AdjustInput is a deposit or withdrawal on an external value.
type AdjustInput struct {
	ValueID id.ExternalValueID
	Type    extvalue.EntryType
	Amount  types.Money
	User    string
	Notes   string
	Date    time.Time
}

// AdjustExternalValue appends a deposit or withdrawal entry.
func (t *Treasury) AdjustExternalValue(ctx context.Context, in AdjustInput) (*extvalue.Value, error) {
	if in.Type != extvalue.EntryDeposit && in.Type != extvalue.EntryWithdrawal {
		return nil, invalid("type", "adjustments are deposits or withdrawals, got %q", in.Type)
	}
	if err := positive("amount", in.Amount); err != nil {
		return nil, err
	}

	var out *extvalue.Value
	err := t.mutate(ctx, "adjust_external_value", func(b *book) error {
		v, err := b.externalValue(in.ValueID)
		if err != nil {
			return err
		}
		if in.Amount.Currency != v.Currency {
			return invalid("amount", "value is in %s, got %s", v.Currency, in.Amount.Currency)
		}
		v.History = append(v.History, &extvalue.Entry{
			ID:     id.NewExternalChangeID(),
			Type:   in.Type,
			Amount: in.Amount,
			Date:   b.dateOr(in.Date),
			User:   in.User,
			Notes:  in.Notes,
		})
		v.Resum()
		v.Touch(b.now)
		out = v.Clone()
		return nil
	})
	return out, err
}

// DeleteExternalValueEntry drops one history entry and re-sums the value.
func (t *Treasury) DeleteExternalValueEntry(ctx context.Context, valueID id.ExternalValueID, entryID id.ExternalChangeID) (*extvalue.Value, error) {
	var out *extvalue.Value
	err := t.mutate(ctx, "delete_external_entry", func(b *book) error {
		v, err := b.externalValue(valueID)
		if err != nil {
			return err
		}
		n := len(v.History)
		v.History = slices.DeleteFunc(v.History, func(e *extvalue.Entry) bool { return e.ID == entryID })
		if len(v.History) == n {
			return NotFoundError{Kind: "external value", ID: entryID.String()}
		}
		v.Resum()
		v.Touch(b.now)
		out = v.Clone()
		return nil
	})
	return out, err
}

// DeleteExternalValue removes a value and its history.
func (t *Treasury) DeleteExternalValue(ctx context.Context, valueID id.ExternalValueID) error {
	return t.mutate(ctx, "delete_external_value", func(b *book) error {
		v, err := b.externalValue(valueID)
		if err != nil {
			return err
		}
		b.snap.ExternalValues = slices.DeleteFunc(b.snap.ExternalValues, func(x *extvalue.Value) bool { return x.ID == v.ID })
		b.recordChange("delete", "external_value", v.ID, map[string]string{"name": v.Name})
		return nil
	})
}

// ExternalValues lists every external value.
func (t *Treasury) ExternalValues(ctx context.Context) ([]*extvalue.Value, error) {
	var out []*extvalue.Value
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, v := range s.ExternalValues {
			out = append(out, v.Clone())
		}
		return nil
	})
	return out, err
}
