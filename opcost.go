package treasury

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/opcost"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// ──────────────────────────────────────────────────
// Expense types
// ──────────────────────────────────────────────────

// AddExpenseType creates an expense category. Names are unique.
func (t *Treasury) AddExpenseType(ctx context.Context, name string) (*opcost.ExpenseType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "expense type name is required")
	}

	var out *opcost.ExpenseType
	err := t.mutate(ctx, "add_expense_type", func(b *book) error {
		if err := b.uniqueExpenseType(name, id.ExpenseTypeID{}); err != nil {
			return err
		}
		e := &opcost.ExpenseType{Entity: b.entity(), ID: id.NewExpenseTypeID(), Name: name}
		b.snap.ExpenseTypes = append(b.snap.ExpenseTypes, e)
		out = e.Clone()
		return nil
	})
	return out, err
}

// RenameExpenseType changes an expense type's name.
func (t *Treasury) RenameExpenseType(ctx context.Context, typeID id.ExpenseTypeID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name", "expense type name is required")
	}
	return t.mutate(ctx, "rename_expense_type", func(b *book) error {
		e, err := b.expenseType(typeID)
		if err != nil {
			return err
		}
		if err := b.uniqueExpenseType(name, e.ID); err != nil {
			return err
		}
		e.Name = name
		e.Touch(b.now)
		return nil
	})
}

// DeleteExpenseType removes an expense type no cost refers to.
func (t *Treasury) DeleteExpenseType(ctx context.Context, typeID id.ExpenseTypeID) error {
	return t.mutate(ctx, "delete_expense_type", func(b *book) error {
		e, err := b.expenseType(typeID)
		if err != nil {
			return err
		}
		for _, c := range b.snap.OperatingCosts {
			if c.ExpenseTypeID == e.ID {
				return violation("expense-type-in-use", "expense type %s is used by cost %s", e.Name, c.ID)
			}
		}
		b.snap.ExpenseTypes = slices.DeleteFunc(b.snap.ExpenseTypes, func(x *opcost.ExpenseType) bool { return x.ID == e.ID })
		b.recordChange("delete", "expense_type", e.ID, map[string]string{"name": e.Name})
		return nil
	})
}

// ExpenseTypes lists every expense type.
func (t *Treasury) ExpenseTypes(ctx context.Context) ([]*opcost.ExpenseType, error) {
	var out []*opcost.ExpenseType
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, e := range s.ExpenseTypes {
			out = append(out, e.Clone())
		}
		return nil
	})
	return out, err
}

func (b *book) uniqueExpenseType(name string, self id.ExpenseTypeID) error {
	for _, e := range b.snap.ExpenseTypes {
		if e.ID != self && strings.EqualFold(e.Name, name) {
			return invalid("name", "expense type %q already exists", name)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Costs
// ──────────────────────────────────────────────────

// AddCostInput describes an operating expense.
type AddCostInput struct {
	Amount        types.Money
	Source        asset.Funding
	ExpenseTypeID id.ExpenseTypeID
	Date          time.Time
	Note          string
}

// AddOperatingCost records an expense, debiting Source unless external.
func (t *Treasury) AddOperatingCost(ctx context.Context, in AddCostInput) (*opcost.Cost, error) {
	if err := positive("amount", in.Amount); err != nil {
		return nil, err
	}

	var out *opcost.Cost
	err := t.mutate(ctx, "add_operating_cost", func(b *book) error {
		e, err := b.expenseType(in.ExpenseTypeID)
		if err != nil {
			return err
		}
		c := &opcost.Cost{
			Entity:        b.entity(),
			ID:            id.NewOperatingCostID(),
			Amount:        in.Amount,
			Source:        in.Source,
			ExpenseTypeID: e.ID,
			Note:          in.Note,
			Date:          b.dateOr(in.Date),
		}
		if !in.Source.External {
			src, err := b.resolve(in.Amount.Currency, in.Source.Selection)
			if err != nil {
				return err
			}
			op := b.begin(transaction.KindOperatingCost, c.ID.String())
			if _, err := b.debit(op, entry{
				asset:       src,
				amount:      in.Amount,
				typ:         transaction.TypeOperatingCost,
				description: "Operating cost: " + e.Name,
				party:       e.Name,
				date:        c.Date,
			}); err != nil {
				return err
			}
			c.Source = asset.FromAsset(src.ID)
			c.OperationID = op.ID
		}
		b.snap.OperatingCosts = append(b.snap.OperatingCosts, c)
		out = c.Clone()
		return nil
	})
	return out, err
}

// OperatingCosts lists costs matching opts.
func (t *Treasury) OperatingCosts(ctx context.Context, opts opcost.ListOpts) ([]*opcost.Cost, error) {
	var out []*opcost.Cost
	err := t.read(ctx, func(s *store.Snapshot) error {
		for _, c := range s.OperatingCosts {
			if opts.Match(c) {
				out = append(out, c.Clone())
			}
		}
		return nil
	})
	return out, err
}

// DeleteOperatingCost removes a cost and voids its row under policy. An
// empty policy voids silently.
func (t *Treasury) DeleteOperatingCost(ctx context.Context, costID id.OperatingCostID, policy transaction.DeletionPolicy) error {
	if policy == "" {
		policy = transaction.SilentlyVoided
	}
	if !policy.Valid() {
		return invalid("policy", "unknown deletion policy %q", policy)
	}
	return t.mutate(ctx, "delete_operating_cost", func(b *book) error {
		c, err := b.operatingCost(costID)
		if err != nil {
			return err
		}
		if err := b.voidByID(c.OperationID, policy); err != nil {
			return err
		}
		b.snap.OperatingCosts = slices.DeleteFunc(b.snap.OperatingCosts, func(x *opcost.Cost) bool { return x.ID == c.ID })
		b.recordChange("delete", "operating_cost", c.ID, map[string]string{"policy": string(policy)})
		return nil
	})
}
