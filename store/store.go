// Package store defines the persisted treasury document and the interface
// every persistence backend implements. Backends save and load the whole
// document; there are no incremental writes.
package store

import (
	"context"
	"time"

	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/debt"
	"github.com/xraph/treasury/dollarcard"
	"github.com/xraph/treasury/extvalue"
	"github.com/xraph/treasury/opcost"
	"github.com/xraph/treasury/pos"
	"github.com/xraph/treasury/receivable"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// Store persists Snapshots. Load returns treasury.ErrNoSnapshot when
// nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Snapshot is every collection the treasury owns.
type Snapshot struct {
	Version int64     `json:"version"`
	SavedAt time.Time `json:"savedAt"`

	Assets              []*asset.Asset             `json:"assets"`
	Transactions        []*transaction.Transaction `json:"transactions"`
	Operations          []*transaction.Operation   `json:"operations"`
	Customers           []*debt.Customer           `json:"customers"`
	Receivables         []*receivable.Receivable   `json:"receivables"`
	PosTransactions     []*pos.Transaction         `json:"posTransactions"`
	DollarCardPurchases []*dollarcard.Purchase     `json:"dollarCardPurchases"`
	OperatingCosts      []*opcost.Cost             `json:"operatingCosts"`
	ExpenseTypes        []*opcost.ExpenseType      `json:"expenseTypes"`
	ExternalValues      []*extvalue.Value          `json:"externalValues"`
}

// RequiredKeys are the top-level keys an imported document must carry.
var RequiredKeys = []string{
	"assets",
	"transactions",
	"customers",
	"receivables",
	"posTransactions",
	"dollarCardPurchases",
	"operatingCosts",
	"externalValues",
	"expenseTypes",
}

// Empty returns a snapshot with every collection present and empty.
func Empty() *Snapshot {
	s := &Snapshot{}
	s.Normalize()
	return s
}

// Normalize replaces nil collections with empty ones so the document always
// serializes every key.
func (s *Snapshot) Normalize() {
	if s.Assets == nil {
		s.Assets = []*asset.Asset{}
	}
	if s.Transactions == nil {
		s.Transactions = []*transaction.Transaction{}
	}
	if s.Operations == nil {
		s.Operations = []*transaction.Operation{}
	}
	if s.Customers == nil {
		s.Customers = []*debt.Customer{}
	}
	if s.Receivables == nil {
		s.Receivables = []*receivable.Receivable{}
	}
	if s.PosTransactions == nil {
		s.PosTransactions = []*pos.Transaction{}
	}
	if s.DollarCardPurchases == nil {
		s.DollarCardPurchases = []*dollarcard.Purchase{}
	}
	if s.OperatingCosts == nil {
		s.OperatingCosts = []*opcost.Cost{}
	}
	if s.ExpenseTypes == nil {
		s.ExpenseTypes = []*opcost.ExpenseType{}
	}
	if s.ExternalValues == nil {
		s.ExternalValues = []*extvalue.Value{}
	}

	// documents written by hand or by older builds may carry lower-case codes
	for _, a := range s.Assets {
		a.Currency = types.CanonicalCurrency(a.Currency)
	}
	for _, c := range s.Customers {
		c.Currency = types.CanonicalCurrency(c.Currency)
	}
	for _, r := range s.Receivables {
		r.Currency = types.CanonicalCurrency(r.Currency)
	}
	for _, v := range s.ExternalValues {
		v.Currency = types.CanonicalCurrency(v.Currency)
	}
}

// Clone returns a deep copy. Mutations always run against a clone.
func (s *Snapshot) Clone() *Snapshot {
	return &Snapshot{
		Version:             s.Version,
		SavedAt:             s.SavedAt,
		Assets:              cloneAll(s.Assets, (*asset.Asset).Clone),
		Transactions:        cloneAll(s.Transactions, (*transaction.Transaction).Clone),
		Operations:          cloneAll(s.Operations, (*transaction.Operation).Clone),
		Customers:           cloneAll(s.Customers, (*debt.Customer).Clone),
		Receivables:         cloneAll(s.Receivables, (*receivable.Receivable).Clone),
		PosTransactions:     cloneAll(s.PosTransactions, (*pos.Transaction).Clone),
		DollarCardPurchases: cloneAll(s.DollarCardPurchases, (*dollarcard.Purchase).Clone),
		OperatingCosts:      cloneAll(s.OperatingCosts, (*opcost.Cost).Clone),
		ExpenseTypes:        cloneAll(s.ExpenseTypes, (*opcost.ExpenseType).Clone),
		ExternalValues:      cloneAll(s.ExternalValues, (*extvalue.Value).Clone),
	}
}

func cloneAll[T any](in []*T, clone func(*T) *T) []*T {
	out := make([]*T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}
