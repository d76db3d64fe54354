// Package treasury provides a multi-currency treasury ledger for a money
// exchange and lending business.
//
// Treasury is designed as a library, not a service. It keeps cash tills and
// bank accounts, records every balance change as a signed transaction row,
// and runs the business workflows on top: customer debts, receivables, POS
// settlements, prepaid dollar cards, operating costs and off-books values.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/treasury"
//	    "github.com/xraph/treasury/store/file"
//	)
//
//	s, err := file.New("treasury.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	t := treasury.New(s, treasury.WithLogger(slog.Default()))
//	if err := t.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Stop()
//
//	bank, err := t.CreateBank(ctx, treasury.CreateBankInput{
//	    Name:           "Jumhouria",
//	    OpeningBalance: treasury.LYD(1_000_000), // 1000.000 LYD
//	    POSEnabled:     true,
//	})
//
// # Core Concepts
//
// Assets are the cash tills, one per (currency, location) from a fixed
// catalog, and the user-created LYD banks. A Selection names either an
// explicit asset or the till of the operation's currency at a location:
//
//	t.Deposit(ctx, treasury.MovementInput{
//	    Asset:  asset.Selection{Location: asset.LocationMisrata},
//	    Amount: treasury.USD(50_00),
//	})
//
// Every money movement is an Operation producing one or more Transaction
// rows. A balance never moves without its row, and
//
//	balance == Σ amount of non-deleted rows + adjustments
//
// holds for every asset at all times; Reconcile and Verify check it.
//
// Deletion is a single primitive with two policies. Reversed keeps the
// original rows and adds visible counter-rows; SilentlyVoided restores the
// balances and hides the rows from every listing:
//
//	t.Void(ctx, txID, treasury.Reversed)
//
// Debt payments that exceed the remaining balance are two-phase: PayDebt
// without a surplus decision commits nothing and returns
// PaymentAwaitingSurplusDecision with the quote; the caller repeats the call
// with a SurplusOption.
//
// # Consistency
//
// Mutations run against a copy of the state under one lock, are saved
// through the Store, and only then become visible. A failed save discards
// the copy. Plugins observe committed changes after the lock is released and
// cannot roll them back.
//
// All monetary calculations use integer arithmetic in the currency's minor
// unit: dirhams for LYD, cents for USD and EUR, millimes for TND. Rates and
// percentages are decimals and round half away from zero.
//
// # TypeID
//
// All records use TypeID for globally unique, type-safe identifiers:
//
//	asset_01h2xcejqtf2nbrexx3vqjhp41  // Asset ID
//	txn_01h2xcejqtf2nbrexx3vqjhp41    // Transaction ID
//	op_01h455vb4pex5vsknk084sn02q     // Operation ID
package treasury
