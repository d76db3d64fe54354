// Package id defines TypeID-based identity types for treasury entities.
//
// Every entity uses a single ID struct with a prefix naming its kind. IDs are
// K-sortable (UUIDv7-based), so sorting transaction ids also sorts them by
// creation time.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all treasury entity types.
const (
	PrefixAsset          Prefix = "asset" // Cash till or bank
	PrefixTransaction    Prefix = "txn"   // Ledger row
	PrefixOperation      Prefix = "op"    // Multi-row atomic unit
	PrefixCustomer       Prefix = "cust"  // Debt customer
	PrefixDebt           Prefix = "debt"  // Customer debt
	PrefixDebtPayment    Prefix = "dpay"  // Payment against a debt
	PrefixReceivable     Prefix = "recv"  // Money owed by an external debtor
	PrefixReceivablePay  Prefix = "rpay"  // Payment against a receivable
	PrefixPos            Prefix = "pos"   // POS settlement
	PrefixCardPurchase   Prefix = "card"  // Dollar-card purchase
	PrefixCardPayment    Prefix = "cpay"  // Dollar-card payment
	PrefixOperatingCost  Prefix = "cost"  // Operating cost
	PrefixExpenseType    Prefix = "etype" // Expense category
	PrefixExternalValue  Prefix = "xval"  // Off-books value
	PrefixExternalChange Prefix = "xvtx"  // Off-books value history entry
)

// ID is the primary identifier type for all treasury entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "txn_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// MustParseWithPrefix is like ParseWithPrefix but panics on error.
func MustParseWithPrefix(s string, expected Prefix) ID {
	parsed, err := ParseWithPrefix(s, expected)
	if err != nil {
		panic(fmt.Sprintf("id: must parse with prefix %q: %v", expected, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases
// ──────────────────────────────────────────────────

// AssetID is a type-safe identifier for assets (prefix: "asset").
type AssetID = ID

// TransactionID is a type-safe identifier for ledger rows (prefix: "txn").
type TransactionID = ID

// OperationID is a type-safe identifier for operations (prefix: "op").
type OperationID = ID

// CustomerID is a type-safe identifier for customers (prefix: "cust").
type CustomerID = ID

// DebtID is a type-safe identifier for debts (prefix: "debt").
type DebtID = ID

// DebtPaymentID is a type-safe identifier for debt payments (prefix: "dpay").
type DebtPaymentID = ID

// ReceivableID is a type-safe identifier for receivables (prefix: "recv").
type ReceivableID = ID

// ReceivablePayID is a type-safe identifier for receivable payments (prefix: "rpay").
type ReceivablePayID = ID

// PosID is a type-safe identifier for POS settlements (prefix: "pos").
type PosID = ID

// CardPurchaseID is a type-safe identifier for dollar-card purchases (prefix: "card").
type CardPurchaseID = ID

// CardPaymentID is a type-safe identifier for dollar-card payments (prefix: "cpay").
type CardPaymentID = ID

// OperatingCostID is a type-safe identifier for operating costs (prefix: "cost").
type OperatingCostID = ID

// ExpenseTypeID is a type-safe identifier for expense types (prefix: "etype").
type ExpenseTypeID = ID

// ExternalValueID is a type-safe identifier for external values (prefix: "xval").
type ExternalValueID = ID

// ExternalChangeID is a type-safe identifier for external value history entries (prefix: "xvtx").
type ExternalChangeID = ID

// AnyID is a type alias that accepts any valid prefix.
type AnyID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewAssetID generates a new unique asset ID.
func NewAssetID() ID { return New(PrefixAsset) }

// NewTransactionID generates a new unique ledger row ID.
func NewTransactionID() ID { return New(PrefixTransaction) }

// NewOperationID generates a new unique operation ID.
func NewOperationID() ID { return New(PrefixOperation) }

// NewCustomerID generates a new unique customer ID.
func NewCustomerID() ID { return New(PrefixCustomer) }

// NewDebtID generates a new unique debt ID.
func NewDebtID() ID { return New(PrefixDebt) }

// NewDebtPaymentID generates a new unique debt payment ID.
func NewDebtPaymentID() ID { return New(PrefixDebtPayment) }

// NewReceivableID generates a new unique receivable ID.
func NewReceivableID() ID { return New(PrefixReceivable) }

// NewReceivablePayID generates a new unique receivable payment ID.
func NewReceivablePayID() ID { return New(PrefixReceivablePay) }

// NewPosID generates a new unique POS settlement ID.
func NewPosID() ID { return New(PrefixPos) }

// NewCardPurchaseID generates a new unique dollar-card purchase ID.
func NewCardPurchaseID() ID { return New(PrefixCardPurchase) }

// NewCardPaymentID generates a new unique dollar-card payment ID.
func NewCardPaymentID() ID { return New(PrefixCardPayment) }

// NewOperatingCostID generates a new unique operating cost ID.
func NewOperatingCostID() ID { return New(PrefixOperatingCost) }

// NewExpenseTypeID generates a new unique expense type ID.
func NewExpenseTypeID() ID { return New(PrefixExpenseType) }

// NewExternalValueID generates a new unique external value ID.
func NewExternalValueID() ID { return New(PrefixExternalValue) }

// NewExternalChangeID generates a new unique external value history entrie ID.
func NewExternalChangeID() ID { return New(PrefixExternalChange) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseAssetID parses a string and validates the "asset" prefix.
func ParseAssetID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAsset) }

// ParseTransactionID parses a string and validates the "txn" prefix.
func ParseTransactionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixTransaction) }

// ParseOperationID parses a string and validates the "op" prefix.
func ParseOperationID(s string) (ID, error) { return ParseWithPrefix(s, PrefixOperation) }

// ParseCustomerID parses a string and validates the "cust" prefix.
func ParseCustomerID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCustomer) }

// ParseDebtID parses a string and validates the "debt" prefix.
func ParseDebtID(s string) (ID, error) { return ParseWithPrefix(s, PrefixDebt) }

// ParseDebtPaymentID parses a string and validates the "dpay" prefix.
func ParseDebtPaymentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixDebtPayment) }

// ParseReceivableID parses a string and validates the "recv" prefix.
func ParseReceivableID(s string) (ID, error) { return ParseWithPrefix(s, PrefixReceivable) }

// ParseReceivablePayID parses a string and validates the "rpay" prefix.
func ParseReceivablePayID(s string) (ID, error) { return ParseWithPrefix(s, PrefixReceivablePay) }

// ParsePosID parses a string and validates the "pos" prefix.
func ParsePosID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPos) }

// ParseCardPurchaseID parses a string and validates the "card" prefix.
func ParseCardPurchaseID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCardPurchase) }

// ParseCardPaymentID parses a string and validates the "cpay" prefix.
func ParseCardPaymentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCardPayment) }

// ParseOperatingCostID parses a string and validates the "cost" prefix.
func ParseOperatingCostID(s string) (ID, error) { return ParseWithPrefix(s, PrefixOperatingCost) }

// ParseExpenseTypeID parses a string and validates the "etype" prefix.
func ParseExpenseTypeID(s string) (ID, error) { return ParseWithPrefix(s, PrefixExpenseType) }

// ParseExternalValueID parses a string and validates the "xval" prefix.
func ParseExternalValueID(s string) (ID, error) { return ParseWithPrefix(s, PrefixExternalValue) }

// ParseExternalChangeID parses a string and validates the "xvtx" prefix.
func ParseExternalChangeID(s string) (ID, error) { return ParseWithPrefix(s, PrefixExternalChange) }

// ParseAny parses a string into an ID without type checking the prefix.
func ParseAny(s string) (ID, error) { return Parse(s) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
