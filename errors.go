package treasury

import (
	"errors"
	"fmt"

	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

// Sentinel errors for common failure scenarios.
var (
	// Taxonomy
	ErrNotFound            = errors.New("treasury: not found")
	ErrValidation          = errors.New("treasury: validation failed")
	ErrInsufficientBalance = errors.New("treasury: insufficient balance")
	ErrInvariantViolation  = errors.New("treasury: invariant violation")

	// Entity lookups
	ErrAssetNotFound         = errors.New("treasury: asset not found")
	ErrTransactionNotFound   = errors.New("treasury: transaction not found")
	ErrOperationNotFound     = errors.New("treasury: operation not found")
	ErrCustomerNotFound      = errors.New("treasury: customer not found")
	ErrDebtNotFound          = errors.New("treasury: debt not found")
	ErrReceivableNotFound    = errors.New("treasury: receivable not found")
	ErrPosNotFound           = errors.New("treasury: pos transaction not found")
	ErrPurchaseNotFound      = errors.New("treasury: dollar card purchase not found")
	ErrCardPaymentNotFound   = errors.New("treasury: dollar card payment not found")
	ErrOperatingCostNotFound = errors.New("treasury: operating cost not found")
	ErrExpenseTypeNotFound   = errors.New("treasury: expense type not found")
	ErrExternalValueNotFound = errors.New("treasury: external value not found")
	ErrDebtorNotFound        = errors.New("treasury: debtor not found")

	// Lifecycle and storage
	ErrNotStarted  = errors.New("treasury: not started")
	ErrNoSnapshot  = errors.New("treasury: no snapshot stored")
	ErrPersistence = errors.New("treasury: persistence failed")
	ErrStoreClosed = errors.New("treasury: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("treasury: validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) error {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

var notFoundKinds = map[string]error{
	"asset":                ErrAssetNotFound,
	"till":                 ErrAssetNotFound,
	"transaction":          ErrTransactionNotFound,
	"operation":            ErrOperationNotFound,
	"customer":             ErrCustomerNotFound,
	"debt":                 ErrDebtNotFound,
	"receivable":           ErrReceivableNotFound,
	"pos transaction":      ErrPosNotFound,
	"dollar card purchase": ErrPurchaseNotFound,
	"dollar card payment":  ErrCardPaymentNotFound,
	"operating cost":       ErrOperatingCostNotFound,
	"expense type":         ErrExpenseTypeNotFound,
	"external value":       ErrExternalValueNotFound,
	"debtor":               ErrDebtorNotFound,
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("treasury: %s %q not found", e.Kind, e.ID)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == notFoundKinds[e.Kind]
}

func notFound(kind string, ref fmt.Stringer) error {
	return NotFoundError{Kind: kind, ID: ref.String()}
}

// InsufficientBalanceError is returned when a bank debit exceeds its balance.
type InsufficientBalanceError struct {
	AssetID   id.AssetID
	Balance   types.Money
	Requested types.Money
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("treasury: insufficient balance on %s: have %s, need %s", e.AssetID, e.Balance, e.Requested)
}

func (e InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

// InvariantError is returned when an operation would break a ledger rule.
type InvariantError struct {
	Rule   string
	Detail string
}

func (e InvariantError) Error() string {
	return fmt.Sprintf("treasury: invariant %s violated: %s", e.Rule, e.Detail)
}

func (e InvariantError) Is(target error) bool { return target == ErrInvariantViolation }

func violation(rule, format string, args ...any) error {
	return InvariantError{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "treasury: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("treasury: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation returns true if the error is a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsInsufficientBalance returns true if a bank debit was refused.
func IsInsufficientBalance(err error) bool { return errors.Is(err, ErrInsufficientBalance) }

// IsInvariantViolation returns true if an operation was refused to keep the
// ledger consistent.
func IsInvariantViolation(err error) bool { return errors.Is(err, ErrInvariantViolation) }
