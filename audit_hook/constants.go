package audithook

// Action constants for audit events.
const (
	// Ledger actions
	ActionOperationCommitted = "operation.committed"
	ActionOperationReversed  = "operation.reversed"
	ActionOperationVoided    = "operation.voided"

	// Bank actions
	ActionBankCreated = "bank.created"
	ActionBankUpdated = "bank.updated"
	ActionBankDeleted = "bank.deleted"

	// Dollar card actions
	ActionCardCompleted = "dollar_card.completed"

	// Record actions
	ActionRecordArchived = "record.archived"
	ActionRecordRestored = "record.restored"
	ActionRecordDeleted  = "record.deleted"

	// Data actions
	ActionDataImported = "data.imported"
)

// Resource constants for audit events.
const (
	ResourceOperation  = "operation"
	ResourceBank       = "bank"
	ResourceDollarCard = "dollar_card"
	ResourceSnapshot   = "snapshot"
)

// Category constants for audit events.
const (
	CategoryLedger  = "ledger"
	CategoryAssets  = "assets"
	CategoryRecords = "records"
	CategoryData    = "data"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
)
