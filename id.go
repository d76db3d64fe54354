package treasury

import "github.com/xraph/treasury/id"

// ID is the primary identifier type for all treasury records.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
