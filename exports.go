package treasury

import (
	"github.com/xraph/treasury/asset"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	LYD  = types.LYD
	USD  = types.USD
	EUR  = types.EUR
	TND  = types.TND
	Zero = types.Zero
	Sum  = types.Sum
)

// Re-export Entity constructor
var NewEntity = types.NewEntity

// Deletion policies, re-exported for callers of Void and DeleteOperatingCost.
const (
	Reversed       = transaction.Reversed
	SilentlyVoided = transaction.SilentlyVoided
)

// Re-export selection helpers
var (
	External  = asset.External
	FromAsset = asset.FromAsset
	FromTill  = asset.FromTill
)
