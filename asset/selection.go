package asset

import "github.com/xraph/treasury/id"

// Selection picks an asset: either an explicit asset or the cash till of
// the operation's currency at Location.
type Selection struct {
	AssetID  id.AssetID `json:"assetId,omitzero"`
	Location string     `json:"location,omitempty"`
}

// Explicit reports whether a specific asset was chosen.
func (s Selection) Explicit() bool { return !s.AssetID.IsNil() }

// Funding is a money source or destination that may be outside the books.
type Funding struct {
	External bool `json:"external,omitempty"`
	Selection
}

// External is the off-books funding.
func External() Funding { return Funding{External: true} }

// FromAsset funds from a specific asset.
func FromAsset(assetID id.AssetID) Funding {
	return Funding{Selection: Selection{AssetID: assetID}}
}

// FromTill funds from the cash till at location.
func FromTill(location string) Funding {
	return Funding{Selection: Selection{Location: location}}
}

func (f Funding) String() string {
	switch {
	case f.External:
		return "external"
	case f.Explicit():
		return f.AssetID.String()
	case f.Location != "":
		return "till@" + f.Location
	default:
		return "till"
	}
}
