package asset

import (
	"fmt"
	"strings"

	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

// Locations with cash tills.
const (
	LocationTripoli = "tripoli"
	LocationMisrata = "misrata"
)

// DefaultLocation is used when a selection names no location.
const DefaultLocation = LocationTripoli

// TillRef keys the till lookup table.
type TillRef struct {
	Currency string
	Location string
}

// Key returns the stable asset key of the till, e.g. "cash_lyd_tripoli".
func (r TillRef) Key() string {
	return fmt.Sprintf("cash_%s_%s", strings.ToLower(r.Currency), strings.ToLower(r.Location))
}

// TillSpec describes one fixed till of the catalog.
type TillSpec struct {
	Currency string `json:"currency" yaml:"currency"`
	Location string `json:"location" yaml:"location"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
}

func (s TillSpec) Ref() TillRef {
	return TillRef{Currency: strings.ToUpper(s.Currency), Location: strings.ToLower(s.Location)}
}

// DisplayName returns Name or a generated "Cash LYD (Tripoli)".
func (s TillSpec) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	loc := strings.ToLower(s.Location)
	if loc != "" {
		loc = strings.ToUpper(loc[:1]) + loc[1:]
	}
	return fmt.Sprintf("Cash %s (%s)", strings.ToUpper(s.Currency), loc)
}

// NewTill builds an empty till asset from the spec.
func (s TillSpec) NewTill(e types.Entity) *Asset {
	ref := s.Ref()
	return &Asset{
		Entity:      e,
		ID:          id.NewAssetID(),
		Key:         ref.Key(),
		Name:        s.DisplayName(),
		Currency:    ref.Currency,
		Kind:        KindCashTill,
		Location:    ref.Location,
		Balance:     types.Zero(ref.Currency),
		Adjustments: types.Zero(ref.Currency),
	}
}

// DefaultTills is the fixed catalog of cash tills.
var DefaultTills = []TillSpec{
	{Currency: types.CurrencyLYD, Location: LocationTripoli},
	{Currency: types.CurrencyUSD, Location: LocationTripoli},
	{Currency: types.CurrencyEUR, Location: LocationTripoli},
	{Currency: types.CurrencyTND, Location: LocationTripoli},
	{Currency: types.CurrencyLYD, Location: LocationMisrata},
	{Currency: types.CurrencyUSD, Location: LocationMisrata},
}

// Table resolves (currency, location) pairs to till assets.
type Table struct {
	defaultLocation string
	tills           map[TillRef]*Asset
}

// NewTable indexes the tills among assets.
func NewTable(assets []*Asset, defaultLocation string) *Table {
	if defaultLocation == "" {
		defaultLocation = DefaultLocation
	}
	t := &Table{defaultLocation: strings.ToLower(defaultLocation), tills: make(map[TillRef]*Asset)}
	for _, a := range assets {
		if a.IsTill() {
			t.tills[TillRef{Currency: a.Currency, Location: a.Location}] = a
		}
	}
	return t
}

// Till returns the till for currency at location, using the default
// location when location is empty.
func (t *Table) Till(currency, location string) (*Asset, TillRef, bool) {
	if location == "" {
		location = t.defaultLocation
	}
	ref := TillRef{Currency: strings.ToUpper(currency), Location: strings.ToLower(location)}
	a, ok := t.tills[ref]
	return a, ref, ok
}

// Add indexes a newly created till.
func (t *Table) Add(a *Asset) {
	if a.IsTill() {
		t.tills[TillRef{Currency: a.Currency, Location: a.Location}] = a
	}
}
