package paywall

import "strconv"

// Amounts are whole rupees; the gateway takes them verbatim.

type Tag string

const (
	TagNone      Tag = ""
	TagHot       Tag = "Hot"
	TagBestValue Tag = "Best Value"
)

// Package is one purchasable coin bundle.
type Package struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Coins  int64  `json:"coins"`
	Tag    Tag    `json:"tag,omitempty"`
}

// Label is the display title, e.g. "650 Coins".
func (p Package) Label() string {
	return strconv.FormatInt(p.Coins, 10) + " Coins"
}

// Price is the display price, e.g. "₹500".
func (p Package) Price() string {
	return "₹" + strconv.FormatInt(p.Amount, 10)
}

// Listing is the presentation form of a Package sent to the device.
type Listing struct {
	Package
	Label string `json:"label"`
	Price string `json:"price"`
}

func (p Package) Listing() Listing {
	return Listing{Package: p, Label: p.Label(), Price: p.Price()}
}
