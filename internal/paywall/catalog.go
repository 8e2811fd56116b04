// Package paywall owns the coin catalog and the paywall overlay shown when a
// call runs out of free time.
package paywall

import (
	"errors"
	"fmt"

	"companion-platform/internal/payment"
)

var (
	ErrPackageNotFound = errors.New("paywall: package not found")
	ErrInvalidCatalog  = errors.New("paywall: invalid catalog")
)

// Catalog is a fixed, ordered list of packages.
type Catalog []Package

// DefaultCatalog returns the shipped coin bundles, in display order.
func DefaultCatalog() Catalog {
	return Catalog{
		{ID: "pack1", Amount: 100, Coins: 120},
		{ID: "pack2", Amount: 200, Coins: 250},
		{ID: "pack3", Amount: 400, Coins: 500},
		{ID: "pack4", Amount: 500, Coins: 650, Tag: TagHot},
		{ID: "pack5", Amount: 1000, Coins: 1300},
		{ID: "pack6", Amount: 1500, Coins: 2000},
		{ID: "pack7", Amount: 2000, Coins: 2700},
		{ID: "pack8", Amount: 3000, Coins: 4500, Tag: TagBestValue},
	}
}

// Validate rejects empty catalogs, duplicate ids and non-positive values.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidCatalog)
	}
	seen := make(map[string]struct{}, len(c))
	for _, p := range c {
		if p.ID == "" {
			return fmt.Errorf("%w: package without id", ErrInvalidCatalog)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Amount <= 0 || p.Coins <= 0 {
			return fmt.Errorf("%w: %q must have positive amount and coins", ErrInvalidCatalog, p.ID)
		}
	}
	return nil
}

func (c Catalog) Find(id string) (Package, bool) {
	for _, p := range c {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}

// Select turns a package id into a payment intent. Amount and coins are
// copied verbatim from the catalog entry.
func (c Catalog) Select(id string) (payment.Intent, error) {
	p, ok := c.Find(id)
	if !ok {
		return payment.Intent{}, ErrPackageNotFound
	}
	return payment.Intent{PackageID: p.ID, Amount: p.Amount, Coins: p.Coins}, nil
}

func (c Catalog) Listings() []Listing {
	out := make([]Listing, 0, len(c))
	for _, p := range c {
		out = append(out, p.Listing())
	}
	return out
}
