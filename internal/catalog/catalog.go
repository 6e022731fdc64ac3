// Package catalog provides the store catalog: which stores are integrated,
// their delivery fees, and quality flags. The catalog is injected into the
// optimizer so store count and identity stay configuration, not constants.
package catalog

import (
	"context"
	"sort"
)

// Store describes a single integrated store.
type Store struct {
	ID          string // Stable store identifier (slug)
	Name        string // Display name
	DeliveryFee int64  // Flat delivery fee in minor currency units
	Quality     bool   // Whether the store qualifies for quality-biased picks
}

// Provider resolves the set of integrated stores and their delivery fees.
type Provider interface {
	// Stores returns all integrated stores in catalog order.
	// Catalog order is stable across calls and drives every
	// "first store in catalog" fallback in the optimizer.
	Stores(ctx context.Context) ([]Store, error)

	// DeliveryFee returns the flat delivery fee for a store.
	// Unknown stores get the catalog's default fee.
	DeliveryFee(storeID string) int64
}

// StaticProvider serves a fixed store list, typically loaded from config.
type StaticProvider struct {
	stores     []Store
	feesByID   map[string]int64
	defaultFee int64
}

// NewStaticProvider builds a provider over a fixed store list.
// Stores are kept in the order given; callers that want deterministic
// catalog order should pass a sorted list.
func NewStaticProvider(stores []Store, defaultFee int64) *StaticProvider {
	fees := make(map[string]int64, len(stores))
	for _, s := range stores {
		fees[s.ID] = s.DeliveryFee
	}
	return &StaticProvider{
		stores:     stores,
		feesByID:   fees,
		defaultFee: defaultFee,
	}
}

// Stores returns the configured store list.
func (p *StaticProvider) Stores(_ context.Context) ([]Store, error) {
	out := make([]Store, len(p.stores))
	copy(out, p.stores)
	return out, nil
}

// DeliveryFee returns the configured fee, or the default for unknown stores.
func (p *StaticProvider) DeliveryFee(storeID string) int64 {
	if fee, ok := p.feesByID[storeID]; ok {
		return fee
	}
	return p.defaultFee
}

// SortByID orders stores lexicographically by id in place.
func SortByID(stores []Store) {
	sort.Slice(stores, func(i, j int) bool {
		return stores[i].ID < stores[j].ID
	})
}
