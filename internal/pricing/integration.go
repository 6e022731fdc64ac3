// Package pricing resolves per-store prices for cart products. Lookups fan
// out to every integrated store concurrently; each store call may fail or
// time out on its own without affecting the rest of the batch.
package pricing

import (
	"context"
	"hash/fnv"
)

// Quote is a single store's answer for one product.
type Quote struct {
	Price   int64 // Per-unit price in minor currency units
	InStock bool
}

// StoreIntegration is one store's price lookup endpoint.
type StoreIntegration interface {
	Quote(ctx context.Context, productID string) (Quote, error)
}

// MockIntegration produces deterministic pseudo-random quotes derived from
// the (store, product) pair. Real store APIs are out of scope; this stands
// in for them in development and in the CLI.
type MockIntegration struct {
	storeID string
}

// NewMockIntegration creates a mock integration for a store.
func NewMockIntegration(storeID string) *MockIntegration {
	return &MockIntegration{storeID: storeID}
}

// Quote returns a stable price in the 1.50-9.99 range. Roughly one in ten
// (store, product) pairs reports out of stock.
func (m *MockIntegration) Quote(_ context.Context, productID string) (Quote, error) {
	h := fnv.New64a()
	h.Write([]byte(m.storeID))
	h.Write([]byte{0})
	h.Write([]byte(productID))
	sum := h.Sum64()

	return Quote{
		Price:   150 + int64(sum%850),
		InStock: sum%10 != 0,
	}, nil
}
