package optimizer

import (
	"context"
	"time"
)

// PriceSource resolves fresh per-store prices for a batch of products.
// Implementations fan out per store concurrently; a failed store lookup is
// dropped from that product's list, never surfaced as a batch error. A
// product with zero surviving entries maps to an empty (or absent) list.
// Each product's list is returned in canonical store-id order so that
// "first match" tie-breaks downstream are deterministic.
type PriceSource interface {
	GetPricesForProducts(ctx context.Context, productIDs []string) (map[string][]StorePrice, error)
}

// ResultCache memoizes optimization results under a content-derived key.
// Concurrent Get/Set on the same key is harmless: the worst case is a
// redundant recompute, not corruption.
type ResultCache interface {
	Get(ctx context.Context, key string) (*OptimizedCart, bool)
	Set(ctx context.Context, key string, result *OptimizedCart, ttl time.Duration)
}
