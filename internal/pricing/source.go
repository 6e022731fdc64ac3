package pricing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cartwise/cart-optimizer/internal/catalog"
	"github.com/cartwise/cart-optimizer/internal/optimizer"
)

// Source implements optimizer.PriceSource by fanning out each (product,
// store) lookup concurrently. A failed or timed-out lookup degrades to "no
// price from this store for this product": it is counted and logged, never
// propagated. Per-product results come back sorted by store id so that
// downstream first-match tie-breaks are deterministic.
type Source struct {
	catalog       catalog.Provider
	integrations  map[string]StoreIntegration
	lookupTimeout time.Duration
	concurrency   int
	metrics       *optimizer.MetricsRecorder
	logger        zerolog.Logger
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithLookupTimeout caps each individual store lookup.
func WithLookupTimeout(d time.Duration) SourceOption {
	return func(s *Source) { s.lookupTimeout = d }
}

// WithConcurrency limits in-flight lookups across the batch.
func WithConcurrency(n int) SourceOption {
	return func(s *Source) { s.concurrency = n }
}

// NewSource creates a price source over the given store integrations,
// keyed by store id. Catalog stores without an integration are skipped.
func NewSource(cat catalog.Provider, integrations map[string]StoreIntegration, metrics *optimizer.MetricsRecorder, opts ...SourceOption) *Source {
	if metrics == nil {
		metrics = optimizer.NewMetricsRecorder()
	}
	s := &Source{
		catalog:       cat,
		integrations:  integrations,
		lookupTimeout: 5 * time.Second,
		concurrency:   16,
		metrics:       metrics,
		logger:        log.With().Str("component", "price_source").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPricesForProducts resolves prices for each product across all
// integrated stores. The returned map has an entry for every requested
// product; products no store could price get an empty list.
func (s *Source) GetPricesForProducts(ctx context.Context, productIDs []string) (map[string][]optimizer.StorePrice, error) {
	stores, err := s.catalog.Stores(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]optimizer.StorePrice, len(productIDs))
	for _, id := range productIDs {
		out[id] = []optimizer.StorePrice{}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, productID := range productIDs {
		for _, store := range stores {
			integ, ok := s.integrations[store.ID]
			if !ok {
				continue
			}
			productID, store := productID, store
			g.Go(func() error {
				qctx, cancel := context.WithTimeout(gctx, s.lookupTimeout)
				defer cancel()

				quote, err := integ.Quote(qctx, productID)
				if err != nil {
					// Absorbed once, not retried. The product simply has
					// no price from this store.
					s.metrics.RecordUpstreamFailure(store.ID)
					s.logger.Warn().
						Err(err).
						Str("store_id", store.ID).
						Str("product_id", productID).
						Msg("Store lookup failed, dropping price")
					return nil
				}

				mu.Lock()
				out[productID] = append(out[productID], optimizer.StorePrice{
					StoreID:     store.ID,
					Price:       quote.Price,
					InStock:     quote.InStock,
					DeliveryFee: s.catalog.DeliveryFee(store.ID),
				})
				mu.Unlock()
				return nil
			})
		}
	}

	// Closures never return an error; Wait only reflects ctx cancellation
	// through individual lookups, which are already absorbed.
	_ = g.Wait()

	for productID := range out {
		list := out[productID]
		sort.Slice(list, func(i, j int) bool {
			return list[i].StoreID < list[j].StoreID
		})
	}
	return out, nil
}

// MockIntegrations builds a mock integration per catalog store, for
// development and the offline CLI.
func MockIntegrations(stores []catalog.Store) map[string]StoreIntegration {
	out := make(map[string]StoreIntegration, len(stores))
	for _, s := range stores {
		out[s.ID] = NewMockIntegration(s.ID)
	}
	return out
}
