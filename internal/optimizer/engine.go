package optimizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cartwise/cart-optimizer/internal/catalog"
)

// Engine dispatches cart optimization to one of four strategies. Each run
// is a pure function of (cart, strategy) plus request-scoped price data;
// the injected result cache is the only shared resource.
type Engine struct {
	catalog catalog.Provider
	prices  PriceSource
	cache   ResultCache
	config  *Config
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// NewEngine creates an engine with its collaborators injected.
func NewEngine(cat catalog.Provider, prices PriceSource, cache ResultCache, config *Config, metrics *MetricsRecorder) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if metrics == nil {
		metrics = NewMetricsRecorder()
	}
	return &Engine{
		catalog: cat,
		prices:  prices,
		cache:   cache,
		config:  config,
		metrics: metrics,
		logger:  log.With().Str("component", "optimizer_engine").Logger(),
	}
}

// OptimizeCart computes the store assignment for a cart under a strategy.
// Results are memoized under a content-derived key for the configured TTL.
// Only validation failures and unknown strategy types surface as errors;
// degraded price data is absorbed into a best-effort, possibly partial
// result.
func (e *Engine) OptimizeCart(ctx context.Context, cart []CartItem, strat Strategy, userID string) (*OptimizedCart, error) {
	if err := ValidateCart(cart, e.config.MaxCartItems); err != nil {
		return nil, err
	}
	if !knownStrategy(strat.Type) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, strat.Type)
	}

	key := CacheKey(cart, strat.Type)
	if cached, ok := e.cache.Get(ctx, key); ok {
		e.metrics.RecordCacheHit(string(strat.Type))
		return cached, nil
	}
	e.metrics.RecordCacheMiss(string(strat.Type))

	start := time.Now()
	e.metrics.RecordCartSize(len(cart))

	stores, err := e.catalog.Stores(ctx)
	if err != nil {
		e.metrics.RecordOptimization(string(strat.Type), time.Since(start), false)
		return nil, fmt.Errorf("failed to load store catalog: %w", err)
	}

	productIDs := make([]string, 0, len(cart))
	for _, item := range cart {
		productIDs = append(productIDs, item.ProductID)
	}
	prices, err := e.prices.GetPricesForProducts(ctx, productIDs)
	if err != nil {
		e.metrics.RecordOptimization(string(strat.Type), time.Since(start), false)
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	ix := newPriceIndex(prices)

	var assigned []assignment
	switch strat.Type {
	case StrategyBudget:
		assigned = e.optimizeBudget(cart, strat, stores, ix)
	case StrategyConvenience:
		assigned = e.optimizeConvenience(cart, stores, ix)
	case StrategySplitCart:
		assigned = e.optimizeSplitCart(cart, strat, ix)
	case StrategyMealPlan:
		assigned = e.optimizeMealPlan(cart, strat, ix)
	}

	result := e.buildResult(cart, strat, stores, ix, assigned)
	result.OptimizationTimeMs = time.Since(start).Milliseconds()

	e.cache.Set(ctx, key, result, e.config.CacheTTL)

	e.metrics.RecordOptimization(string(strat.Type), time.Since(start), true)
	e.metrics.RecordStoresUsed(result.StoreCount)
	e.metrics.RecordSavingsPercentage(result.SavingsPercentage)

	e.logger.Info().
		Str("strategy", string(strat.Type)).
		Str("user_id", userID).
		Int("item_count", result.ItemCount).
		Int("store_count", result.StoreCount).
		Int64("total_cost", result.TotalCost).
		Float64("savings_pct", result.SavingsPercentage).
		Int64("latency_ms", result.OptimizationTimeMs).
		Msg("Cart optimized")

	return result, nil
}

// buildResult groups assignments into per-store breakdowns in catalog
// order, totals costs, and attaches savings and delivery windows.
func (e *Engine) buildResult(cart []CartItem, strat Strategy, stores []catalog.Store, ix *priceIndex, assigned []assignment) *OptimizedCart {
	storeNames := make(map[string]string, len(stores))
	catalogOrder := make(map[string]int, len(stores))
	for i, s := range stores {
		storeNames[s.ID] = s.Name
		catalogOrder[s.ID] = i
	}

	itemsByStore := make(map[string][]BreakdownItem)
	for _, a := range assigned {
		itemsByStore[a.storeID] = append(itemsByStore[a.storeID], BreakdownItem{
			ProductID:  a.item.ProductID,
			Name:       a.item.Name,
			Quantity:   a.item.Quantity,
			Price:      a.unitPrice,
			TotalPrice: a.unitPrice * int64(a.item.Quantity),
		})
	}

	usedStores := make([]string, 0, len(itemsByStore))
	for storeID := range itemsByStore {
		usedStores = append(usedStores, storeID)
	}
	sort.Slice(usedStores, func(i, j int) bool {
		oi, iknown := catalogOrder[usedStores[i]]
		oj, jknown := catalogOrder[usedStores[j]]
		if iknown && jknown {
			return oi < oj
		}
		if iknown != jknown {
			return iknown
		}
		return usedStores[i] < usedStores[j]
	})

	var totalCost int64
	breakdowns := make([]StoreBreakdown, 0, len(usedStores))
	for _, storeID := range usedStores {
		items := itemsByStore[storeID]
		var subtotal int64
		for _, it := range items {
			subtotal += it.TotalPrice
		}
		fee := e.catalog.DeliveryFee(storeID)
		breakdowns = append(breakdowns, StoreBreakdown{
			StoreID:     storeID,
			StoreName:   storeNames[storeID],
			Items:       items,
			Subtotal:    subtotal,
			DeliveryFee: fee,
			Savings:     breakdownSavings(items, ix),
		})
		totalCost += subtotal + fee
	}

	savings, pct := calculateSavings(cart, stores, e.catalog, ix, totalCost)

	return &OptimizedCart{
		Strategy:          strat.Type,
		TotalCost:         totalCost,
		EstimatedSavings:  savings,
		SavingsPercentage: pct,
		StoreBreakdown:    breakdowns,
		DeliveryWindows:   buildDeliveryWindows(breakdowns, strat.DeliveryPreference, time.Now()),
		ItemCount:         len(cart),
		StoreCount:        len(breakdowns),
	}
}

// CacheKey derives the memoization key from the sorted (productId,
// quantity) pairs and the strategy type. Cart order does not matter.
func CacheKey(cart []CartItem, stratType StrategyType) string {
	pairs := make([]string, 0, len(cart))
	for _, item := range cart {
		pairs = append(pairs, fmt.Sprintf("%s:%d", item.ProductID, item.Quantity))
	}
	sort.Strings(pairs)

	sum := sha256.Sum256([]byte(strings.Join(pairs, "|") + "|" + string(stratType)))
	return hex.EncodeToString(sum[:])
}
