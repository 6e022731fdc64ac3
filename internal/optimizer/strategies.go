package optimizer

import (
	"sort"
	"strings"

	"github.com/cartwise/cart-optimizer/internal/catalog"
)

// assignment pairs a cart item with its chosen store and unit price.
// Strategies produce assignments in cart input order; items that cannot be
// fulfilled anywhere are simply absent.
type assignment struct {
	item      CartItem
	storeID   string
	unitPrice int64
}

// optimizeBudget searches all store subsets of size 1..maxStores for the
// lowest total cost (subtotal plus a delivery fee per populated store).
// Subsets that cannot fulfill every item still compete on the cost of what
// they can supply; only subsets supplying nothing are excluded, since a
// zero-item subset trivially costs zero. Ties keep the first subset in
// generation order, which is lexicographic over store ids.
func (e *Engine) optimizeBudget(cart []CartItem, strat Strategy, stores []catalog.Store, ix *priceIndex) []assignment {
	maxStores := strat.MaxStores
	if maxStores <= 0 {
		maxStores = e.config.DefaultMaxStores
	}
	if maxStores > e.config.MaxStoresLimit {
		maxStores = e.config.MaxStoresLimit
	}

	storeIDs := make([]string, 0, len(stores))
	for _, s := range stores {
		storeIDs = append(storeIDs, s.ID)
	}
	sort.Strings(storeIDs)
	if maxStores > len(storeIDs) {
		maxStores = len(storeIDs)
	}

	var best []assignment
	bestCost := int64(-1)

	for size := 1; size <= maxStores; size++ {
		for _, subset := range Combinations(storeIDs, size) {
			assigned := greedyPartition(cart, subset, ix)
			if len(assigned) == 0 {
				continue
			}
			cost := subsetCost(assigned, e.catalog)
			if bestCost < 0 || cost < bestCost {
				bestCost = cost
				best = assigned
			}
		}
	}
	return best
}

// greedyPartition walks cart items in input order and assigns each to the
// first store in subset order with the item in stock.
func greedyPartition(cart []CartItem, subset []string, ix *priceIndex) []assignment {
	var assigned []assignment
	for _, item := range cart {
		for _, storeID := range subset {
			sp, ok := ix.inStock(storeID, item.ProductID)
			if !ok {
				continue
			}
			assigned = append(assigned, assignment{item: item, storeID: storeID, unitPrice: sp.Price})
			break
		}
	}
	return assigned
}

// subsetCost totals line prices plus one delivery fee per populated store.
func subsetCost(assigned []assignment, cat catalog.Provider) int64 {
	var cost int64
	populated := make(map[string]struct{})
	for _, a := range assigned {
		cost += a.unitPrice * int64(a.item.Quantity)
		populated[a.storeID] = struct{}{}
	}
	for storeID := range populated {
		cost += cat.DeliveryFee(storeID)
	}
	return cost
}

// optimizeConvenience minimizes the number of stores visited. If any single
// store stocks the whole cart, the first such store in catalog order wins.
// Otherwise the cart is partitioned greedily across the first two catalog
// stores; items neither carries stay unassigned (a documented limitation,
// surfaced to callers through the item count).
func (e *Engine) optimizeConvenience(cart []CartItem, stores []catalog.Store, ix *priceIndex) []assignment {
	for _, s := range stores {
		if ix.stocksAll(s.ID, cart) {
			assigned := make([]assignment, 0, len(cart))
			for _, item := range cart {
				sp, _ := ix.inStock(s.ID, item.ProductID)
				assigned = append(assigned, assignment{item: item, storeID: s.ID, unitPrice: sp.Price})
			}
			return assigned
		}
	}

	fallback := make([]string, 0, 2)
	for _, s := range stores {
		fallback = append(fallback, s.ID)
		if len(fallback) == 2 {
			break
		}
	}
	return greedyPartition(cart, fallback, ix)
}

// optimizeSplitCart independently minimizes each item's unit price. When
// the strategy names preferred stores and any of them carries the item in
// stock, the cheapest preferred store wins; otherwise the global cheapest.
// An item's MaxPrice cap filters candidates, but the cap is dropped rather
// than leaving the item unassigned when nothing satisfies it.
func (e *Engine) optimizeSplitCart(cart []CartItem, strat Strategy, ix *priceIndex) []assignment {
	var preferred map[string]struct{}
	if len(strat.PreferredStores) > 0 {
		preferred = make(map[string]struct{}, len(strat.PreferredStores))
		for _, id := range strat.PreferredStores {
			preferred[id] = struct{}{}
		}
	}

	var assigned []assignment
	for _, item := range cart {
		sp, ok := pickCheapest(ix, item, preferred)
		if !ok {
			continue
		}
		assigned = append(assigned, assignment{item: item, storeID: sp.StoreID, unitPrice: sp.Price})
	}
	return assigned
}

// optimizeMealPlan biases quality-sensitive items (organic/produce
// categories) toward the quality-store allowlist, falling back to the
// global cheapest when no quality store carries the item. Everything else
// takes the global cheapest price.
func (e *Engine) optimizeMealPlan(cart []CartItem, strat Strategy, ix *priceIndex) []assignment {
	allowlist := strat.QualityStores
	if len(allowlist) == 0 {
		allowlist = e.config.QualityStores
	}
	var quality map[string]struct{}
	if len(allowlist) > 0 {
		quality = make(map[string]struct{}, len(allowlist))
		for _, id := range allowlist {
			quality[id] = struct{}{}
		}
	}

	var assigned []assignment
	for _, item := range cart {
		var restrict map[string]struct{}
		if e.isQualityItem(item) {
			restrict = quality
		}
		sp, ok := pickCheapest(ix, item, restrict)
		if !ok {
			continue
		}
		assigned = append(assigned, assignment{item: item, storeID: sp.StoreID, unitPrice: sp.Price})
	}
	return assigned
}

func (e *Engine) isQualityItem(item CartItem) bool {
	category := strings.ToLower(item.Category)
	for _, tag := range e.config.QualityCategories {
		if strings.Contains(category, tag) {
			return true
		}
	}
	return false
}

// pickCheapest resolves an item's store: restricted set first, then global,
// honoring the MaxPrice cap only while an alternative under it exists.
func pickCheapest(ix *priceIndex, item CartItem, restrict map[string]struct{}) (StorePrice, bool) {
	if restrict != nil {
		if sp, ok := ix.cheapest(item.ProductID, restrict, item.MaxPrice); ok {
			return sp, true
		}
		if sp, ok := ix.cheapest(item.ProductID, restrict, 0); ok {
			return sp, true
		}
	}
	if sp, ok := ix.cheapest(item.ProductID, nil, item.MaxPrice); ok {
		return sp, true
	}
	return ix.cheapest(item.ProductID, nil, 0)
}
