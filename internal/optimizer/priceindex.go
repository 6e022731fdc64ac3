package optimizer

import "sort"

// priceIndex is the request-scoped view over fetched prices, indexed both
// ways. Per-product lists are kept in canonical store-id order.
type priceIndex struct {
	byProduct map[string][]StorePrice
	byStore   map[string]map[string]StorePrice
}

func newPriceIndex(prices map[string][]StorePrice) *priceIndex {
	ix := &priceIndex{
		byProduct: make(map[string][]StorePrice, len(prices)),
		byStore:   make(map[string]map[string]StorePrice),
	}
	for productID, list := range prices {
		sorted := make([]StorePrice, len(list))
		copy(sorted, list)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].StoreID < sorted[j].StoreID
		})
		ix.byProduct[productID] = sorted
		for _, sp := range sorted {
			m, ok := ix.byStore[sp.StoreID]
			if !ok {
				m = make(map[string]StorePrice)
				ix.byStore[sp.StoreID] = m
			}
			m[productID] = sp
		}
	}
	return ix
}

// inStock returns the price entry for (store, product) if present and in stock.
func (ix *priceIndex) inStock(storeID, productID string) (StorePrice, bool) {
	sp, ok := ix.byStore[storeID][productID]
	if !ok || !sp.InStock {
		return StorePrice{}, false
	}
	return sp, true
}

// stocksAll reports whether a single store has every cart item in stock.
func (ix *priceIndex) stocksAll(storeID string, cart []CartItem) bool {
	for _, item := range cart {
		if _, ok := ix.inStock(storeID, item.ProductID); !ok {
			return false
		}
	}
	return true
}

// cheapest returns the lowest in-stock price for a product. When allowed is
// non-nil, only those stores are considered. When maxPrice > 0, entries
// above the cap are skipped. Equal prices keep the first store in canonical
// order.
func (ix *priceIndex) cheapest(productID string, allowed map[string]struct{}, maxPrice int64) (StorePrice, bool) {
	var best StorePrice
	found := false
	for _, sp := range ix.byProduct[productID] {
		if !sp.InStock {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[sp.StoreID]; !ok {
				continue
			}
		}
		if maxPrice > 0 && sp.Price > maxPrice {
			continue
		}
		if !found || sp.Price < best.Price {
			best = sp
			found = true
		}
	}
	return best, found
}

// highestInStock returns the highest in-stock price for a product across
// all stores, used for per-item savings attribution.
func (ix *priceIndex) highestInStock(productID string) (int64, bool) {
	var high int64
	found := false
	for _, sp := range ix.byProduct[productID] {
		if !sp.InStock {
			continue
		}
		if !found || sp.Price > high {
			high = sp.Price
			found = true
		}
	}
	return high, found
}
