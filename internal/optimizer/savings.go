package optimizer

import (
	"github.com/cartwise/cart-optimizer/internal/catalog"
)

// calculateSavings compares the chosen allocation against the worst
// feasible single-store shop. For every catalog store that can fulfill the
// entire cart, it totals subtotal plus delivery there; the savings is the
// gap between the highest such total and the chosen total, floored at zero.
// When no single store covers the whole cart the baseline does not exist
// and savings is zero. Not an error.
func calculateSavings(cart []CartItem, stores []catalog.Store, cat catalog.Provider, ix *priceIndex, totalCost int64) (int64, float64) {
	var worst int64
	feasible := false

	for _, s := range stores {
		if !ix.stocksAll(s.ID, cart) {
			continue
		}
		var cost int64
		for _, item := range cart {
			sp, _ := ix.inStock(s.ID, item.ProductID)
			cost += sp.Price * int64(item.Quantity)
		}
		cost += cat.DeliveryFee(s.ID)
		if !feasible || cost > worst {
			worst = cost
			feasible = true
		}
	}

	if !feasible || worst <= 0 {
		return 0, 0
	}

	savings := worst - totalCost
	if savings < 0 {
		savings = 0
	}
	pct := float64(savings) / float64(worst) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return savings, pct
}

// breakdownSavings attributes savings per allocated item: the gap between
// the highest in-stock price anywhere and the price paid, times quantity.
func breakdownSavings(items []BreakdownItem, ix *priceIndex) int64 {
	var total int64
	for _, it := range items {
		high, ok := ix.highestInStock(it.ProductID)
		if !ok || high <= it.Price {
			continue
		}
		total += (high - it.Price) * int64(it.Quantity)
	}
	return total
}
