package optimizer

import (
	"errors"
	"fmt"
	"time"
)

// StrategyType selects one of the four optimization algorithms.
type StrategyType string

const (
	StrategyBudget      StrategyType = "budget"
	StrategyConvenience StrategyType = "convenience"
	StrategySplitCart   StrategyType = "split-cart"
	StrategyMealPlan    StrategyType = "meal-plan"
)

// DeliveryPreference controls how delivery windows are synthesized.
type DeliveryPreference string

const (
	DeliveryFastest    DeliveryPreference = "fastest"
	DeliveryCheapest   DeliveryPreference = "cheapest"
	DeliverySingleTrip DeliveryPreference = "single-trip"
)

// CartItem is a single distinct product in the user's cart.
// One entry per product; quantities, not duplicate rows.
type CartItem struct {
	ProductID string // Product identifier
	Name      string // Display name
	Quantity  int    // Requested quantity (must be > 0)
	MaxPrice  int64  // Optional per-unit price ceiling in minor units (0 = none)
	Category  string // Optional category tag, e.g. "organic produce"
}

// Strategy is the configuration for one optimization run.
// It carries no mutable state.
type Strategy struct {
	Type               StrategyType
	DeliveryPreference DeliveryPreference
	MaxStores          int      // 1-10, budget strategy only (0 = default)
	PrioritizeSavings  bool     // Surface savings prominently in responses
	PreferredStores    []string // Split-cart: stores to prefer when they carry the item
	QualityStores      []string // Meal-plan: allowlist override (empty = engine config)
}

// StorePrice is one (product, store) price observation, fetched fresh per
// optimization call. Money is in minor currency units.
type StorePrice struct {
	StoreID     string
	Price       int64
	InStock     bool
	DeliveryFee int64
}

// BreakdownItem is a cart item as allocated to a specific store.
type BreakdownItem struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Price      int64  `json:"price"`      // Per-unit price at the chosen store
	TotalPrice int64  `json:"totalPrice"` // Price * Quantity
}

// StoreBreakdown is the per-store slice of an optimized cart. Every cart
// item appears in exactly one breakdown, unless it is unavailable at every
// store, in which case it is omitted from all of them.
type StoreBreakdown struct {
	StoreID     string          `json:"storeId"`
	StoreName   string          `json:"storeName"`
	Items       []BreakdownItem `json:"items"`
	Subtotal    int64           `json:"subtotal"`
	DeliveryFee int64           `json:"deliveryFee"`
	Savings     int64           `json:"savings"`
}

// DeliveryWindow is a synthesized delivery slot for a populated store.
type DeliveryWindow struct {
	StoreID string    `json:"storeId"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Fee     int64     `json:"fee"`
}

// OptimizedCart is the result of one optimization run. It is derived
// entirely from the cart and strategy, never mutated after creation, and
// has no lifecycle beyond the call plus the cache TTL.
type OptimizedCart struct {
	Strategy           StrategyType     `json:"strategy"`
	TotalCost          int64            `json:"totalCost"`
	EstimatedSavings   int64            `json:"estimatedSavings"`
	SavingsPercentage  float64          `json:"savingsPercentage"`
	StoreBreakdown     []StoreBreakdown `json:"storeBreakdown"`
	DeliveryWindows    []DeliveryWindow `json:"deliveryWindows"`
	OptimizationTimeMs int64            `json:"optimizationTime"`
	ItemCount          int              `json:"itemCount"`  // Original cart size, not the allocated count
	StoreCount         int              `json:"storeCount"` // Stores actually used
}

// ErrUnsupportedStrategy is returned for an unknown strategy type.
// Fatal for the call, never retried.
var ErrUnsupportedStrategy = errors.New("unsupported strategy")

// ErrInvalidRequest is returned when the cart or strategy is malformed.
type ErrInvalidRequest struct {
	Field  string
	Reason string
}

func (e ErrInvalidRequest) Error() string {
	return e.Field + ": " + e.Reason
}

// ValidateCart checks the cart shape before optimization.
func ValidateCart(cart []CartItem, maxItems int) error {
	if len(cart) == 0 {
		return ErrInvalidRequest{Field: "items", Reason: "must have at least one item"}
	}
	if maxItems > 0 && len(cart) > maxItems {
		return ErrInvalidRequest{Field: "items", Reason: "exceeds maximum allowed"}
	}
	seen := make(map[string]struct{}, len(cart))
	for i, item := range cart {
		if item.ProductID == "" {
			return ErrInvalidRequest{Field: "items", Reason: fmt.Sprintf("item at index %d has empty productId", i)}
		}
		if item.Quantity < 1 {
			return ErrInvalidRequest{Field: "items", Reason: fmt.Sprintf("item at index %d has invalid quantity", i)}
		}
		if _, dup := seen[item.ProductID]; dup {
			return ErrInvalidRequest{Field: "items", Reason: fmt.Sprintf("duplicate productId %q", item.ProductID)}
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}

// knownStrategy reports whether t is one of the four dispatchable types.
func knownStrategy(t StrategyType) bool {
	switch t {
	case StrategyBudget, StrategyConvenience, StrategySplitCart, StrategyMealPlan:
		return true
	}
	return false
}
