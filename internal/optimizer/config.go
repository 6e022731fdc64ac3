package optimizer

import "time"

// Config contains the engine's tunables. Quality stores and categories are
// data, not behavior; they live here (or on the Strategy) instead of being
// hardcoded inside the meal-plan strategy.
type Config struct {
	// Result cache
	CacheTTL time.Duration // How long optimization results remain valid

	// Budget strategy
	DefaultMaxStores int // Stores to split across when the request omits maxStores
	MaxStoresLimit   int // Hard upper bound on maxStores

	// Validation limits
	MaxCartItems int // Maximum distinct items allowed in a cart

	// Meal-plan strategy
	QualityStores     []string // Default allowlist for quality-biased picks
	QualityCategories []string // Category substrings that mark an item quality-sensitive
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		CacheTTL:          600 * time.Second,
		DefaultMaxStores:  1,
		MaxStoresLimit:    10,
		MaxCartItems:      100,
		QualityCategories: []string{"organic", "produce"},
	}
}
