package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cartwise/cart-optimizer/internal/catalog"
	"github.com/cartwise/cart-optimizer/internal/optimizer"
	"github.com/cartwise/cart-optimizer/internal/pricing"
)

var (
	optimizeStrategy  string
	optimizeMaxStores int
	optimizePreferred []string
	optimizeOutput    string
)

// cartFileItem is one entry of the cart JSON file.
type cartFileItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	MaxPrice  int64  `json:"maxPrice,omitempty"`
	Category  string `json:"category,omitempty"`
}

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize <cart.json>",
	Short: "Optimize a cart from a JSON file",
	Long: `Optimize a cart against the configured store catalog using one of the four
strategies. The cart file is a JSON array of items:

  [{"productId": "milk-1l", "name": "Milk 1L", "quantity": 2}]

Prices come from the mock store integrations, so the same cart and catalog
always produce the same result.`,
	Example: `  cart-optimizer optimize ./cart.json
  cart-optimizer optimize ./cart.json --strategy budget --max-stores 3
  cart-optimizer optimize ./cart.json --strategy split-cart --preferred walmart,kroger
  cart-optimizer optimize ./cart.json --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVar(&optimizeStrategy, "strategy", "budget", "Strategy: budget, convenience, split-cart, or meal-plan")
	optimizeCmd.Flags().IntVar(&optimizeMaxStores, "max-stores", 0, "Budget strategy: maximum stores to split across (0 = default)")
	optimizeCmd.Flags().StringSliceVar(&optimizePreferred, "preferred", nil, "Split-cart strategy: preferred store ids")
	optimizeCmd.Flags().StringVar(&optimizeOutput, "output", "table", "Output format: table or json")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cart, err := loadCartFile(args[0])
	if err != nil {
		return err
	}

	engine, err := buildEngine()
	if err != nil {
		return err
	}

	strat := optimizer.Strategy{
		Type:            optimizer.StrategyType(optimizeStrategy),
		MaxStores:       optimizeMaxStores,
		PreferredStores: optimizePreferred,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := engine.OptimizeCart(ctx, cart, strat, "cli")
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}

	if optimizeOutput == "json" {
		return printJSON(result)
	}
	printResultTable(result)
	return nil
}

// loadCartFile reads and validates the cart JSON file.
func loadCartFile(path string) ([]optimizer.CartItem, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart file: %w", err)
	}

	var fileItems []cartFileItem
	if err := json.Unmarshal(content, &fileItems); err != nil {
		return nil, fmt.Errorf("failed to parse cart file: %w", err)
	}

	cart := make([]optimizer.CartItem, len(fileItems))
	for i, it := range fileItems {
		cart[i] = optimizer.CartItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			MaxPrice:  it.MaxPrice,
			Category:  it.Category,
		}
	}
	return cart, nil
}

// buildEngine wires an offline engine: static catalog from config, mock
// integrations, in-memory cache.
func buildEngine() (*optimizer.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	stores := make([]catalog.Store, 0, len(cfg.Catalog.Stores))
	for _, s := range cfg.Catalog.Stores {
		stores = append(stores, catalog.Store{
			ID:          s.ID,
			Name:        s.Name,
			DeliveryFee: s.DeliveryFee,
			Quality:     s.Quality,
		})
	}
	if len(stores) == 0 {
		return nil, fmt.Errorf("no stores in catalog")
	}
	provider := catalog.NewStaticProvider(stores, cfg.Catalog.DefaultDeliveryFee)

	source := pricing.NewSource(provider, pricing.MockIntegrations(stores), nil)

	engineConfig := &optimizer.Config{
		CacheTTL:          cfg.Optimizer.CacheTTL,
		DefaultMaxStores:  cfg.Optimizer.DefaultMaxStores,
		MaxStoresLimit:    cfg.Optimizer.MaxStoresLimit,
		MaxCartItems:      cfg.Optimizer.MaxCartItems,
		QualityStores:     qualityStoreIDs(stores, cfg.Optimizer.QualityStores),
		QualityCategories: cfg.Optimizer.QualityCategories,
	}

	return optimizer.NewEngine(provider, source, optimizer.NewMemoryCache(), engineConfig, nil), nil
}

// qualityStoreIDs resolves the meal-plan allowlist the same way the server
// does: explicit config wins, otherwise catalog quality flags.
func qualityStoreIDs(stores []catalog.Store, configured []string) []string {
	if len(configured) > 0 {
		return configured
	}
	var out []string
	for _, s := range stores {
		if s.Quality {
			out = append(out, s.ID)
		}
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResultTable(result *optimizer.OptimizedCart) {
	fmt.Printf("Strategy: %s\n", result.Strategy)
	fmt.Printf("Total cost: %s  Savings: %s (%.1f%%)\n",
		formatMoney(result.TotalCost), formatMoney(result.EstimatedSavings), result.SavingsPercentage)
	fmt.Printf("Items: %d  Stores: %d  Took: %dms\n\n", result.ItemCount, result.StoreCount, result.OptimizationTimeMs)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STORE\tPRODUCT\tQTY\tUNIT\tLINE")
	for _, b := range result.StoreBreakdown {
		for _, it := range b.Items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				b.StoreName, it.Name, it.Quantity, formatMoney(it.Price), formatMoney(it.TotalPrice))
		}
		fmt.Fprintf(w, "%s\t(delivery)\t\t\t%s\n", b.StoreName, formatMoney(b.DeliveryFee))
	}
	w.Flush()

	if len(result.DeliveryWindows) > 0 {
		fmt.Println()
		for _, win := range result.DeliveryWindows {
			fmt.Printf("Delivery %s: %s - %s\n",
				win.StoreID, win.Start.Format("Mon 15:04"), win.End.Format("Mon 15:04"))
		}
	}
}

// formatMoney renders minor currency units as a decimal string.
func formatMoney(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
