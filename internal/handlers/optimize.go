package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cartwise/cart-optimizer/internal/optimizer"
)

// ============================================================================
// Cart Optimization Endpoints
// ============================================================================

// CartItemRequest is an item in the optimization request body.
type CartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	MaxPrice  int64  `json:"maxPrice,omitempty" binding:"omitempty,min=1"`
	Category  string `json:"category,omitempty"`
}

// StrategyRequest is the full strategy object, for callers that need more
// than the public mode shorthand.
type StrategyRequest struct {
	Type               string   `json:"type" binding:"required,oneof=budget convenience split-cart meal-plan"`
	DeliveryPreference string   `json:"deliveryPreference,omitempty" binding:"omitempty,oneof=fastest cheapest single-trip"`
	MaxStores          int      `json:"maxStores,omitempty" binding:"omitempty,min=1,max=10"`
	PrioritizeSavings  bool     `json:"prioritizeSavings,omitempty"`
	PreferredStores    []string `json:"preferredStores,omitempty"`
	QualityStores      []string `json:"qualityStores,omitempty"`
}

// OptimizeRequest is the body for POST /optimize. Either the public mode
// shorthand or a full strategy object selects the algorithm; mode wins when
// both are absent via the budget default.
type OptimizeRequest struct {
	Items    []CartItemRequest `json:"items" binding:"required,min=1,max=100,dive"`
	Mode     string            `json:"mode,omitempty" binding:"omitempty,oneof=price time convenience"`
	Strategy *StrategyRequest  `json:"strategy,omitempty"`
	UserID   string            `json:"userId,omitempty"`
}

// CompareRequest is the body for POST /optimize/compare.
type CompareRequest struct {
	Cart   []CartItemRequest `json:"cart" binding:"required,min=1,max=100,dive"`
	UserID string            `json:"userId,omitempty"`
}

// EstimateSavingsRequest is the body for POST /optimize/estimate-savings.
type EstimateSavingsRequest struct {
	Items  []CartItemRequest `json:"items" binding:"required,min=1,max=100,dive"`
	UserID string            `json:"userId,omitempty"`
}

// FieldError is one structured validation failure.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Handler serves the optimization endpoints.
type Handler struct {
	engine *optimizer.Engine
	logger zerolog.Logger
}

// NewHandler creates a handler around an engine.
func NewHandler(engine *optimizer.Engine) *Handler {
	return &Handler{
		engine: engine,
		logger: log.With().Str("component", "optimize_handler").Logger(),
	}
}

// RegisterRoutes mounts the optimization endpoints on a router group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/optimize", h.Optimize)
	r.POST("/optimize/compare", h.Compare)
	r.GET("/optimize/strategies", h.Strategies)
	r.POST("/optimize/estimate-savings", h.EstimateSavings)
}

// Optimize handles POST /optimize.
func (h *Handler) Optimize(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	strat := strategyFromRequest(req.Mode, req.Strategy)
	result, err := h.engine.OptimizeCart(c.Request.Context(), toCartItems(req.Items), strat, req.UserID)
	if err != nil {
		h.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// Compare handles POST /optimize/compare: all four strategies run in
// parallel and the highest savings percentage wins the recommendation.
func (h *Handler) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	cart := toCartItems(req.Cart)
	strategies := []optimizer.StrategyType{
		optimizer.StrategyBudget,
		optimizer.StrategyConvenience,
		optimizer.StrategySplitCart,
		optimizer.StrategyMealPlan,
	}

	var mu sync.Mutex
	results := make(map[string]*optimizer.OptimizedCart, len(strategies))

	g, ctx := errgroup.WithContext(c.Request.Context())
	for _, st := range strategies {
		st := st
		g.Go(func() error {
			result, err := h.engine.OptimizeCart(ctx, cart, optimizer.Strategy{Type: st}, req.UserID)
			if err != nil {
				// One strategy failing should not sink the comparison.
				h.logger.Warn().Err(err).Str("strategy", string(st)).Msg("Strategy failed during comparison")
				return nil
			}
			mu.Lock()
			results[string(st)] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(results) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"message": "optimization failed"},
		})
		return
	}

	recommendation := ""
	bestPct := -1.0
	for _, st := range strategies {
		if r, ok := results[string(st)]; ok && r.SavingsPercentage > bestPct {
			bestPct = r.SavingsPercentage
			recommendation = string(st)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"results":        results,
			"recommendation": recommendation,
		},
	})
}

// StrategyInfo is one entry of the static strategy catalog.
type StrategyInfo struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BestFor     string `json:"bestFor"`
}

// StrategyCatalog lists the four strategies with human-readable blurbs.
// Served verbatim by GET /optimize/strategies and by the CLI.
var StrategyCatalog = []StrategyInfo{
	{
		Type:        string(optimizer.StrategyBudget),
		Name:        "Budget",
		Description: "Lowest total cost including delivery fees, splitting across up to maxStores stores.",
		BestFor:     "Shoppers who want the cheapest possible basket.",
	},
	{
		Type:        string(optimizer.StrategyConvenience),
		Name:        "Convenience",
		Description: "Fewest stores possible, regardless of price.",
		BestFor:     "Shoppers who value a single trip over savings.",
	},
	{
		Type:        string(optimizer.StrategySplitCart),
		Name:        "Split Cart",
		Description: "Every item at its lowest price, however many stores that takes.",
		BestFor:     "Shoppers maximizing per-item savings.",
	},
	{
		Type:        string(optimizer.StrategyMealPlan),
		Name:        "Meal Plan",
		Description: "Balances cost against quality stores for organic and produce items.",
		BestFor:     "Shoppers who care about produce quality.",
	},
}

// Strategies handles GET /optimize/strategies. No computation, just the
// static catalog.
func (h *Handler) Strategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": StrategyCatalog})
}

// EstimateSavings handles POST /optimize/estimate-savings: the budget
// strategy with maxStores=1 as a cheap approximation, savings figures only.
func (h *Handler) EstimateSavings(c *gin.Context) {
	var req EstimateSavingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	strat := optimizer.Strategy{Type: optimizer.StrategyBudget, MaxStores: 1}
	result, err := h.engine.OptimizeCart(c.Request.Context(), toCartItems(req.Items), strat, req.UserID)
	if err != nil {
		h.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"totalCost":         result.TotalCost,
			"estimatedSavings":  result.EstimatedSavings,
			"savingsPercentage": result.SavingsPercentage,
		},
	})
}

// strategyFromRequest maps the public HTTP surface onto internal strategy
// names. The public mode names differ from the internal ones: "price" is
// the budget strategy; "time" and "convenience" both select the
// convenience strategy but with fastest vs single-trip delivery. A full
// strategy object bypasses the mapping.
func strategyFromRequest(mode string, full *StrategyRequest) optimizer.Strategy {
	if full != nil {
		return optimizer.Strategy{
			Type:               optimizer.StrategyType(full.Type),
			DeliveryPreference: optimizer.DeliveryPreference(full.DeliveryPreference),
			MaxStores:          full.MaxStores,
			PrioritizeSavings:  full.PrioritizeSavings,
			PreferredStores:    full.PreferredStores,
			QualityStores:      full.QualityStores,
		}
	}

	switch mode {
	case "time":
		return optimizer.Strategy{Type: optimizer.StrategyConvenience, DeliveryPreference: optimizer.DeliveryFastest}
	case "convenience":
		return optimizer.Strategy{Type: optimizer.StrategyConvenience, DeliveryPreference: optimizer.DeliverySingleTrip}
	default: // "price" and absent
		return optimizer.Strategy{Type: optimizer.StrategyBudget, DeliveryPreference: optimizer.DeliveryCheapest}
	}
}

func toCartItems(items []CartItemRequest) []optimizer.CartItem {
	out := make([]optimizer.CartItem, len(items))
	for i, item := range items {
		out[i] = optimizer.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			MaxPrice:  item.MaxPrice,
			Category:  item.Category,
		}
	}
	return out
}

// respondValidationError converts binding failures into structured field
// errors with a 400.
func respondValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	fields := []FieldError{}
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:  fe.Field(),
				Reason: fe.Tag(),
			})
		}
	} else {
		fields = append(fields, FieldError{Field: "body", Reason: err.Error()})
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"message": "invalid request",
			"fields":  fields,
		},
	})
}

// respondEngineError distinguishes caller mistakes from engine failures.
// Internal detail is never leaked on a 500.
func (h *Handler) respondEngineError(c *gin.Context, err error) {
	var invalid optimizer.ErrInvalidRequest
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"message": "invalid request",
				"fields":  []FieldError{{Field: invalid.Field, Reason: invalid.Reason}},
			},
		})
	case errors.Is(err, optimizer.ErrUnsupportedStrategy):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"message": "unsupported strategy"},
		})
	default:
		h.logger.Error().Err(err).Msg("Optimization failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"message": "internal error"},
		})
	}
}
