package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartwise/cart-optimizer/internal/catalog"
	"github.com/cartwise/cart-optimizer/internal/optimizer"
)

// stubPriceSource serves a scripted price table.
type stubPriceSource struct {
	prices map[string][]optimizer.StorePrice
}

func (s *stubPriceSource) GetPricesForProducts(_ context.Context, productIDs []string) (map[string][]optimizer.StorePrice, error) {
	out := make(map[string][]optimizer.StorePrice, len(productIDs))
	for _, id := range productIDs {
		out[id] = append([]optimizer.StorePrice{}, s.prices[id]...)
	}
	return out, nil
}

func newTestRouter(prices map[string][]optimizer.StorePrice) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cat := catalog.NewStaticProvider([]catalog.Store{
		{ID: "kroger", Name: "Kroger", DeliveryFee: 399},
		{ID: "walmart", Name: "Walmart", DeliveryFee: 299},
		{ID: "whole-foods", Name: "Whole Foods", DeliveryFee: 599, Quality: true},
	}, 499)

	config := optimizer.DefaultConfig()
	config.QualityStores = []string{"whole-foods"}
	engine := optimizer.NewEngine(cat, &stubPriceSource{prices: prices}, optimizer.NewMemoryCache(), config, nil)

	router := gin.New()
	NewHandler(engine).RegisterRoutes(router)
	return router
}

func defaultPrices() map[string][]optimizer.StorePrice {
	inStock := func(store string, p int64) optimizer.StorePrice {
		return optimizer.StorePrice{StoreID: store, Price: p, InStock: true}
	}
	return map[string][]optimizer.StorePrice{
		"milk-1l": {inStock("kroger", 300), inStock("walmart", 250)},
		"eggs":    {inStock("kroger", 220), inStock("walmart", 240)},
	}
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestOptimizeDefaultsToBudget(t *testing.T) {
	router := newTestRouter(defaultPrices())

	w := postJSON(t, router, "/optimize", gin.H{
		"items": []gin.H{{"productId": "milk-1l", "name": "Milk 1L", "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "budget", data["strategy"])
	// Walmart wins: 250 + 299 delivery.
	assert.Equal(t, float64(549), data["totalCost"])
	assert.Equal(t, float64(1), data["itemCount"])
}

func TestOptimizeModeMapping(t *testing.T) {
	cases := []struct {
		mode     string
		strategy string
	}{
		{"price", "budget"},
		{"time", "convenience"},
		{"convenience", "convenience"},
	}
	for _, tc := range cases {
		t.Run(tc.mode, func(t *testing.T) {
			router := newTestRouter(defaultPrices())
			w := postJSON(t, router, "/optimize", gin.H{
				"items": []gin.H{{"productId": "milk-1l", "name": "Milk 1L", "quantity": 1}},
				"mode":  tc.mode,
			})
			require.Equal(t, http.StatusOK, w.Code)
			data := decodeBody(t, w)["data"].(map[string]any)
			assert.Equal(t, tc.strategy, data["strategy"])
		})
	}
}

func TestOptimizeFullStrategyObject(t *testing.T) {
	router := newTestRouter(defaultPrices())

	w := postJSON(t, router, "/optimize", gin.H{
		"items": []gin.H{
			{"productId": "milk-1l", "name": "Milk 1L", "quantity": 1},
			{"productId": "eggs", "name": "Eggs", "quantity": 1},
		},
		"strategy": gin.H{"type": "split-cart", "preferredStores": []string{"target"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "split-cart", data["strategy"])
	// Preferred store stocks nothing; every item still lands somewhere.
	assert.Equal(t, float64(2), data["storeCount"])
}

func TestOptimizeRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(defaultPrices())

	cases := []struct {
		name string
		body gin.H
	}{
		{"missing items", gin.H{"mode": "price"}},
		{"empty items", gin.H{"items": []gin.H{}}},
		{"zero quantity", gin.H{"items": []gin.H{{"productId": "milk-1l", "name": "Milk", "quantity": 0}}}},
		{"missing name", gin.H{"items": []gin.H{{"productId": "milk-1l", "quantity": 1}}}},
		{"bad mode", gin.H{
			"items": []gin.H{{"productId": "milk-1l", "name": "Milk", "quantity": 1}},
			"mode":  "cheapest",
		}},
		{"bad strategy type", gin.H{
			"items":    []gin.H{{"productId": "milk-1l", "name": "Milk", "quantity": 1}},
			"strategy": gin.H{"type": "premium"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, router, "/optimize", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
			errObj := body["error"].(map[string]any)
			assert.Equal(t, "invalid request", errObj["message"])
			assert.NotEmpty(t, errObj["fields"])
		})
	}
}

func TestOptimizeRejectsDuplicateProducts(t *testing.T) {
	router := newTestRouter(defaultPrices())

	// Passes binding, fails engine validation.
	w := postJSON(t, router, "/optimize", gin.H{
		"items": []gin.H{
			{"productId": "milk-1l", "name": "Milk", "quantity": 1},
			{"productId": "milk-1l", "name": "Milk again", "quantity": 2},
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
}

func TestCompareRunsAllStrategies(t *testing.T) {
	router := newTestRouter(defaultPrices())

	w := postJSON(t, router, "/optimize/compare", gin.H{
		"cart": []gin.H{
			{"productId": "milk-1l", "name": "Milk 1L", "quantity": 1},
			{"productId": "eggs", "name": "Eggs", "quantity": 2},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	results := data["results"].(map[string]any)
	require.Len(t, results, 4)
	for _, st := range []string{"budget", "convenience", "split-cart", "meal-plan"} {
		assert.Contains(t, results, st)
	}

	recommendation := data["recommendation"].(string)
	require.Contains(t, results, recommendation)

	// The recommendation carries the highest savings percentage.
	recommended := results[recommendation].(map[string]any)["savingsPercentage"].(float64)
	for _, r := range results {
		pct := r.(map[string]any)["savingsPercentage"].(float64)
		assert.LessOrEqual(t, pct, recommended)
	}
}

func TestStrategiesCatalog(t *testing.T) {
	router := newTestRouter(defaultPrices())

	req := httptest.NewRequest(http.MethodGet, "/optimize/strategies", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	entries := body["data"].([]any)
	require.Len(t, entries, 4)

	types := make([]string, 0, len(entries))
	for _, e := range entries {
		entry := e.(map[string]any)
		types = append(types, entry["type"].(string))
		assert.NotEmpty(t, entry["name"])
		assert.NotEmpty(t, entry["description"])
	}
	assert.Equal(t, []string{"budget", "convenience", "split-cart", "meal-plan"}, types)
}

func TestEstimateSavings(t *testing.T) {
	router := newTestRouter(defaultPrices())

	w := postJSON(t, router, "/optimize/estimate-savings", gin.H{
		"items": []gin.H{
			{"productId": "milk-1l", "name": "Milk 1L", "quantity": 1},
			{"productId": "eggs", "name": "Eggs", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)

	// Savings figures only, no breakdown.
	assert.Contains(t, data, "totalCost")
	assert.Contains(t, data, "estimatedSavings")
	assert.Contains(t, data, "savingsPercentage")
	assert.NotContains(t, data, "storeBreakdown")

	// Single-store budget: walmart 250+240+299 = 789, kroger 300+220+399 = 919.
	assert.Equal(t, float64(789), data["totalCost"])
	assert.Equal(t, float64(130), data["estimatedSavings"])
}
