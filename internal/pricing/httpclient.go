package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// HTTPIntegration talks to a store's price API over REST. Each lookup is a
// single throttled attempt; a failure is absorbed by the price source, not
// retried here.
type HTTPIntegration struct {
	storeID    string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTPIntegration creates an integration for one store endpoint with a
// per-store request rate cap.
func NewHTTPIntegration(storeID, baseURL string, requestsPerSecond float64, burst int) *HTTPIntegration {
	return &HTTPIntegration{
		storeID: storeID,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

type priceResponse struct {
	Price   int64 `json:"price"`
	InStock bool  `json:"inStock"`
}

// Quote fetches the store's current price for a product.
func (h *HTTPIntegration) Quote(ctx context.Context, productID string) (Quote, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return Quote{}, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/products/%s/price", h.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, err
	}
	req.Header.Set("User-Agent", "Cartwise-Optimizer/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("store %s: %w", h.storeID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("store %s: unexpected status %d", h.storeID, resp.StatusCode)
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("store %s: decode response: %w", h.storeID, err)
	}
	return Quote{Price: body.Price, InStock: body.InStock}, nil
}
