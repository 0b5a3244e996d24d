package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ProductServiceClient fetches favorite listings from the product service
type ProductServiceClient struct {
	baseURL string
	client  *http.Client
}

// NewProductServiceClient creates a client for the product service
func NewProductServiceClient(baseURL string) *ProductServiceClient {
	return &ProductServiceClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   3 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type favoritesResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// GetUserFavorites returns the raw favorites payload for a user. The
// product service owns the shape; this service passes it through untouched.
func (c *ProductServiceClient) GetUserFavorites(ctx context.Context, userID uint) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/users/%d/favorites", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("product service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product service returned status %d", resp.StatusCode)
	}

	var body favoritesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode favorites response: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("favorites lookup failed: %s", body.Error)
	}

	return body.Data, nil
}
