package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/micro-marketplace/pkg/logger"
)

// UserServiceClient resolves user data from the user service over HTTP
type UserServiceClient struct {
	baseURL string
	client  *http.Client
}

// NewUserServiceClient creates a client for the user service
func NewUserServiceClient(baseURL string) *UserServiceClient {
	return &UserServiceClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   3 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type userResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
	} `json:"data"`
	Error string `json:"error"`
}

// GetUserEmail returns the public email of a user
func (c *UserServiceClient) GetUserEmail(ctx context.Context, userID uint) (string, error) {
	url := fmt.Sprintf("%s/users/%d", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("user service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user service returned status %d", resp.StatusCode)
	}

	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode user response: %w", err)
	}
	if !body.Success {
		return "", fmt.Errorf("user lookup failed: %s", body.Error)
	}

	logger.Debug(ctx).
		Uint("user_id", userID).
		Msg("Resolved user from user service")

	return body.Data.Email, nil
}
