// Package gateway calls the external payment-verification service that
// confirms transfer references before a payment row is recorded.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// VerifyResult is the gateway's verdict on one transaction reference.
type VerifyResult struct {
	Reference string  `json:"reference"`
	Verified  bool    `json:"verified"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Message   string  `json:"message"`
}

// Client calls the payment gateway. With Skip set every reference verifies
// successfully, which is how dev and test environments run.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Verify confirms a transaction reference and its amount with the gateway.
func (c *Client) Verify(ctx context.Context, reference string, amount float64) (*VerifyResult, error) {
	if c.Skip {
		return &VerifyResult{
			Reference: reference,
			Verified:  true,
			Amount:    amount,
			Currency:  "NGN",
			Message:   "verification skipped",
		}, nil
	}
	if reference == "" {
		return nil, fmt.Errorf("transaction reference required")
	}

	body, _ := json.Marshal(map[string]any{"reference": reference, "amount": amount})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payment gateway error %s: %s", resp.Status, string(bodyBytes))
	}

	var out VerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// Health checks if the gateway is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("payment gateway unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("payment gateway unhealthy: %s", resp.Status)
	}
	return nil
}
