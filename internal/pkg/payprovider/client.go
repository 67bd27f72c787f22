// internal/pkg/payprovider/client.go
package payprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the card/bank payment provider's transaction API.
type Client struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// InitializeRequest asks the provider to open a checkout. Amount is in minor
// units (cents, kobo).
type InitializeRequest struct {
	Email       string            `json:"email"`
	AmountMinor int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type InitializeResult struct {
	Reference   string `json:"reference"`
	RedirectURL string `json:"authorization_url"`
	AccessCode  string `json:"access_code"`
}

type apiResponse struct {
	Status  bool             `json:"status"`
	Message string           `json:"message"`
	Data    InitializeResult `json:"data"`
}

// APIError is returned for non-2xx responses and for 2xx bodies that report
// status=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment provider error (status %d): %s", e.StatusCode, e.Message)
}

// Initialize opens a checkout and returns the reference and redirect URL.
func (c *Client) Initialize(ctx context.Context, in InitializeRequest) (*InitializeResult, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create initialize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute initialize request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read initialize response: %w", err)
	}

	var out apiResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && out.Message != "" {
			msg = out.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode initialize response: %w", decodeErr)
	}
	if !out.Status || out.Data.RedirectURL == "" {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: out.Message}
	}
	if out.Data.Reference == "" {
		out.Data.Reference = in.Reference
	}
	return &out.Data, nil
}
