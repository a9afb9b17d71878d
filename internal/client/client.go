// Package client talks to a running Halloween API the way the web frontend does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/halloween/internal/models"
)

const TransformPath = "/api/transform-halloween"

// Client posts images to a Halloween API server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Client for baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTPClient: httpClient}
}

// APIError is a failed transform as reported by the server.
type APIError struct {
	StatusCode int
	Message    string
	Retryable  bool
	Details    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	if e.Retryable {
		msg += "; the service is busy, try again in a moment"
	}
	return msg
}

// Transform sends imageData (a data URL) and returns the transformed image data URL.
func (c *Client) Transform(ctx context.Context, imageData string) (string, error) {
	requestBody, err := json.Marshal(models.TransformRequest{ImageData: imageData})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := c.BaseURL
	if !strings.HasSuffix(url, TransformPath) && !strings.HasSuffix(url, "/transform") {
		url += TransformPath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var result models.TransformResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if resp.StatusCode != http.StatusOK || !result.Success {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    result.Error,
			Details:    result.Details,
		}
		if result.Retryable != nil {
			apiErr.Retryable = *result.Retryable
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return "", apiErr
	}

	if result.TransformedImage == "" {
		return "", fmt.Errorf("server response did not include an image")
	}
	return result.TransformedImage, nil
}
