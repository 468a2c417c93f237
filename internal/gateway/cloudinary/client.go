package cloudinary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jmallory/pica/internal/domain"
)

const (
	// DefaultBaseURL is the hosted API root. Overridable for tests and
	// self-hosted mirrors.
	DefaultBaseURL = "https://api.cloudinary.com/v1_1"

	defaultTimeout = 30 * time.Second
	userAgent      = "Pica/1.0"
)

// Client implements domain.MediaGateway against the Cloudinary HTTP API.
// Credentials are passed per call; the client itself holds no secrets.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new gateway client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// doRequest performs an HTTP request. A non-zero secret pair is sent as
// basic auth. Connectivity failures map to ErrGatewayOffline and 401 to
// ErrUnauthorized so callers can branch on sentinels.
func (c *Client) doRequest(ctx context.Context, method, reqURL, contentType string, body io.Reader, secret domain.SecretCredentials) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !secret.IsZero() {
		req.SetBasicAuth(secret.APIKey, secret.APISecret)
	}

	c.logger.Debug("gateway request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gateway request failed", "error", err)
		return nil, domain.ErrGatewayOffline
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, domain.ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("gateway request error", "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, errorMessage(respBody))
	}

	return respBody, nil
}

// errorMessage extracts the API's error message, falling back to the raw
// body when it is not the usual error envelope.
func errorMessage(body []byte) string {
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
