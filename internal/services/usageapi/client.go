// Package usageapi fetches usage analytics from the remote API.
package usageapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"

	"github.com/j-veylop/usage-analytics-tui/internal/logger"
	"github.com/j-veylop/usage-analytics-tui/internal/models"
)

const endpointPath = "/usage-analytics"

// ErrUnauthorized is returned when the API rejects the credentials.
var ErrUnauthorized = errors.New("unauthorized: check USAGE_API_TOKEN")

// StatusError is a non-2xx response.
type StatusError struct {
	Body string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("usage request failed (status %d): %s", e.Code, e.Body)
}

// Temporary reports whether the request may succeed if repeated.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// Config holds configuration for the client.
type Config struct {
	BaseURL    string
	Token      string
	TenantID   string
	Timeout    time.Duration
	RetryDelay time.Duration
	CacheTTL   time.Duration
	Attempts   uint
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    30 * time.Second,
		RetryDelay: 500 * time.Millisecond,
		CacheTTL:   time.Minute,
		Attempts:   3,
	}
}

// Client fetches usage analytics over HTTP with retries and a short-lived
// response cache.
type Client struct {
	httpClient *http.Client
	cache      *otter.Cache[string, *models.UsageAnalytics]
	config     Config
}

// New creates a client. A zero CacheTTL disables caching.
func New(config Config) *Client {
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Attempts == 0 {
		config.Attempts = defaults.Attempts
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaults.RetryDelay
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	c := &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
	if config.CacheTTL > 0 {
		c.cache = otter.Must(&otter.Options[string, *models.UsageAnalytics]{
			MaximumSize:      256,
			ExpiryCalculator: otter.ExpiryWriting[string, *models.UsageAnalytics](config.CacheTTL),
		})
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Fetch returns analytics for params. requestID is sent as X-Request-ID.
// Responses are shared through the cache and must not be modified.
func (c *Client) Fetch(ctx context.Context, params url.Values, requestID string) (*models.UsageAnalytics, error) {
	key := params.Encode()
	if c.cache != nil {
		if cached, ok := c.cache.GetIfPresent(key); ok {
			logger.Debug("usage cache hit", "params", key)
			return cached, nil
		}
	}

	var result *models.UsageAnalytics
	err := retry.Do(
		func() error {
			resp, err := c.fetchOnce(ctx, params, requestID)
			if err != nil {
				var statusErr *StatusError
				if errors.Is(err, ErrUnauthorized) || (errors.As(err, &statusErr) && !statusErr.Temporary()) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = resp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.config.Attempts),
		retry.Delay(c.config.RetryDelay),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Retrying usage request",
				"attempt", n+1,
				"request_id", requestID,
				"error", err,
			)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch usage analytics: %w", err)
	}

	if c.cache != nil {
		c.cache.Set(key, result)
	}
	return result, nil
}

// Invalidate drops every cached response.
func (c *Client) Invalidate() {
	if c.cache != nil {
		c.cache.InvalidateAll()
	}
}

func (c *Client) fetchOnce(ctx context.Context, params url.Values, requestID string) (*models.UsageAnalytics, error) {
	endpoint := c.config.BaseURL + endpointPath
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create usage request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	if c.config.TenantID != "" {
		req.Header.Set("X-Tenant-ID", c.config.TenantID)
	}
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usage request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var analytics models.UsageAnalytics
	if err := json.Unmarshal(body, &analytics); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to parse usage response: %w", err))
	}
	return &analytics, nil
}
