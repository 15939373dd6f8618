// Package gateway provides the HTTP client for the external API gateway.
// Every persistent fact the portal shows (orders, items, message types,
// comments, users) lives behind this gateway; the portal stores nothing.
//
// The gateway speaks a fixed envelope: any 2xx response with a parseable
// body is a success, anything else is an error whose body may carry a
// "message" field worth surfacing to the user.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/compranal/supplier_portal/internal/errors"
	"github.com/compranal/supplier_portal/internal/httputil"
	"github.com/compranal/supplier_portal/internal/logging"
	"github.com/compranal/supplier_portal/internal/metrics"
)

const maxResponseBytes = 8 << 20

// Client is the external API gateway client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// Config configures the gateway client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// MaxRetries bounds retries for transient failures; 0 uses the default.
	MaxRetries int
	HTTPClient *http.Client
	Logger     *logging.Logger
	Metrics    *metrics.Metrics
}

// New creates a gateway client with retry and circuit-breaker protection.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		retryCfg := DefaultRetryConfig()
		if cfg.MaxRetries > 0 {
			retryCfg.MaxRetries = cfg.MaxRetries
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &resilientTransport{
				client: NewResilientClient(ResilientClientConfig{
					RetryConfig:    retryCfg,
					CircuitBreaker: DefaultCircuitBreakerConfig(),
				}),
			},
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDefault("gateway")
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		metrics:    cfg.Metrics,
	}, nil
}

// Get performs a GET against the gateway and decodes the body into target.
func (c *Client) Get(ctx context.Context, operation, path string, target interface{}) error {
	return c.do(ctx, operation, http.MethodGet, path, nil, "", target)
}

// GetWithBearer performs a GET carrying a bearer token, used by the
// internally authenticated admin and NPO flows. The token-scoped supplier
// flow never sends one.
func (c *Client) GetWithBearer(ctx context.Context, operation, path, bearer string, target interface{}) error {
	return c.do(ctx, operation, http.MethodGet, path, nil, bearer, target)
}

// Post performs a POST with a JSON body and decodes the response into target.
func (c *Client) Post(ctx context.Context, operation, path string, body, target interface{}) error {
	return c.do(ctx, operation, http.MethodPost, path, body, "", target)
}

// PostWithBearer performs an authenticated POST.
func (c *Client) PostWithBearer(ctx context.Context, operation, path string, body interface{}, bearer string, target interface{}) error {
	return c.do(ctx, operation, http.MethodPost, path, body, bearer, target)
}

// PatchWithBearer performs an authenticated PATCH.
func (c *Client) PatchWithBearer(ctx context.Context, operation, path string, body interface{}, bearer string, target interface{}) error {
	return c.do(ctx, operation, http.MethodPatch, path, body, bearer, target)
}

func (c *Client) do(ctx context.Context, operation, method, path string, body interface{}, bearer string, target interface{}) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, path, body, bearer, target)
	if c.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.RecordUpstreamRequest(operation, outcome, time.Since(start))
	}
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).
			WithField("operation", operation).
			Warn("gateway request failed")
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body interface{}, bearer string, target interface{}) error {
	var bodyReader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Internal(fmt.Errorf("marshal request body: %w", err))
		}
		bodyReader = bytes.NewReader(payload)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return errors.Internal(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.UpstreamFailed(err, "")
	}
	defer resp.Body.Close()

	raw, err := httputil.ReadAllStrict(resp.Body, maxResponseBytes)
	if err != nil {
		return errors.UpstreamFailed(err, "")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.UpstreamFailed(
			fmt.Errorf("gateway status %d", resp.StatusCode),
			ErrorMessage(raw),
		)
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return errors.UpstreamFailed(fmt.Errorf("decode response: %w", err), "")
	}
	return nil
}

// ErrorMessage pulls a displayable message out of an arbitrary gateway error
// body without committing to its schema. Falls back to a generic string, so
// the user never sees raw JSON.
func ErrorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return "Internal Server Error"
}
