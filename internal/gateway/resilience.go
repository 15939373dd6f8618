// Retry and circuit-breaker support for the gateway client. Transient
// gateway failures are retried with exponential backoff; a run of failures
// opens the breaker so a dead gateway does not pile up goroutines waiting
// on timeouts.
package gateway

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"
)

// RetryConfig configures retry behavior for gateway calls.
type RetryConfig struct {
	MaxRetries           int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	BackoffMultiplier    float64
	Jitter               float64
	RetryableStatusCodes []int
}

// DefaultRetryConfig returns the retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// =============================================================================
// Circuit Breaker
// =============================================================================

// CircuitState is the state of the circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the breaker.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration
}

// DefaultCircuitBreakerConfig returns the breaker defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// ErrCircuitOpen is returned while the breaker refuses requests.
var ErrCircuitOpen = errors.New("gateway circuit breaker is open")

// CircuitBreaker tracks consecutive gateway failures.
type CircuitBreaker struct {
	mu     sync.Mutex
	config CircuitBreakerConfig
	state  CircuitState

	failures  int
	successes int
	openedAt  time.Time
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{config: config, state: CircuitClosed}
}

// Allow reports whether a request may proceed.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen {
		if time.Since(cb.openedAt) > cb.config.Timeout {
			cb.state = CircuitHalfOpen
			cb.successes = 0
			return nil
		}
		return ErrCircuitOpen
	}
	return nil
}

// RecordSuccess records a successful round trip.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failures = 0
	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = CircuitClosed
			cb.failures = 0
		}
	}
}

// RecordFailure records a failed round trip.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.state = CircuitOpen
			cb.openedAt = time.Now()
		}
	case CircuitHalfOpen:
		cb.state = CircuitOpen
		cb.openedAt = time.Now()
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// =============================================================================
// Resilient Client
// =============================================================================

// ResilientClient retries transient failures and trips the breaker.
type ResilientClient struct {
	base        *http.Client
	retryConfig RetryConfig
	breaker     *CircuitBreaker
}

// ResilientClientConfig configures a ResilientClient.
type ResilientClientConfig struct {
	BaseClient     *http.Client
	RetryConfig    RetryConfig
	CircuitBreaker CircuitBreakerConfig
}

// NewResilientClient creates a resilient HTTP client.
func NewResilientClient(cfg ResilientClientConfig) *ResilientClient {
	base := cfg.BaseClient
	if base == nil {
		base = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &ResilientClient{
		base:        base,
		retryConfig: cfg.RetryConfig,
		breaker:     NewCircuitBreaker(cfg.CircuitBreaker),
	}
}

// Do executes the request, retrying transient failures.
func (rc *ResilientClient) Do(req *http.Request) (*http.Response, error) {
	if err := rc.breaker.Allow(); err != nil {
		return nil, err
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= rc.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(rc.backoff(attempt)):
			}
			if err := rewindBody(req); err != nil {
				break
			}
		}

		resp, lastErr = rc.base.Do(req)
		if lastErr != nil {
			if isRetryableError(lastErr) {
				continue
			}
			rc.breaker.RecordFailure()
			return nil, lastErr
		}

		if rc.isRetryableStatus(resp.StatusCode) {
			lastErr = &StatusError{StatusCode: resp.StatusCode}
			resp.Body.Close()
			continue
		}

		rc.breaker.RecordSuccess()
		return resp, nil
	}

	rc.breaker.RecordFailure()
	return nil, lastErr
}

// CircuitState returns the breaker state.
func (rc *ResilientClient) CircuitState() CircuitState {
	return rc.breaker.State()
}

func (rc *ResilientClient) backoff(attempt int) time.Duration {
	backoff := float64(rc.retryConfig.InitialBackoff) *
		math.Pow(rc.retryConfig.BackoffMultiplier, float64(attempt-1))
	if max := float64(rc.retryConfig.MaxBackoff); backoff > max {
		backoff = max
	}
	if rc.retryConfig.Jitter > 0 {
		backoff += backoff * rc.retryConfig.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(backoff)
}

func (rc *ResilientClient) isRetryableStatus(code int) bool {
	for _, retryable := range rc.retryConfig.RetryableStatusCodes {
		if code == retryable {
			return true
		}
	}
	return false
}

func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func rewindBody(req *http.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return err
	}
	req.Body = body
	return nil
}

// StatusError reports a retryable HTTP status exhausting its retries.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return http.StatusText(e.StatusCode)
}

// resilientTransport adapts ResilientClient to http.RoundTripper so it can
// sit under a plain *http.Client.
type resilientTransport struct {
	client *ResilientClient
}

func (rt *resilientTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt.client.Do(req)
}
