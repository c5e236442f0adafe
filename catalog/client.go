// Package catalog provides the book catalog lookup client.
//
// Search fans out multiple query strategies against the Google Books volumes
// API, merges and re-ranks the results, and never surfaces a transport failure
// to the caller: a broken catalog reads as an empty result set, observable
// through LastError and the log.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://www.googleapis.com/books/v1"
	defaultTimeout = 5 * time.Second
	defaultRPS     = 5.0
	defaultBurst   = 5

	// maxResults caps every sub-search and the merged result set.
	maxResults = 20
)

// Config holds catalog client configuration.
type Config struct {
	// APIKey is optional; unauthenticated requests work with lower quotas.
	APIKey string
	// BaseURL overrides the volumes endpoint (tests point this at a local server).
	BaseURL string
	// Timeout bounds each request (default 5s). Timeouts are soft failures.
	Timeout time.Duration
	// RPS limits outbound requests per second (default 5).
	RPS float64
}

// Client is a rate-limited Google Books API client with a circuit breaker.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
	baseURL string
	apiKey  string

	mu      sync.Mutex
	lastErr error
}

// New creates a new catalog client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "catalog",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("catalog breaker state change",
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), defaultBurst),
		breaker: breaker,
		logger:  logger,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// LastError returns the most recent whole-pipeline failure, if any. Search
// soft-fails to an empty result set; this is the side-channel that makes the
// failure observable to the embedding application.
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// recordError stores err as the last pipeline failure.
func (c *Client) recordError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

// clearError resets the side-channel after a successful pipeline.
func (c *Client) clearError() {
	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()
}

// doRequest executes a rate-limited GET against the volumes endpoint.
// The circuit breaker sits around the transport: a run of consecutive
// failures makes further calls fail fast until the catalog recovers.
func (c *Client) doRequest(ctx context.Context, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	reqURL := c.baseURL + "/volumes?" + query.Encode()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, reqURL)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, ErrUnavailable
	}
	return body, err
}

// roundTrip performs one HTTP request and maps status codes to sentinel errors.
func (c *Client) roundTrip(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Bookmarked/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// volumesQuery builds the standard query parameters for a volumes request.
func volumesQuery(q string, limit int, orderByRelevance bool) url.Values {
	params := url.Values{}
	params.Set("q", q)
	params.Set("maxResults", strconv.Itoa(limit))
	if orderByRelevance {
		params.Set("orderBy", "relevance")
	}
	return params
}
