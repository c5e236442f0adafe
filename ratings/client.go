// Package ratings fetches community rating summaries from Open Library.
// Coverage there is spotty, so every lookup is best-effort: a miss or a
// failure is a nil result, cached so the same ISBN is never retried within
// a session.
package ratings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bookmarkedapp/bookmarked-engine/internal/errors"
	"github.com/bookmarkedapp/bookmarked-engine/internal/join"
)

const (
	defaultBaseURL = "https://openlibrary.org"
	defaultTimeout = 5 * time.Second
	defaultRPS     = 5.0
	defaultBurst   = 5

	// batchLimit bounds concurrent lookups in GetBatch.
	batchLimit = 5

	// maxCacheEntries bounds the per-session cache. The cache resets when
	// full; sessions rarely get anywhere near this.
	maxCacheEntries = 1024
)

// Ratings is a community rating summary for one work.
type Ratings struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Config holds ratings client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RPS limits outbound requests per second (default 5).
	RPS float64
}

// Client looks up work ratings by ISBN with a per-session cache. Negative
// results are cached too, so unknown ISBNs cost one round trip total.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	baseURL string
	logger  *slog.Logger

	mu       sync.Mutex
	cache    map[string]*Ratings // nil value = known miss
	inflight map[string]chan struct{}
}

// New creates a ratings client.
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
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RPS), defaultBurst),
		baseURL:  cfg.BaseURL,
		logger:   logger,
		cache:    make(map[string]*Ratings),
		inflight: make(map[string]chan struct{}),
	}
}

// Get returns the rating summary for an ISBN, or nil if Open Library has no
// ratings for it or the lookup fails. Concurrent calls for the same ISBN
// share one fetch.
func (c *Client) Get(ctx context.Context, isbn string) *Ratings {
	if isbn == "" {
		return nil
	}

	for {
		c.mu.Lock()
		if r, ok := c.cache[isbn]; ok {
			c.mu.Unlock()
			return r
		}
		if done, ok := c.inflight[isbn]; ok {
			c.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return nil
			}
		}
		done := make(chan struct{})
		c.inflight[isbn] = done
		c.mu.Unlock()

		r := c.fetch(ctx, isbn)

		c.mu.Lock()
		if len(c.cache) >= maxCacheEntries {
			c.cache = make(map[string]*Ratings)
		}
		c.cache[isbn] = r
		delete(c.inflight, isbn)
		c.mu.Unlock()
		close(done)
		return r
	}
}

// GetBatch resolves many ISBNs with bounded concurrency. Empty ISBNs are
// skipped; every non-empty input gets an entry in the result, nil on miss.
func (c *Client) GetBatch(ctx context.Context, isbns []string) map[string]*Ratings {
	var distinct []string
	seen := make(map[string]bool)
	for _, isbn := range isbns {
		if isbn == "" || seen[isbn] {
			continue
		}
		seen[isbn] = true
		distinct = append(distinct, isbn)
	}

	results := join.Map(ctx, batchLimit, distinct, func(ctx context.Context, isbn string) (*Ratings, error) {
		return c.Get(ctx, isbn), nil
	})

	out := make(map[string]*Ratings, len(distinct))
	for i, isbn := range distinct {
		out[isbn] = results[i].Value
	}
	return out
}

type editionResponse struct {
	Works []struct {
		Key string `json:"key"`
	} `json:"works"`
}

type ratingsResponse struct {
	Summary struct {
		Average float64 `json:"average"`
		Count   int     `json:"count"`
	} `json:"summary"`
}

// fetch walks edition -> work -> ratings. Any hole in the chain is a miss.
func (c *Client) fetch(ctx context.Context, isbn string) *Ratings {
	var edition editionResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn), &edition); err != nil {
		c.logger.Debug("edition lookup failed", "isbn", isbn, "error", err)
		return nil
	}
	if len(edition.Works) == 0 || edition.Works[0].Key == "" {
		return nil
	}

	var resp ratingsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s/ratings.json", c.baseURL, edition.Works[0].Key), &resp); err != nil {
		c.logger.Debug("ratings lookup failed", "isbn", isbn, "error", err)
		return nil
	}
	if resp.Summary.Count == 0 {
		return nil
	}
	return &Ratings{Average: resp.Summary.Average, Count: resp.Summary.Count}
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Bookmarked/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Transport("execute request").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Transportf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Transport("read response").WithCause(err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, errors.CodeParse, "parse response")
	}
	return nil
}
