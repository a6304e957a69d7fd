package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hivemesh/swarmd/ratelimit"
)

// HTTPConfig holds configuration for the HTTP marketplace client.
type HTTPConfig struct {
	// BaseURL of the marketplace API. Required.
	BaseURL string

	// APIKey sent as a bearer token, if set.
	APIKey string

	// Timeout for each browse request.
	// Default: 30s
	Timeout time.Duration

	// Limiter, if set, gates browse requests against the shared
	// marketplace budget. A 429 reply announces a capacity cut.
	Limiter ratelimit.RateLimiter
}

// HTTPBrowser fetches candidates over HTTP.
type HTTPBrowser struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter ratelimit.RateLimiter
}

// NewHTTPBrowser creates an HTTP marketplace client.
func NewHTTPBrowser(cfg HTTPConfig) (*HTTPBrowser, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPBrowser{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: cfg.Limiter,
	}, nil
}

// browseResponse is the subset of the marketplace reply we consume.
type browseResponse struct {
	Tasks []Candidate `json:"tasks"`
}

// Browse fetches open candidates, newest first as served by the API.
func (b *HTTPBrowser) Browse(ctx context.Context, limit int) ([]Candidate, error) {
	if b.limiter != nil {
		if err := b.limiter.Acquire(ctx, ratelimit.ResourceMarketplace); err != nil {
			return nil, fmt.Errorf("%w: browse budget: %v", ErrUnavailable, err)
		}
		defer b.limiter.Release(ratelimit.ResourceMarketplace)
	}

	q := url.Values{}
	q.Set("status", "open")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/tasks?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests && b.limiter != nil {
		b.limiter.AnnounceReduced(ratelimit.ResourceMarketplace, "marketplace returned 429")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(body, 200))
	}

	var parsed browseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candidates := parsed.Tasks
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
