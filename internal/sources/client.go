// Package sources contains the backend integrations that turn a free-text
// query into a candidate image. Every adapter issues one search call,
// evaluates candidates in backend order, and resolves the first acceptable
// title to a direct image URL in a second round-trip.
//
// Backend outages are routine here: a non-2xx status, a network failure, and
// an empty result list are all the same "no match" outcome. Nothing in this
// package returns a fatal error for a misbehaving backend.
package sources

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

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// defaultTimeout is the default HTTP timeout for backend calls
	defaultTimeout = 15 * time.Second

	// defaultRateLimit is the default rate limit (requests per second).
	// Encyclopedia APIs enforce fair-use policies; stay polite.
	defaultRateLimit = 5

	// userAgent identifies the service to MediaWiki-style APIs, which
	// require a descriptive agent string
	userAgent = "memoria/1.0 (timeline image resolution)"
)

// apiClient is the shared rate-limited HTTP plumbing for source adapters
type apiClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

func newAPIClient(rateLimit int, timeout time.Duration, logger arbor.ILogger) *apiClient {
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &apiClient{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		logger:     logger,
	}
}

// APIError represents a non-2xx response from a backend
type APIError struct {
	StatusCode int
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error: status %d (endpoint: %s)", e.StatusCode, e.Endpoint)
}

// getJSON performs a rate-limited GET and decodes the JSON response
func (c *apiClient) getJSON(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	body, err := c.getRaw(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// getRaw performs a rate-limited GET and returns the response body
func (c *apiClient) getRaw(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	reqURL := endpoint
	if len(params) > 0 {
		reqURL = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	if c.logger != nil {
		c.logger.Trace().
			Str("url", endpoint).
			Msg("Backend request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// buildSearchText assembles the text sent to a backend from the query, the
// optional year, and quoting preference
func buildSearchText(query string, year int, useQuotes, includeYear bool) string {
	text := strings.TrimSpace(query)
	if useQuotes {
		text = `"` + text + `"`
	}
	if includeYear && year > 0 {
		text = text + " " + strconv.Itoa(year)
	}
	return text
}
