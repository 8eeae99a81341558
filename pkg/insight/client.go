// Package insight is a thin client for the Rapid7 Insight platform REST
// and query APIs. Requests carry the x-api-key header and survive transient
// rate limiting with exponential backoff.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/joshhighet/r7/pkg/cache"
)

// UserAgent identifies the CLI on every outbound request.
const UserAgent = "github.com/joshhighet/r7/1.0"

const maxAttempts = 5

var (
	// ErrAuth covers 401 and 403 responses. Never retried.
	ErrAuth = errors.New("authentication failed")
	// ErrRateLimited means 429 persisted through every backoff attempt.
	ErrRateLimited = errors.New("rate limit exceeded after maximum retries")
)

// APIError is a non-auth HTTP failure with the parsed server message.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api request failed: %d - %s", e.StatusCode, e.Message)
	}
	if e.Body != "" {
		return fmt.Sprintf("api request failed: %d - %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("api request failed: %d", e.StatusCode)
}

// Product names a platform API family with its own base URL.
type Product string

const (
	ProductLogSearch  Product = "idr"
	ProductLogQuery   Product = "idr_query"
	ProductIDRHealth  Product = "idr_health"
	ProductASM        Product = "asm"
	ProductASMApps    Product = "asm_apps"
	ProductASMProfile Product = "asm_profile"
	ProductAccount    Product = "account"
	ProductAppsec     Product = "appsec"
	ProductUsage      Product = "usage"
	ProductConnect    Product = "ic"
	ProductVMExport   Product = "vm_export"
	ProductAgents     Product = "agents"
)

// ClientConfig carries what the client needs to reach the platform.
type ClientConfig struct {
	APIKey  string
	Region  string
	Timeout time.Duration
	// Cache is optional. When set, cached helpers consult it first.
	Cache    *cache.Store
	NoCache  bool
	Progress func(msg string)
}

// Client talks to the Insight platform APIs for one region.
type Client struct {
	apiKey     string
	region     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Store
	noCache    bool
	progress   func(string)
}

// NewClient validates the key and builds a client.
func NewClient(cfg ClientConfig) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrAuth)
	}
	if len(key) < 10 {
		return nil, fmt.Errorf("%w: api key appears to be invalid (too short)", ErrAuth)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	progress := cfg.Progress
	if progress == nil {
		progress = func(string) {}
	}
	return &Client{
		apiKey:     key,
		region:     cfg.Region,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		// Platform APIs throttle around 10 rps per key.
		limiter:  rate.NewLimiter(rate.Limit(10), 10),
		cache:    cfg.Cache,
		noCache:  cfg.NoCache,
		progress: progress,
	}, nil
}

// Region returns the configured platform region.
func (c *Client) Region() string { return c.region }

// BaseURL returns the endpoint root for a product in the client's region.
func (c *Client) BaseURL(p Product) string {
	switch p {
	case ProductLogSearch:
		return fmt.Sprintf("https://%s.api.insight.rapid7.com/log_search", c.region)
	case ProductLogQuery:
		return fmt.Sprintf("https://%s.rest.logs.insight.rapid7.com", c.region)
	case ProductIDRHealth:
		return fmt.Sprintf("https://%s.api.insight.rapid7.com/idr/v1", c.region)
	case ProductASM:
		return fmt.Sprintf("https://%s.api.insight.rapid7.com/surface/graph-api/objects/table", c.region)
	case ProductASMApps:
		return fmt.Sprintf("https://%s.api.insight.rapid7.com/surface/apps-api", c.region)
	case ProductASMProfile:
		return fmt.Sprintf("https://%s.api.insight.rapid7.com/surface/auth-api/profile", c.region)
	case ProductAccount:
		return fmt.Sprintf("https://%s.api.insight.rapid7.com/account/api/1", c.region)
	case ProductAppsec:
		return fmt.Sprintf("https://%s.api.insight.rapid7.com/ias/v1", c.region)
	case ProductUsage:
		return fmt.Sprintf("https://%s.rest.logs.insight.rapid7.com/usage", c.region)
	case ProductConnect:
		return fmt.Sprintf("https://%s.api.insight.rapid7.com/connect", c.region)
	case ProductVMExport:
		return fmt.Sprintf("https://%s.api.insight.rapid7.com/export/graphql", c.region)
	case ProductAgents:
		return fmt.Sprintf("https://%s.api.insight.rapid7.com/graphql", c.region)
	}
	return ""
}

// Do issues a request with retries. Auth failures abort immediately, 429
// backs off exponentially, other network errors retry with the same curve.
// Responses with status >= 400 become an APIError with the server's
// "message" field when the body is JSON.
func (c *Client) Do(ctx context.Context, method, rawURL string, body any, params url.Values) (int, []byte, error) {
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}

		var reqBody io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return 0, nil, fmt.Errorf("encode request body: %w", err)
			}
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, nil, ctx.Err()
			}
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("request failed, retrying")
			if !sleepCtx(ctx, backoff(attempt)) {
				return 0, nil, ctx.Err()
			}
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		log.Debug().Str("method", method).Str("url", rawURL).Int("status", resp.StatusCode).Msg("request")

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return resp.StatusCode, respBody, fmt.Errorf("%w: invalid api key or insufficient permissions", ErrAuth)
		case resp.StatusCode == http.StatusForbidden:
			return resp.StatusCode, respBody, fmt.Errorf("%w: access forbidden, check api key permissions", ErrAuth)
		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt < maxAttempts-1 {
				wait := backoff(attempt)
				log.Warn().Dur("wait", wait).Msg("rate limited, backing off")
				if !sleepCtx(ctx, wait) {
					return 0, nil, ctx.Err()
				}
				continue
			}
			return resp.StatusCode, respBody, ErrRateLimited
		case resp.StatusCode >= 400:
			return resp.StatusCode, respBody, newAPIError(resp.StatusCode, method, rawURL, respBody)
		}
		return resp.StatusCode, respBody, nil
	}
	return 0, nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func newAPIError(status int, method, url string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Method: method, URL: url, Body: string(body)}
	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		apiErr.Message = parsed.Message
	}
	return apiErr
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// getJSON fetches a URL and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, url string, params netValues, out any) error {
	_, body, err := c.Do(ctx, http.MethodGet, url, nil, url2Values(params))
	if err != nil {
		return err
	}
	return decode(body, out)
}

// postJSON posts a body and decodes the response into out. A nil out
// discards the response.
func (c *Client) postJSON(ctx context.Context, url string, reqBody any, out any) error {
	_, body, err := c.Do(ctx, http.MethodPost, url, reqBody, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(body, out)
}

func decode(body []byte, out any) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// netValues is a convenience alias so call sites can pass literal maps.
type netValues map[string]string

func url2Values(m netValues) url.Values {
	if len(m) == 0 {
		return nil
	}
	v := url.Values{}
	for k, val := range m {
		v.Set(k, val)
	}
	return v
}

// cachedGetJSON consults the response cache before fetching, and stores
// fresh bodies on success.
func (c *Client) cachedGetJSON(ctx context.Context, namespace, url string, params netValues, out any) error {
	if c.cache == nil || c.noCache {
		return c.getJSON(ctx, url, params, out)
	}
	keyParams := map[string]any{"url": url}
	for k, v := range params {
		keyParams[k] = v
	}
	key := cache.Key(namespace, keyParams)
	if body, err := c.cache.Get(key); err == nil {
		c.progress("using cached result")
		return decode(body, out)
	}

	_, body, err := c.Do(ctx, http.MethodGet, url, nil, url2Values(params))
	if err != nil {
		return err
	}
	if err := c.cache.Set(key, namespace, body); err != nil {
		log.Debug().Err(err).Msg("failed to cache response")
	}
	return decode(body, out)
}

// Validate confirms the key can reach the platform by listing logs.
func (c *Client) Validate(ctx context.Context) error {
	var out struct {
		Logs []json.RawMessage `json:"logs"`
	}
	if err := c.getJSON(ctx, c.BaseURL(ProductLogSearch)+"/management/logs", nil, &out); err != nil {
		return err
	}
	return nil
}
