package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/joshhighet/r7/pkg/cache"
)

// DocsClient searches the public documentation site through its Algolia
// index. No platform credentials required, the key below is search-only.
type DocsClient struct {
	appID      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *cache.Store
	noCache    bool
}

const (
	algoliaAppID     = "OXR3NR3FZ2"
	algoliaSearchKey = "352cb86bcf2803b74604f5e7ffb63169"
	algoliaIndex     = "production_contentstack"
)

// NewDocsClient builds a docs search client. cacheStore may be nil.
func NewDocsClient(cacheStore *cache.Store, noCache bool) *DocsClient {
	return &DocsClient{
		appID:      algoliaAppID,
		apiKey:     algoliaSearchKey,
		baseURL:    fmt.Sprintf("https://%s-dsn.algolia.net/1/indexes/*/queries", strings.ToLower(algoliaAppID)),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cacheStore,
		noCache:    noCache,
	}
}

// DocResult is one documentation hit.
type DocResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Product     string `json:"product"`
	Description string `json:"description"`
}

// Search queries the docs index and returns up to limit hits.
func (d *DocsClient) Search(ctx context.Context, queryText string, limit int) ([]DocResult, error) {
	if limit <= 0 {
		limit = 15
	}
	ns := "docs_search"
	var key string
	if d.cache != nil && !d.noCache {
		key = cache.Key(ns, map[string]any{"query": strings.ToLower(queryText), "limit": limit})
		if body, err := d.cache.Get(key); err == nil {
			var results []DocResult
			if json.Unmarshal(body, &results) == nil {
				return results, nil
			}
		}
	}

	params := fmt.Sprintf(`attributesToSnippet=["description"]&facets=["productName"]&filters=_content_type: 'docs'&highlightPostTag=__/ais-highlight__&highlightPreTag=__ais-highlight__&maxValuesPerFacet=30&page=0&query=%s&hitsPerPage=%d`,
		queryText, limit)
	reqBody, err := json.Marshal(map[string]any{
		"requests": []map[string]any{{
			"indexName": algoliaIndex,
			"params":    params,
		}},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "https://docs.rapid7.com")
	req.Header.Set("Referer", "https://docs.rapid7.com/")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("x-algolia-agent", "Algolia for JavaScript (4.25.2); Browser (lite); instantsearch.js (4.79.1)")
	req.Header.Set("x-algolia-api-key", d.apiKey)
	req.Header.Set("x-algolia-application-id", d.appID)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docs search request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Method: http.MethodPost, URL: d.baseURL, Body: string(body)}
	}

	var envelope struct {
		Results []struct {
			Hits []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				ProductName string `json:"productName"`
				Description string `json:"description"`
			} `json:"hits"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode docs response: %w", err)
	}

	var results []DocResult
	if len(envelope.Results) > 0 {
		for _, hit := range envelope.Results[0].Hits {
			result := DocResult{
				Title:       orDefault(hit.Title, "Unknown"),
				URL:         docURL(hit.URL),
				Product:     orDefault(hit.ProductName, "General"),
				Description: snippet(hit.Description, 200),
			}
			results = append(results, result)
		}
	}

	if key != "" {
		if data, err := json.Marshal(results); err == nil {
			if err := d.cache.Set(key, ns, data); err != nil {
				log.Debug().Err(err).Msg("failed to cache docs results")
			}
		}
	}
	return results, nil
}

func docURL(raw string) string {
	if raw == "" || strings.HasPrefix(raw, "http") {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return "https://docs.rapid7.com" + raw
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
