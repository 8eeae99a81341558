package insight

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/joshhighet/r7/pkg/cache"
	"github.com/joshhighet/r7/pkg/query"
)

// Surface command attack surface management: the openCypher graph API,
// connector apps, and the account profile.

// CypherRequest carries one graph query with its table parameters,
// mirroring what the product UI sends.
type CypherRequest struct {
	Cypher     string
	Columns    []query.Column
	Start      int
	Length     int
	Depth      int
	Order      bool
	UsePrimary bool
}

// CypherResult is the tabular graph query response.
type CypherResult struct {
	Items []CypherItem   `json:"items"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// CypherItem is one result row. Data is a list of cells matching the
// projected columns.
type CypherItem struct {
	Data []any `json:"data"`
}

// CypherQuery executes an openCypher query against the asset graph.
// Results are cached keyed on every parameter that shapes them.
func (c *Client) CypherQuery(ctx context.Context, req CypherRequest) (*CypherResult, error) {
	if req.Length <= 0 {
		req.Length = 100
	}
	cols := req.Columns
	if cols == nil {
		cols = []query.Column{}
	}
	endpoint := fmt.Sprintf("%s?start=%d&length=%d&depth=%d&order=%t&use_primary=%t&format=json",
		c.BaseURL(ProductASM), req.Start, req.Length, req.Depth, req.Order, req.UsePrimary)
	body := map[string]any{"columns": cols, "cypher": req.Cypher}

	ns := "cypher_query"
	var key string
	if c.cache != nil && !c.noCache {
		key = cache.Key(ns, map[string]any{
			"cypher":  req.Cypher,
			"columns": cols,
			"start":   req.Start,
			"length":  req.Length,
			"depth":   req.Depth,
			"order":   req.Order,
			"primary": req.UsePrimary,
		})
		if cached, err := c.cache.Get(key); err == nil {
			c.progress("using cached result")
			var out CypherResult
			if err := decode(cached, &out); err == nil {
				return &out, nil
			}
		}
	}

	c.progress("executing cypher query...")
	status, respBody, err := c.Do(ctx, http.MethodPost, endpoint, body, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status, Method: http.MethodPost, URL: endpoint, Body: string(respBody)}
	}
	var out CypherResult
	if err := decode(respBody, &out); err != nil {
		return nil, err
	}
	if key != "" {
		if err := c.cache.Set(key, ns, respBody); err != nil {
			log.Debug().Err(err).Msg("failed to cache cypher result")
		}
	}
	return &out, nil
}

// ListSurfaceApps returns the configured surface command connector apps.
func (c *Client) ListSurfaceApps(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductASMApps)+"/apps", nil, &out)
	return out, err
}

// SurfaceProfile returns the authenticated surface command profile.
func (c *Client) SurfaceProfile(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductASMProfile), nil, &out)
	return out, err
}
