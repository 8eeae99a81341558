package insight

import (
	"context"
	"fmt"
)

// Application security: apps, scans, and vulnerability search.

// Page is the common data-plus-metadata envelope the appsec API returns.
type Page struct {
	Data     []map[string]any `json:"data"`
	Metadata map[string]any   `json:"metadata,omitempty"`
}

// ListApps returns all scanned applications.
func (c *Client) ListApps(ctx context.Context) (*Page, error) {
	var out Page
	if err := c.getJSON(ctx, c.BaseURL(ProductAppsec)+"/apps", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetApp fetches one application by ID.
func (c *Client) GetApp(ctx context.Context, appID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductAppsec)+"/apps/"+appID, nil, &out)
	return out, err
}

// ListScans returns a page of scans. The API has no app filter, so appID
// narrows the page client-side.
func (c *Client) ListScans(ctx context.Context, appID string, index, size int) (*Page, error) {
	params := netValues{}
	if index > 0 {
		params["index"] = fmt.Sprintf("%d", index)
	}
	if size > 0 {
		params["size"] = fmt.Sprintf("%d", size)
	}
	var out Page
	if err := c.getJSON(ctx, c.BaseURL(ProductAppsec)+"/scans", params, &out); err != nil {
		return nil, err
	}
	if appID != "" {
		var filtered []map[string]any
		for _, scan := range out.Data {
			if app, ok := scan["app"].(map[string]any); ok && app["id"] == appID {
				filtered = append(filtered, scan)
			}
		}
		out.Data = filtered
	}
	return &out, nil
}

// GetScan fetches one scan by ID.
func (c *Client) GetScan(ctx context.Context, scanID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductAppsec)+"/scans/"+scanID, nil, &out)
	return out, err
}

// SearchVulnerabilities runs a vulnerability search query.
func (c *Client) SearchVulnerabilities(ctx context.Context, query string, size int, sort []map[string]any) (*Page, error) {
	if size <= 0 {
		size = 20
	}
	body := map[string]any{
		"type":  "VULNERABILITY",
		"query": query,
		"size":  size,
	}
	if sort != nil {
		body["sort"] = sort
	}
	var out Page
	if err := c.postJSON(ctx, c.BaseURL(ProductAppsec)+"/search", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScanVulnerabilities lists findings for one scan, worst first.
func (c *Client) ScanVulnerabilities(ctx context.Context, scanID string, size int) (*Page, error) {
	query := fmt.Sprintf("vulnerability.scans.id = '%s'", scanID)
	sort := []map[string]any{{"field": "vulnerability.severity", "order": "DESC"}}
	return c.SearchVulnerabilities(ctx, query, size, sort)
}
