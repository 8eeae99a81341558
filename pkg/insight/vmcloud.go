package insight

import (
	"context"
	"fmt"
	"net/http"
)

// InsightVM cloud integration API v4: assets, sites, scans, engines, and
// vulnerability search with cursor pagination.

func (c *Client) vmCloudURL(path string) string {
	return fmt.Sprintf("https://%s.api.insight.rapid7.com/vm/v4/integration%s", c.region, path)
}

// VMSearchOptions shape the POST search endpoints. Cursor pagination is
// preferred over page numbers where available.
type VMSearchOptions struct {
	Cursor           string
	CurrentTime      string
	ComparisonTime   string
	Size             int
	AssetIDs         []string
	SiteIDs          []string
	VulnerabilityIDs []string
	VulnFilters      []string
}

func (o VMSearchOptions) params() netValues {
	p := netValues{}
	if o.Cursor != "" {
		p["cursor"] = o.Cursor
	}
	if o.CurrentTime != "" {
		p["currentTime"] = o.CurrentTime
	}
	if o.ComparisonTime != "" {
		p["comparisonTime"] = o.ComparisonTime
	}
	if o.Size > 0 {
		p["size"] = fmt.Sprintf("%d", o.Size)
	}
	return p
}

func (o VMSearchOptions) body(includeVulnIDs bool) map[string]any {
	body := map[string]any{}
	if len(o.AssetIDs) > 0 {
		body["assetIds"] = o.AssetIDs
	}
	if len(o.SiteIDs) > 0 {
		body["siteIds"] = o.SiteIDs
	}
	if includeVulnIDs && len(o.VulnerabilityIDs) > 0 {
		body["vulnerabilityIds"] = o.VulnerabilityIDs
	}
	if !includeVulnIDs && len(o.VulnFilters) > 0 {
		body["vulnerabilityFilters"] = o.VulnFilters
	}
	return body
}

func (c *Client) vmPost(ctx context.Context, path string, body map[string]any, params netValues) (map[string]any, error) {
	endpoint := c.vmCloudURL(path)
	if v := url2Values(params); v != nil {
		endpoint += "?" + v.Encode()
	}
	var out map[string]any
	err := c.postJSON(ctx, endpoint, body, &out)
	return out, err
}

// SearchVMAssets searches assets with optional filters.
func (c *Client) SearchVMAssets(ctx context.Context, opts VMSearchOptions) (map[string]any, error) {
	return c.vmPost(ctx, "/assets", opts.body(false), opts.params())
}

// GetVMAsset fetches one asset by ID.
func (c *Client) GetVMAsset(ctx context.Context, assetID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.vmCloudURL("/assets/"+assetID), nil, &out)
	return out, err
}

// SearchVMVulnerabilities searches vulnerability findings.
func (c *Client) SearchVMVulnerabilities(ctx context.Context, opts VMSearchOptions) (map[string]any, error) {
	return c.vmPost(ctx, "/vulnerabilities", opts.body(true), opts.params())
}

// ListVMSites lists sites. The endpoint takes POST with an empty body.
func (c *Client) ListVMSites(ctx context.Context, cursor string, size int, includeDetails bool) (map[string]any, error) {
	params := netValues{}
	if cursor != "" {
		params["cursor"] = cursor
	}
	if size > 0 {
		params["size"] = fmt.Sprintf("%d", size)
	}
	if includeDetails {
		params["includeDetails"] = "true"
	}
	return c.vmPost(ctx, "/sites", map[string]any{}, params)
}

// ListVMScans lists cloud scans.
func (c *Client) ListVMScans(ctx context.Context, page, size int, includeDetails bool) (map[string]any, error) {
	params := netValues{
		"size": fmt.Sprintf("%d", size),
	}
	if page >= 0 {
		params["page"] = fmt.Sprintf("%d", page)
	}
	if includeDetails {
		params["includeDetails"] = "true"
	}
	var out map[string]any
	err := c.getJSON(ctx, c.vmCloudURL("/scan"), params, &out)
	return out, err
}

// StartVMScan kicks off a scan for a site.
func (c *Client) StartVMScan(ctx context.Context, siteID, name, templateID string) (map[string]any, error) {
	body := map[string]any{"siteId": siteID}
	if name != "" {
		body["name"] = name
	}
	if templateID != "" {
		body["scanTemplateId"] = templateID
	}
	return c.vmPost(ctx, "/scan", body, nil)
}

// GetVMScan fetches one cloud scan by ID.
func (c *Client) GetVMScan(ctx context.Context, scanID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.vmCloudURL("/scan/"+scanID), nil, &out)
	return out, err
}

// StopVMScan stops a running scan.
func (c *Client) StopVMScan(ctx context.Context, scanID string) (map[string]any, error) {
	return c.vmPost(ctx, "/scan/"+scanID+"/stop", map[string]any{}, nil)
}

// ListVMScanEngines lists scan engines.
func (c *Client) ListVMScanEngines(ctx context.Context, page, size int) (map[string]any, error) {
	params := netValues{"size": fmt.Sprintf("%d", size)}
	if page >= 0 {
		params["page"] = fmt.Sprintf("%d", page)
	}
	var out map[string]any
	err := c.getJSON(ctx, c.vmCloudURL("/scan/engine"), params, &out)
	return out, err
}

// GetVMScanEngine fetches one scan engine by ID.
func (c *Client) GetVMScanEngine(ctx context.Context, engineID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.vmCloudURL("/scan/engine/"+engineID), nil, &out)
	return out, err
}

// UpdateVMScanEngine replaces a scan engine configuration.
func (c *Client) UpdateVMScanEngine(ctx context.Context, engineID string, config map[string]any) (map[string]any, error) {
	return c.putOrPatch(ctx, http.MethodPut, c.vmCloudURL("/scan/engine/"+engineID+"/configuration"), config)
}

// RemoveVMScanEngine removes a scan engine configuration.
func (c *Client) RemoveVMScanEngine(ctx context.Context, engineID string) error {
	_, _, err := c.Do(ctx, http.MethodDelete, c.vmCloudURL("/scan/engine/"+engineID+"/configuration"), nil, nil)
	return err
}

// VMPageCursor pulls the pagination cursor out of a v4 response.
func VMPageCursor(resp map[string]any) string {
	meta, _ := resp["metadata"].(map[string]any)
	cursor, _ := meta["cursor"].(string)
	return cursor
}
