// Package vmconsole is a minimal client for the InsightVM/Nexpose console
// REST API v3, reached directly at https://host:3780/api/3.
package vmconsole

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrAuth covers console 401 and 403 responses.
var ErrAuth = errors.New("console authentication failed")

// APIError is a non-auth console failure.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("console api error: %d - %s", e.StatusCode, e.Body)
}

// Config selects console endpoint and credentials. Either an API token or
// a username/password pair is required.
type Config struct {
	BaseURL   string
	Username  string
	Password  string
	APIToken  string
	VerifySSL bool
	Timeout   time.Duration
}

// Client talks to one console deployment.
type Client struct {
	baseURL    string
	username   string
	password   string
	apiToken   string
	httpClient *http.Client
}

// NewClient validates credentials and builds a console client. On-prem
// consoles commonly run self-signed certificates, so VerifySSL false
// disables chain checks for this client only.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: console base url is required (e.g. https://host:3780/api/3)", ErrAuth)
	}
	if cfg.APIToken == "" && (cfg.Username == "" || cfg.Password == "") {
		return nil, fmt.Errorf("%w: provide either an api token or username and password", ErrAuth)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	transport := http.DefaultTransport
	if !cfg.VerifySSL {
		log.Debug().Msg("console tls verification disabled")
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		apiToken: cfg.APIToken,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}, nil
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) request(ctx context.Context, method, path string, body any, params url.Values) (int, []byte, error) {
	endpoint := c.url(path)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("X-Api-Key", c.apiToken)
	}
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("console request failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	log.Debug().Str("method", method).Str("url", endpoint).Int("status", resp.StatusCode).Msg("console request")

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return resp.StatusCode, respBody, fmt.Errorf("%w (401)", ErrAuth)
	case resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, respBody, fmt.Errorf("%w: access forbidden (403)", ErrAuth)
	case resp.StatusCode >= 400:
		return resp.StatusCode, respBody, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return resp.StatusCode, respBody, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	_, body, err := c.request(ctx, http.MethodGet, path, nil, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// writeResult decodes a write response, synthesizing a success envelope
// for 204 No Content.
func writeResult(status int, body []byte, message string) (map[string]any, error) {
	if status == http.StatusNoContent || len(body) == 0 {
		return map[string]any{"status": "success", "message": message}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return map[string]any{"status": "success", "message": message}, nil
	}
	return out, nil
}

func pageParams(page, size int) url.Values {
	return url.Values{
		"page": []string{fmt.Sprintf("%d", page)},
		"size": []string{fmt.Sprintf("%d", size)},
	}
}

// ListSites returns a page of console sites.
func (c *Client) ListSites(ctx context.Context, page, size int) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/sites", pageParams(page, size), &out)
	return out, err
}

// GetSite fetches one site by ID.
func (c *Client) GetSite(ctx context.Context, siteID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/sites/"+siteID, nil, &out)
	return out, err
}

// ListAssets returns a page of console assets.
func (c *Client) ListAssets(ctx context.Context, page, size int) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/assets", pageParams(page, size), &out)
	return out, err
}

// GetAsset fetches one asset by ID.
func (c *Client) GetAsset(ctx context.Context, assetID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/assets/"+assetID, nil, &out)
	return out, err
}

// ListSiteAssets returns assets in one site.
func (c *Client) ListSiteAssets(ctx context.Context, siteID string, page, size int) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/sites/"+siteID+"/assets", pageParams(page, size), &out)
	return out, err
}

// DeleteAsset removes an asset from the console.
func (c *Client) DeleteAsset(ctx context.Context, assetID string) (map[string]any, error) {
	status, body, err := c.request(ctx, http.MethodDelete, "/assets/"+assetID, nil, nil)
	if err != nil {
		return nil, err
	}
	return writeResult(status, body, fmt.Sprintf("asset %s deleted", assetID))
}

// ListScans returns scans, most recently finished first.
func (c *Client) ListScans(ctx context.Context, page, size int) (map[string]any, error) {
	params := pageParams(page, size)
	params.Set("sort", "endTime,desc")
	var out map[string]any
	err := c.getJSON(ctx, "/scans", params, &out)
	return out, err
}

// GetScan fetches one scan by ID.
func (c *Client) GetScan(ctx context.Context, scanID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/scans/"+scanID, nil, &out)
	return out, err
}

// ListSiteScans returns scans for one site.
func (c *Client) ListSiteScans(ctx context.Context, siteID string, page, size int) (map[string]any, error) {
	params := pageParams(page, size)
	params.Set("sort", "endTime,desc")
	var out map[string]any
	err := c.getJSON(ctx, "/sites/"+siteID+"/scans", params, &out)
	return out, err
}

// ScanOptions shape an adhoc site scan.
type ScanOptions struct {
	Name             string
	TemplateID       string
	EngineID         int
	Hosts            []string
	AssetGroupIDs    []int
	OverrideBlackout bool
}

// StartSiteScan kicks off a scan against a site.
func (c *Client) StartSiteScan(ctx context.Context, siteID string, opts ScanOptions) (map[string]any, error) {
	payload := map[string]any{}
	if opts.Name != "" {
		payload["name"] = opts.Name
	}
	if opts.TemplateID != "" {
		payload["templateId"] = opts.TemplateID
	}
	if opts.EngineID > 0 {
		payload["engineId"] = opts.EngineID
	}
	if len(opts.Hosts) > 0 {
		payload["hosts"] = opts.Hosts
	}
	if len(opts.AssetGroupIDs) > 0 {
		payload["assetGroupIds"] = opts.AssetGroupIDs
	}
	if opts.OverrideBlackout {
		payload["overrideBlackout"] = true
	}
	status, body, err := c.request(ctx, http.MethodPost, "/sites/"+siteID+"/scans", payload, nil)
	if err != nil {
		return nil, err
	}
	return writeResult(status, body, fmt.Sprintf("scan started for site %s", siteID))
}

// UpdateScanStatus applies stop, pause, or resume to a scan.
func (c *Client) UpdateScanStatus(ctx context.Context, scanID, action string) (map[string]any, error) {
	switch action {
	case "stop", "pause", "resume":
	default:
		return nil, fmt.Errorf("invalid scan action %q, must be stop, pause, or resume", action)
	}
	status, body, err := c.request(ctx, http.MethodPost, fmt.Sprintf("/scans/%s/%s", scanID, action), nil, nil)
	if err != nil {
		return nil, err
	}
	return writeResult(status, body, fmt.Sprintf("scan %s %s request successful", scanID, action))
}

// ListVulnerabilities returns vulnerability definitions.
func (c *Client) ListVulnerabilities(ctx context.Context, page, size int) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/vulnerabilities", pageParams(page, size), &out)
	return out, err
}

// GetVulnerability fetches one definition, e.g. "msft-cve-2024-21351".
func (c *Client) GetVulnerability(ctx context.Context, vulnID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/vulnerabilities/"+vulnID, nil, &out)
	return out, err
}

// ListAssetVulnerabilities returns findings on one asset.
func (c *Client) ListAssetVulnerabilities(ctx context.Context, assetID string, page, size int) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, "/assets/"+assetID+"/vulnerabilities", pageParams(page, size), &out)
	return out, err
}
