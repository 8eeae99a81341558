package insight

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Investigations, comments, and alert search for the detection and
// response product.

// InvestigationFilter narrows the investigation listing.
type InvestigationFilter struct {
	Statuses   string
	Priorities string
	Assignee   string
	StartTime  string
	EndTime    string
	Size       int
	Index      int
}

func (f InvestigationFilter) params() netValues {
	p := netValues{}
	if f.Statuses != "" {
		p["statuses"] = f.Statuses
	}
	if f.Priorities != "" {
		p["priorities"] = f.Priorities
	}
	if f.Assignee != "" {
		p["assignee.email"] = f.Assignee
	}
	if f.StartTime != "" {
		p["start_time"] = f.StartTime
	}
	if f.EndTime != "" {
		p["end_time"] = f.EndTime
	}
	if f.Size > 0 {
		p["size"] = fmt.Sprintf("%d", f.Size)
	}
	if f.Index > 0 {
		p["index"] = fmt.Sprintf("%d", f.Index)
	}
	return p
}

// InvestigationPage is one page of the v2 investigations listing.
type InvestigationPage struct {
	Data     []map[string]any `json:"data"`
	Metadata map[string]any   `json:"metadata,omitempty"`
}

func (c *Client) idrURL(path string) string {
	return fmt.Sprintf("https://%s.api.insight.rapid7.com%s", c.region, path)
}

// ListInvestigations returns investigations matching the filter.
func (c *Client) ListInvestigations(ctx context.Context, f InvestigationFilter) (*InvestigationPage, error) {
	var out InvestigationPage
	err := c.getJSON(ctx, c.idrURL("/idr/v2/investigations"), f.params(), &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetInvestigation fetches one investigation by ID or RRN.
func (c *Client) GetInvestigation(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.idrURL("/idr/v2/investigations/"+id), nil, &out)
	return out, err
}

// CreateInvestigation opens a new investigation.
func (c *Client) CreateInvestigation(ctx context.Context, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.postJSON(ctx, c.idrURL("/idr/v2/investigations"), body, &out)
	return out, err
}

// SetInvestigationStatus moves an investigation to OPEN, INVESTIGATING, or CLOSED.
func (c *Client) SetInvestigationStatus(ctx context.Context, id, status string) (map[string]any, error) {
	url := c.idrURL(fmt.Sprintf("/idr/v2/investigations/%s/status/%s", id, status))
	return c.putOrPatch(ctx, http.MethodPut, url, nil)
}

// SetInvestigationPriority sets LOW, MEDIUM, HIGH, or CRITICAL.
func (c *Client) SetInvestigationPriority(ctx context.Context, id, priority string) (map[string]any, error) {
	url := c.idrURL(fmt.Sprintf("/idr/v2/investigations/%s/priority/%s", id, priority))
	return c.putOrPatch(ctx, http.MethodPut, url, nil)
}

// AssignInvestigation hands an investigation to a user by email.
func (c *Client) AssignInvestigation(ctx context.Context, id, email string) (map[string]any, error) {
	url := c.idrURL(fmt.Sprintf("/idr/v2/investigations/%s/assignee", id))
	return c.putOrPatch(ctx, http.MethodPut, url, map[string]any{"user_email_address": email})
}

// UpdateInvestigation patches several fields in one call.
func (c *Client) UpdateInvestigation(ctx context.Context, id string, update map[string]any, multiCustomer bool) (map[string]any, error) {
	url := c.idrURL("/idr/v2/investigations/" + id)
	if multiCustomer {
		url += "?multi-customer=true"
	}
	return c.putOrPatch(ctx, http.MethodPatch, url, update)
}

// putOrPatch issues a write and tolerates empty 204-style bodies.
func (c *Client) putOrPatch(ctx context.Context, method, url string, body any) (map[string]any, error) {
	_, respBody, err := c.Do(ctx, method, url, body, nil)
	if err != nil {
		return nil, err
	}
	if len(respBody) == 0 {
		return map[string]any{"status": "success"}, nil
	}
	var out map[string]any
	if err := decode(respBody, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListInvestigationAlerts returns alerts attached to an investigation.
func (c *Client) ListInvestigationAlerts(ctx context.Context, id string, index, size int, multiCustomer bool) (map[string]any, error) {
	params := netValues{
		"index":          fmt.Sprintf("%d", index),
		"size":           fmt.Sprintf("%d", size),
		"multi-customer": fmt.Sprintf("%t", multiCustomer),
	}
	var out map[string]any
	err := c.getJSON(ctx, c.idrURL(fmt.Sprintf("/idr/v2/investigations/%s/alerts", id)), params, &out)
	return out, err
}

// ListComments returns comments, optionally scoped to a target RRN.
func (c *Client) ListComments(ctx context.Context, target string) (map[string]any, error) {
	params := netValues{}
	if target != "" {
		params["target"] = target
	}
	var out map[string]any
	err := c.getJSON(ctx, c.idrURL("/idr/v1/comments"), params, &out)
	return out, err
}

// CreateComment attaches a comment to a target RRN.
func (c *Client) CreateComment(ctx context.Context, target, body string) (map[string]any, error) {
	var out map[string]any
	err := c.postJSON(ctx, c.idrURL("/idr/v1/comments"), map[string]any{"target": target, "body": body}, &out)
	return out, err
}

// DeleteComment removes a comment by RRN.
func (c *Client) DeleteComment(ctx context.Context, commentRRN string) error {
	_, _, err := c.Do(ctx, http.MethodDelete, c.idrURL("/idr/v1/comments/"+commentRRN), nil, nil)
	return err
}

// AlertSearch shapes the alert ops search request.
type AlertSearch struct {
	Criteria   map[string]any
	RRNsOnly   bool
	Index      int
	Size       int
	Sorts      []map[string]any
	FieldIDs   []string
	Aggregates []map[string]any
}

// SearchAlerts runs the alert search. A nil criteria defaults to the last
// 30 days.
func (c *Client) SearchAlerts(ctx context.Context, s AlertSearch) (map[string]any, error) {
	criteria := s.Criteria
	if criteria == nil {
		now := time.Now().UTC()
		criteria = map[string]any{
			"start_time": now.AddDate(0, 0, -30).Format("2006-01-02T15:04:05.000Z"),
			"end_time":   now.Format("2006-01-02T15:04:05.000Z"),
		}
	}
	body := map[string]any{
		"search":     criteria,
		"sorts":      orEmptySlice(s.Sorts),
		"field_ids":  orEmptyStrings(s.FieldIDs),
		"aggregates": orEmptySlice(s.Aggregates),
	}
	url := c.idrURL("/idr/at/alerts/ops/search") + fmt.Sprintf("?rrns_only=%t&index=%d&size=%d", s.RRNsOnly, s.Index, s.Size)
	var out map[string]any
	err := c.postJSON(ctx, url, body, &out)
	return out, err
}

func orEmptySlice(s []map[string]any) []map[string]any {
	if s == nil {
		return []map[string]any{}
	}
	return s
}

func orEmptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// GetAlert fetches one alert by RRN.
func (c *Client) GetAlert(ctx context.Context, rrn string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.idrURL("/idr/at/alerts/"+rrn), nil, &out)
	return out, err
}

// UpdateAlert patches one alert by RRN.
func (c *Client) UpdateAlert(ctx context.Context, rrn string, update map[string]any) (map[string]any, error) {
	return c.putOrPatch(ctx, http.MethodPatch, c.idrURL("/idr/at/alerts/"+rrn), update)
}

// HealthMetricsPage is one page of datasource health metrics.
type HealthMetricsPage struct {
	Data     []map[string]any `json:"data"`
	Metadata map[string]any   `json:"metadata"`
}

// HealthMetrics returns one page of datasource health metrics.
func (c *Client) HealthMetrics(ctx context.Context, index, size int) (*HealthMetricsPage, error) {
	params := netValues{
		"index": fmt.Sprintf("%d", index),
		"size":  fmt.Sprintf("%d", size),
	}
	var out HealthMetricsPage
	if err := c.getJSON(ctx, c.BaseURL(ProductIDRHealth)+"/health-metrics/", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AllHealthMetrics pages through every datasource health metric.
func (c *Client) AllHealthMetrics(ctx context.Context) ([]map[string]any, error) {
	var all []map[string]any
	const size = 50
	for index := 0; ; index += size {
		page, err := c.HealthMetrics(ctx, index, size)
		if err != nil {
			return nil, err
		}
		if len(page.Data) == 0 {
			break
		}
		all = append(all, page.Data...)
		total, _ := page.Metadata["total_data"].(float64)
		if total > 0 && len(all) >= int(total) {
			break
		}
	}
	return all, nil
}

const investigationRRNPrefix = "rrn:investigation:"

// BuildInvestigationRRN assembles a full RRN from its parts.
func BuildInvestigationRRN(region, orgID, investigationID string) string {
	return fmt.Sprintf("%s%s:%s:investigation:%s", investigationRRNPrefix, region, orgID, investigationID)
}

// OrgIDFromRRN pulls the organization segment out of an investigation RRN.
func OrgIDFromRRN(rrn string) string {
	parts := strings.Split(rrn, ":")
	if len(parts) >= 6 {
		return parts[3]
	}
	return ""
}

// ResolveInvestigationRRN turns a short investigation ID into a full RRN.
// With no known org ID it samples one investigation and harvests the org
// segment from its RRN; the caller persists the discovery via onOrgID.
func (c *Client) ResolveInvestigationRRN(ctx context.Context, id, orgID string, onOrgID func(string)) string {
	if strings.HasPrefix(id, investigationRRNPrefix) {
		return id
	}
	if orgID != "" {
		return BuildInvestigationRRN(c.region, orgID, id)
	}
	page, err := c.ListInvestigations(ctx, InvestigationFilter{Size: 1})
	if err == nil && len(page.Data) > 0 {
		if rrn, _ := page.Data[0]["rrn"].(string); rrn != "" {
			if org := OrgIDFromRRN(rrn); org != "" {
				if onOrgID != nil {
					onOrgID(org)
				}
				return BuildInvestigationRRN(c.region, org, id)
			}
		}
	}
	return id
}
