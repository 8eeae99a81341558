package insight

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/joshhighet/r7/pkg/cache"
)

// Log is one entry from the log management API.
type Log struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	LogsetsInfo []LogsetInfo `json:"logsets_info"`
}

// LogsetInfo names a logset a log belongs to.
type LogsetInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QueryResult accumulates events and statistics across result pages.
type QueryResult struct {
	Events     []map[string]any `json:"events"`
	Statistics map[string]any   `json:"statistics,omitempty"`
}

// TimeParams bound a query either by a relative range or absolute epochs.
type TimeParams struct {
	TimeRange string
	From      int64
	To        int64
}

func (t TimeParams) apply(v url.Values) {
	if t.TimeRange != "" {
		v.Set("time_range", t.TimeRange)
	} else if t.From > 0 && t.To > 0 {
		v.Set("from", fmt.Sprintf("%d", t.From))
		v.Set("to", fmt.Sprintf("%d", t.To))
	}
}

// IsUUID reports whether a value is a canonical UUID, used to tell log IDs
// from log names.
func IsUUID(value string) bool {
	u, err := uuid.Parse(value)
	return err == nil && u.String() == strings.ToLower(value)
}

// ListLogs returns all logs visible to the key.
func (c *Client) ListLogs(ctx context.Context) ([]Log, error) {
	var out struct {
		Logs []Log `json:"logs"`
	}
	url := c.BaseURL(ProductLogSearch) + "/management/logs"
	if err := c.getJSON(ctx, url, nil, &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// ResolveLogID maps a log name to its ID. Exact-UUID input passes through.
// Name matches are case insensitive and cached.
func (c *Client) ResolveLogID(ctx context.Context, nameOrID string) (string, error) {
	if IsUUID(nameOrID) {
		return nameOrID, nil
	}
	ns := "log_lookup"
	key := cache.Key(ns, map[string]any{"name": strings.ToLower(nameOrID)})
	if c.cache != nil && !c.noCache {
		if body, err := c.cache.Get(key); err == nil {
			return string(body), nil
		}
	}
	logs, err := c.ListLogs(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, l := range logs {
		if strings.EqualFold(l.Name, nameOrID) {
			matches = append(matches, l.ID)
		}
	}
	switch {
	case len(matches) == 0:
		return "", fmt.Errorf("no log found with name %q", nameOrID)
	case len(matches) > 1:
		return "", fmt.Errorf("multiple logs found with name %q, use UUID instead", nameOrID)
	}
	if c.cache != nil && !c.noCache {
		if err := c.cache.Set(key, ns, []byte(matches[0])); err != nil {
			log.Debug().Err(err).Msg("failed to cache log id")
		}
	}
	return matches[0], nil
}

// ResolveLogsetID maps a logset name to its ID via the logs listing.
func (c *Client) ResolveLogsetID(ctx context.Context, nameOrID string) (string, error) {
	if IsUUID(nameOrID) {
		return nameOrID, nil
	}
	logs, err := c.ListLogs(ctx)
	if err != nil {
		return "", err
	}
	ids := map[string]bool{}
	for _, l := range logs {
		for _, ls := range l.LogsetsInfo {
			if strings.EqualFold(ls.Name, nameOrID) {
				ids[ls.ID] = true
			}
		}
	}
	switch {
	case len(ids) == 0:
		return "", fmt.Errorf("no logset found with name %q", nameOrID)
	case len(ids) > 1:
		return "", fmt.Errorf("multiple logsets found with name %q, use UUID instead", nameOrID)
	}
	for id := range ids {
		return id, nil
	}
	return "", nil
}

// QueryLog runs a LEQL query against one log and polls to completion.
func (c *Client) QueryLog(ctx context.Context, logNameOrID, leql string, tp TimeParams, maxPages int, timeout time.Duration) (*QueryResult, error) {
	logID, err := c.ResolveLogID(ctx, logNameOrID)
	if err != nil {
		return nil, err
	}
	v := url.Values{}
	if leql != "" {
		v.Set("query", leql)
	}
	tp.apply(v)
	queryURL := fmt.Sprintf("%s/query/logs/%s?%s", c.BaseURL(ProductLogQuery), logID, v.Encode())
	return c.PollQuery(ctx, queryURL, maxPages, timeout)
}

// QueryLogset runs a LEQL query against every log in a logset.
func (c *Client) QueryLogset(ctx context.Context, logsetNameOrID, leql string, tp TimeParams, maxPages int, timeout time.Duration) (*QueryResult, error) {
	logsetID, err := c.ResolveLogsetID(ctx, logsetNameOrID)
	if err != nil {
		return nil, err
	}
	v := url.Values{}
	if leql != "" {
		v.Set("query", leql)
	}
	tp.apply(v)
	queryURL := fmt.Sprintf("%s/query/logsets/%s?%s", c.BaseURL(ProductLogQuery), logsetID, v.Encode())
	return c.PollQuery(ctx, queryURL, maxPages, timeout)
}

// QueryAllLogsets fans one query across every logset in the organization.
func (c *Client) QueryAllLogsets(ctx context.Context, leql string, tp TimeParams, maxPages int, timeout time.Duration) (*QueryResult, error) {
	logs, err := c.ListLogs(ctx)
	if err != nil {
		return nil, err
	}
	names := map[string]bool{}
	for _, l := range logs {
		for _, ls := range l.LogsetsInfo {
			if ls.Name != "" {
				names[ls.Name] = true
			}
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no logsets found in organization")
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	v := url.Values{}
	for _, n := range sorted {
		v.Add("logset_name", n)
	}
	tp.apply(v)
	if leql != "" {
		v.Set("query", leql)
	}
	queryURL := fmt.Sprintf("%s/query/logsets?%s", c.BaseURL(ProductLogQuery), v.Encode())
	return c.PollQuery(ctx, queryURL, maxPages, timeout)
}

// PollQuery drives a continuation-style query to completion. Phase one
// re-polls the server's own continuation link every 2s while progress is
// below 100. Phase two follows result links, one page per second, up to
// maxPages. The timeout bounds the whole operation.
func (c *Client) PollQuery(ctx context.Context, queryURL string, maxPages int, timeout time.Duration) (*QueryResult, error) {
	result := &QueryResult{}
	deadline := time.Now().Add(timeout)
	pollURL := queryURL
	c.progress("waiting for query to complete...")

	for {
		if time.Now().After(deadline) {
			c.progress(fmt.Sprintf("query timeout after %s", timeout))
			return result, nil
		}
		status, body, err := c.Do(ctx, http.MethodGet, pollURL, nil, nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK && status != http.StatusAccepted {
			return nil, &APIError{StatusCode: status, Method: http.MethodGet, URL: pollURL, Body: string(body)}
		}

		var page queryPage
		if err := decode(body, &page); err != nil {
			return nil, err
		}
		if len(page.Links) > 0 {
			// The server's link keeps the original timestamps stable.
			pollURL = page.Links[0].Href
		}
		if page.progress() < 100 && status == http.StatusAccepted {
			c.progress(fmt.Sprintf("query processing... %d%%", page.progress()))
			if !sleepCtx(ctx, 2*time.Second) {
				return nil, ctx.Err()
			}
			continue
		}

		page.accumulate(result)

		pages := 0
		for len(page.Links) > 0 && pages < maxPages {
			pages++
			c.progress(fmt.Sprintf("fetching results page %d... (%d events)", pages, len(result.Events)))
			next := page.Links[0].Href
			if !sleepCtx(ctx, time.Second) {
				return nil, ctx.Err()
			}
			status, body, err := c.Do(ctx, http.MethodGet, next, nil, nil)
			if err != nil {
				return nil, err
			}
			if status != http.StatusOK && status != http.StatusAccepted {
				return nil, &APIError{StatusCode: status, Method: http.MethodGet, URL: next, Body: string(body)}
			}
			page = queryPage{}
			if err := decode(body, &page); err != nil {
				return nil, err
			}
			page.accumulate(result)
		}
		c.progress(fmt.Sprintf("query completed (%d events)", len(result.Events)))
		return result, nil
	}
}

type queryPage struct {
	Events     []map[string]any `json:"events"`
	Statistics map[string]any   `json:"statistics"`
	Progress   *int             `json:"progress"`
	Links      []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

func (p *queryPage) progress() int {
	if p.Progress == nil {
		return 100
	}
	return *p.Progress
}

func (p *queryPage) accumulate(result *QueryResult) {
	result.Events = append(result.Events, p.Events...)
	if p.Statistics != nil {
		result.Statistics = p.Statistics
	}
}

// TopKeysForLog fetches the ranked field keys for a log, cached because the
// ranking barely moves between runs.
func (c *Client) TopKeysForLog(ctx context.Context, logID string) ([]TopKeyEntry, error) {
	var out struct {
		TopKeys []TopKeyEntry `json:"topkeys"`
	}
	endpoint := fmt.Sprintf("%s/management/logs/%s/topkeys", c.BaseURL(ProductLogSearch), logID)
	if err := c.cachedGetJSON(ctx, "topkeys", endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.TopKeys, nil
}

// TopKeyEntry is one ranked field from the topkeys endpoint.
type TopKeyEntry struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
}

// TotalUsage reports ingestion volume for a date window (YYYY-MM-DD).
func (c *Client) TotalUsage(ctx context.Context, from, to string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductUsage)+"/organizations", netValues{"from": from, "to": to}, &out)
	return out, err
}

// LogUsage reports ingestion for one log key over a date window.
func (c *Client) LogUsage(ctx context.Context, logKey, from, to string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductUsage)+"/organizations/logs/"+logKey, netValues{"from": from, "to": to}, &out)
	return out, err
}

// PerLogUsage reports ingestion split per log, by window or relative range.
func (c *Client) PerLogUsage(ctx context.Context, from, to, timeRange string) (map[string]any, error) {
	params := netValues{}
	if timeRange != "" {
		params["time_range"] = timeRange
	} else {
		if from != "" {
			params["from"] = from
		}
		if to != "" {
			params["to"] = to
		}
	}
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductUsage)+"/organizations/logs", params, &out)
	return out, err
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidUsageDate checks the YYYY-MM-DD shape the usage API requires.
func ValidUsageDate(s string) bool {
	return dateRe.MatchString(s)
}
