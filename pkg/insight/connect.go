package insight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// InsightConnect automation: workflows, jobs, and global artifacts.

// icPageClamp keeps limit within what the API accepts.
func icPageClamp(limit, offset int) netValues {
	if limit < 0 {
		limit = 0
	} else if limit > 30 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}
	return netValues{
		"limit":  fmt.Sprintf("%d", limit),
		"offset": fmt.Sprintf("%d", offset),
	}
}

// ListWorkflows returns a page of automation workflows.
func (c *Client) ListWorkflows(ctx context.Context, limit, offset int) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductConnect)+"/v2/workflows", icPageClamp(limit, offset), &out)
	return out, err
}

// GetWorkflow fetches one workflow by ID.
func (c *Client) GetWorkflow(ctx context.Context, workflowID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductConnect)+"/v2/workflows/"+workflowID, nil, &out)
	return out, err
}

// ExecuteWorkflow runs a workflow's active version asynchronously and
// returns the job reference.
func (c *Client) ExecuteWorkflow(ctx context.Context, workflowID string, input map[string]any) (map[string]any, error) {
	if input == nil {
		input = map[string]any{}
	}
	endpoint := c.BaseURL(ProductConnect) + "/v1/execute/async/workflows/" + workflowID
	_, body, err := c.Do(ctx, http.MethodPost, endpoint, input, nil)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return map[string]any{"status": "accepted"}, nil
	}
	var out map[string]any
	if err := decode(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActivateWorkflow enables a workflow.
func (c *Client) ActivateWorkflow(ctx context.Context, workflowID string) (map[string]any, error) {
	var out map[string]any
	err := c.postJSON(ctx, c.BaseURL(ProductConnect)+"/v2/workflows/"+workflowID+"/activate", nil, &out)
	return out, err
}

// DeactivateWorkflow disables a workflow.
func (c *Client) DeactivateWorkflow(ctx context.Context, workflowID string) (map[string]any, error) {
	var out map[string]any
	err := c.postJSON(ctx, c.BaseURL(ProductConnect)+"/v2/workflows/"+workflowID+"/deactivate", nil, &out)
	return out, err
}

// ExportWorkflow downloads a workflow definition.
func (c *Client) ExportWorkflow(ctx context.Context, workflowID string, excludeConfig bool) (map[string]any, error) {
	params := netValues{}
	if excludeConfig {
		params["excludeConfigDetails"] = "true"
	}
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductConnect)+"/v2/workflows/"+workflowID+"/export", params, &out)
	return out, err
}

// ListJobs returns a page of workflow jobs, optionally filtered by status.
func (c *Client) ListJobs(ctx context.Context, limit, offset int, status string) (map[string]any, error) {
	params := icPageClamp(limit, offset)
	if status != "" {
		params["status"] = status
	}
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductConnect)+"/v1/jobs", params, &out)
	return out, err
}

// GetJob fetches one job by ID.
func (c *Client) GetJob(ctx context.Context, jobID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductConnect)+"/v1/jobs/"+jobID, nil, &out)
	return out, err
}

// ErrJobTimeout means a job did not reach a terminal state in time.
var ErrJobTimeout = errors.New("timed out waiting for job to complete")

// WaitForJob polls a job until it succeeds, fails, or is canceled.
func (c *Client) WaitForJob(ctx context.Context, jobID string, timeout, interval time.Duration) (map[string]any, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		data, err := c.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(jobStatus(data)) {
		case "succeeded", "failed", "canceled", "cancelled":
			return data, nil
		}
		if !sleepCtx(ctx, interval) {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrJobTimeout, jobID)
}

// jobStatus digs the status out of the job envelope. Some responses wrap
// the job a second time under job.job.
func jobStatus(data map[string]any) string {
	inner, _ := data["data"].(map[string]any)
	job, _ := inner["job"].(map[string]any)
	if job != nil {
		if _, hasStatus := job["status"]; !hasStatus {
			if nested, ok := job["job"].(map[string]any); ok {
				job = nested
			}
		}
	}
	status, _ := job["status"].(string)
	return status
}

// ListGlobalArtifacts returns shared automation datasets.
func (c *Client) ListGlobalArtifacts(ctx context.Context, limit, offset int, name string, tags []string) (map[string]any, error) {
	v := url.Values{}
	for k, val := range icPageClamp(limit, offset) {
		v.Set(k, val)
	}
	if name != "" {
		v.Set("name", name)
	}
	for _, tag := range tags {
		v.Add("tags", tag)
	}
	endpoint := c.BaseURL(ProductConnect) + "/v1/globalArtifacts?" + v.Encode()
	var out map[string]any
	err := c.getJSON(ctx, endpoint, nil, &out)
	return out, err
}

// GetGlobalArtifact fetches one artifact by ID.
func (c *Client) GetGlobalArtifact(ctx context.Context, artifactID string) (map[string]any, error) {
	var out map[string]any
	err := c.getJSON(ctx, c.BaseURL(ProductConnect)+"/v1/globalArtifacts/"+artifactID, nil, &out)
	return out, err
}

// CreateGlobalArtifact defines a new artifact.
func (c *Client) CreateGlobalArtifact(ctx context.Context, name, description string, schema map[string]any, tags []string) (map[string]any, error) {
	if schema == nil {
		schema = map[string]any{}
	}
	if tags == nil {
		tags = []string{}
	}
	body := map[string]any{
		"name":        name,
		"description": description,
		"schema":      schema,
		"tags":        tags,
	}
	var out map[string]any
	err := c.postJSON(ctx, c.BaseURL(ProductConnect)+"/v1/globalArtifacts", body, &out)
	return out, err
}

// DeleteGlobalArtifact removes an artifact.
func (c *Client) DeleteGlobalArtifact(ctx context.Context, artifactID string) error {
	_, _, err := c.Do(ctx, http.MethodDelete, c.BaseURL(ProductConnect)+"/v1/globalArtifacts/"+artifactID, nil, nil)
	return err
}

// ListGlobalArtifactEntities returns a page of an artifact's entries.
func (c *Client) ListGlobalArtifactEntities(ctx context.Context, artifactID string, limit, offset int) (map[string]any, error) {
	var out map[string]any
	endpoint := c.BaseURL(ProductConnect) + "/v1/globalArtifacts/" + artifactID + "/entities"
	err := c.getJSON(ctx, endpoint, icPageClamp(limit, offset), &out)
	return out, err
}

// AddGlobalArtifactEntity appends one entry to an artifact.
func (c *Client) AddGlobalArtifactEntity(ctx context.Context, artifactID, data string) (map[string]any, error) {
	body := []map[string]any{{"data": data}}
	endpoint := c.BaseURL(ProductConnect) + "/v1/globalArtifacts/" + artifactID + "/entities"
	var out map[string]any
	err := c.postJSON(ctx, endpoint, body, &out)
	return out, err
}

// DeleteGlobalArtifactEntity removes one entry from an artifact.
func (c *Client) DeleteGlobalArtifactEntity(ctx context.Context, artifactID, entityID string) error {
	endpoint := c.BaseURL(ProductConnect) + "/v1/globalArtifacts/" + artifactID + "/entities/" + entityID
	_, _, err := c.Do(ctx, http.MethodDelete, endpoint, nil, nil)
	return err
}
