package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

// Bulk export of vulnerability management data through the export GraphQL
// API. Exports produce signed URLs for Parquet files.

// ExportType selects which dataset an export covers.
type ExportType string

const (
	ExportPolicy        ExportType = "POLICY"
	ExportVulnerability ExportType = "VULNERABILITY"
)

// ExportStatus describes a bulk export and, once complete, its files.
type ExportStatus struct {
	ID     string             `json:"id"`
	Status string             `json:"status"`
	Result []ExportResultItem `json:"result"`
}

// ExportResultItem groups the signed URLs for one exported data type.
type ExportResultItem struct {
	Prefix string   `json:"prefix"`
	URLs   []string `json:"urls"`
}

// Complete reports whether the export's files are ready.
func (s *ExportStatus) Complete() bool {
	return s.Status == "COMPLETE" || s.Status == "SUCCEEDED"
}

// Failed reports a terminal failure.
func (s *ExportStatus) Failed() bool { return s.Status == "FAILED" }

// AllURLs flattens every signed URL across result items.
func (s *ExportStatus) AllURLs() []string {
	var urls []string
	for _, item := range s.Result {
		urls = append(urls, item.URLs...)
	}
	return urls
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

func (c *Client) graphql(ctx context.Context, req graphqlRequest, out any) error {
	return c.graphqlAt(ctx, c.BaseURL(ProductVMExport), req, out)
}

func (c *Client) graphqlAt(ctx context.Context, endpoint string, req graphqlRequest, out any) error {
	var envelope struct {
		Data   map[string]any `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	_, body, err := c.Do(ctx, http.MethodPost, endpoint, req, nil)
	if err != nil {
		return err
	}
	if err := decode(body, &envelope); err != nil {
		return err
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("export api error: %s", envelope.Errors[0].Message)
	}
	if out == nil {
		return nil
	}
	for _, v := range envelope.Data {
		data, err := remarshal(v)
		if err != nil {
			return err
		}
		return decode(data, out)
	}
	return fmt.Errorf("export api returned no data")
}

// StartExport initiates a bulk export and returns its ID.
func (c *Client) StartExport(ctx context.Context, t ExportType) (*ExportStatus, error) {
	req := graphqlRequest{
		Query: `mutation startExport($type: ExportModelType!) {
  startExport(modelType: $type) { id status }
}`,
		Variables: map[string]any{"type": string(t)},
	}
	var out ExportStatus
	if err := c.graphql(ctx, req, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("failed to get export id from response")
	}
	return &out, nil
}

// ExportStatus fetches the state of an export, including file URLs once
// finished.
func (c *Client) ExportStatus(ctx context.Context, exportID string) (*ExportStatus, error) {
	req := graphqlRequest{
		Query: `query exportStatus($id: ID!) {
  export(id: $id) { id status result { prefix urls } }
}`,
		Variables: map[string]any{"id": exportID},
	}
	var out ExportStatus
	if err := c.graphql(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitForExport polls until the export finishes or the timeout passes.
// Polls run 5 seconds apart to match the export service's refresh cadence.
func (c *Client) WaitForExport(ctx context.Context, exportID string, timeout time.Duration) (*ExportStatus, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		status, err := c.ExportStatus(ctx, exportID)
		if err != nil {
			return nil, err
		}
		if status.Complete() {
			return status, nil
		}
		if status.Failed() {
			return status, fmt.Errorf("export failed with status: %s", status.Status)
		}
		c.progress(fmt.Sprintf("export status: %s...", status.Status))
		if !sleepCtx(ctx, 5*time.Second) {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("export timed out after %s", timeout)
}

// DownloadExportFiles fetches each signed URL into dir and returns the
// written file names. The signed URLs still require the API key header.
func (c *Client) DownloadExportFiles(ctx context.Context, status *ExportStatus, dir string) ([]string, error) {
	if !status.Complete() {
		return nil, fmt.Errorf("export is not ready for download, current status: %s", status.Status)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	var written []string
	for i, fileURL := range status.AllURLs() {
		name := exportFileName(fileURL, i)
		dest := filepath.Join(dir, name)
		c.progress(fmt.Sprintf("downloading %s...", name))
		if err := c.downloadFile(ctx, fileURL, dest); err != nil {
			return written, fmt.Errorf("download %s: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}

func (c *Client) downloadFile(ctx context.Context, fileURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

func exportFileName(fileURL string, index int) string {
	parsed, err := url.Parse(fileURL)
	if err == nil {
		if base := path.Base(parsed.Path); base != "" && base != "/" && base != "." {
			return base
		}
	}
	return fmt.Sprintf("export-%d.parquet", index+1)
}

func remarshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
