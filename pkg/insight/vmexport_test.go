package insight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportStatusStates(t *testing.T) {
	assert.True(t, (&ExportStatus{Status: "COMPLETE"}).Complete())
	assert.True(t, (&ExportStatus{Status: "SUCCEEDED"}).Complete())
	assert.False(t, (&ExportStatus{Status: "RUNNING"}).Complete())
	assert.True(t, (&ExportStatus{Status: "FAILED"}).Failed())
}

func TestExportStatusAllURLs(t *testing.T) {
	s := &ExportStatus{Result: []ExportResultItem{
		{Prefix: "policy", URLs: []string{"https://x/a.parquet"}},
		{Prefix: "assets", URLs: []string{"https://x/b.parquet", "https://x/c.parquet"}},
	}}
	assert.Equal(t, []string{"https://x/a.parquet", "https://x/b.parquet", "https://x/c.parquet"}, s.AllURLs())
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "data.parquet", exportFileName("https://bucket.example/exports/data.parquet?sig=abc", 0))
	assert.Equal(t, "export-3.parquet", exportFileName("https://bucket.example/", 2))
}

func TestGraphQLSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{"message": "unknown export"}},
		})
	}))
	defer srv.Close()

	c := testClient(t)
	err := c.graphqlAt(context.Background(), srv.URL, graphqlRequest{Query: "query { x }"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export")
}

func TestGraphQLDecodesFirstDataField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"startExport": map[string]any{"id": "exp-1", "status": "RUNNING"},
			},
		})
	}))
	defer srv.Close()

	c := testClient(t)
	var out ExportStatus
	require.NoError(t, c.graphqlAt(context.Background(), srv.URL, graphqlRequest{Query: "mutation { startExport }"}, &out))
	assert.Equal(t, "exp-1", out.ID)
	assert.Equal(t, "RUNNING", out.Status)
}

func TestDownloadExportFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testKey, r.Header.Get("x-api-key"))
		w.Write([]byte("parquet-bytes"))
	}))
	defer srv.Close()

	c := testClient(t)
	dir := t.TempDir()
	status := &ExportStatus{
		Status: "COMPLETE",
		Result: []ExportResultItem{{Prefix: "policy", URLs: []string{srv.URL + "/files/part-0.parquet"}}},
	}
	files, err := c.DownloadExportFiles(context.Background(), status, dir)
	require.NoError(t, err)
	require.Equal(t, []string{"part-0.parquet"}, files)

	data, err := os.ReadFile(filepath.Join(dir, "part-0.parquet"))
	require.NoError(t, err)
	assert.Equal(t, "parquet-bytes", string(data))
}

func TestDownloadExportFilesRefusesIncomplete(t *testing.T) {
	c := testClient(t)
	_, err := c.DownloadExportFiles(context.Background(), &ExportStatus{Status: "RUNNING"}, t.TempDir())
	assert.Error(t, err)
}
