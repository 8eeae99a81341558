package insight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocsSearchParsesHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, algoliaAppID, r.Header.Get("x-algolia-application-id"))
		assert.NotEmpty(t, r.Header.Get("x-algolia-api-key"))
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{
				"hits": []map[string]any{
					{
						"title":       "LEQL Overview",
						"url":         "/insightidr/leql",
						"productName": "InsightIDR",
						"description": strings.Repeat("x", 250),
					},
					{"url": "https://docs.rapid7.com/abs"},
				},
			}},
		})
	}))
	defer srv.Close()

	d := NewDocsClient(nil, false)
	d.baseURL = srv.URL

	results, err := d.Search(context.Background(), "leql", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "LEQL Overview", results[0].Title)
	assert.Equal(t, "https://docs.rapid7.com/insightidr/leql", results[0].URL)
	assert.Equal(t, "InsightIDR", results[0].Product)
	assert.Len(t, results[0].Description, 203)
	assert.True(t, strings.HasSuffix(results[0].Description, "..."))

	assert.Equal(t, "Unknown", results[1].Title)
	assert.Equal(t, "https://docs.rapid7.com/abs", results[1].URL)
	assert.Equal(t, "General", results[1].Product)
}

func TestDocsSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDocsClient(nil, false)
	d.baseURL = srv.URL

	_, err := d.Search(context.Background(), "leql", 10)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestDocURL(t *testing.T) {
	assert.Equal(t, "https://docs.rapid7.com/x", docURL("/x"))
	assert.Equal(t, "https://docs.rapid7.com/x", docURL("x"))
	assert.Equal(t, "https://elsewhere/x", docURL("https://elsewhere/x"))
	assert.Empty(t, docURL(""))
}
