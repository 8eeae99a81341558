package insight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef"

func testClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{APIKey: testKey, Region: "au"})
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsBadKeys(t *testing.T) {
	_, err := NewClient(ClientConfig{APIKey: "", Region: "us"})
	assert.ErrorIs(t, err, ErrAuth)

	_, err = NewClient(ClientConfig{APIKey: "short", Region: "us"})
	assert.ErrorIs(t, err, ErrAuth)
}

func TestBaseURLPerProduct(t *testing.T) {
	c := testClient(t)
	assert.Equal(t, "https://au.api.insight.rapid7.com/log_search", c.BaseURL(ProductLogSearch))
	assert.Equal(t, "https://au.rest.logs.insight.rapid7.com", c.BaseURL(ProductLogQuery))
	assert.Equal(t, "https://au.api.insight.rapid7.com/account/api/1", c.BaseURL(ProductAccount))
	assert.Equal(t, "https://au.api.insight.rapid7.com/surface/graph-api/objects/table", c.BaseURL(ProductASM))
	assert.Equal(t, "https://au.api.insight.rapid7.com/export/graphql", c.BaseURL(ProductVMExport))
}

func TestDoSendsAuthHeaders(t *testing.T) {
	var gotKey, gotAgent, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(t)
	status, _, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, testKey, gotKey)
	assert.Equal(t, UserAgent, gotAgent)
	assert.Equal(t, "application/json", gotAccept)
}

func TestDoAuthFailuresAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := testClient(t)
	_, _, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoForbiddenIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(t)
	_, _, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	assert.ErrorIs(t, err, ErrAuth)
}

func TestDoRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := testClient(t)
	status, body, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoParsesServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid leql"}`))
	}))
	defer srv.Close()

	c := testClient(t)
	_, _, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid leql", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "400")
	assert.Contains(t, apiErr.Error(), "invalid leql")
}

func TestDoAppendsQueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(t)
	_, _, err := c.Do(context.Background(), http.MethodGet, srv.URL+"?existing=1", nil, url2Values(netValues{"size": "5"}))
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "existing=1")
	assert.Contains(t, gotQuery, "size=5")
}

func TestDoPostsJSONBody(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(t)
	_, _, err := c.Do(context.Background(), http.MethodPost, srv.URL, map[string]any{"name": "x"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x"}`, gotBody)
	assert.Equal(t, "application/json", gotContentType)
}
