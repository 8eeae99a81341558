package vmconsole

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func consoleClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:   srvURL,
		Username:  "admin",
		Password:  "s3cret",
		VerifySSL: true,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "https://host:3780/api/3"})
	assert.ErrorIs(t, err, ErrAuth)

	_, err = NewClient(Config{Username: "admin", Password: "x"})
	assert.ErrorIs(t, err, ErrAuth)

	_, err = NewClient(Config{BaseURL: "https://host:3780/api/3", APIToken: "tok"})
	assert.NoError(t, err)
}

func TestBasicAuthAndPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "s3cret", pass)
		assert.Equal(t, "/sites", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("size"))
		json.NewEncoder(w).Encode(map[string]any{"resources": []any{}})
	}))
	defer srv.Close()

	c := consoleClient(t, srv.URL)
	out, err := c.ListSites(context.Background(), 2, 100)
	require.NoError(t, err)
	assert.Contains(t, out, "resources")
}

func TestAPITokenHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-123", r.Header.Get("X-Api-Key"))
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIToken: "tok-123", VerifySSL: true})
	require.NoError(t, err)
	_, err = c.GetSite(context.Background(), "1")
	require.NoError(t, err)
}

func TestAuthErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := consoleClient(t, srv.URL)
	_, err := c.ListAssets(context.Background(), 0, 200)
	assert.ErrorIs(t, err, ErrAuth)
}

func TestAPIErrorIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"bad sort"}`))
	}))
	defer srv.Close()

	c := consoleClient(t, srv.URL)
	_, err := c.ListScans(context.Background(), 0, 200)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "bad sort")
}

func TestDeleteAssetSynthesizesSuccessOn204(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := consoleClient(t, srv.URL)
	out, err := c.DeleteAsset(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "success", out["status"])
}

func TestStartSiteScanPayload(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/7/scans", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"id": 99})
	}))
	defer srv.Close()

	c := consoleClient(t, srv.URL)
	out, err := c.StartSiteScan(context.Background(), "7", ScanOptions{
		Name:             "nightly",
		TemplateID:       "full-audit",
		Hosts:            []string{"10.0.0.1"},
		OverrideBlackout: true,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(99), out["id"])
	assert.Equal(t, "nightly", gotBody["name"])
	assert.Equal(t, "full-audit", gotBody["templateId"])
	assert.Equal(t, true, gotBody["overrideBlackout"])
	_, hasEngine := gotBody["engineId"]
	assert.False(t, hasEngine)
}

func TestUpdateScanStatusRejectsUnknownAction(t *testing.T) {
	c := consoleClient(t, "https://unused")
	_, err := c.UpdateScanStatus(context.Background(), "1", "explode")
	assert.Error(t, err)
}
