package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID("123e4567-e89b-12d3-a456-426614174000"))
	assert.False(t, IsUUID("my-firewall-log"))
	assert.False(t, IsUUID(""))
	assert.False(t, IsUUID("123E4567-E89B-12D3-A456-426614174000"))
}

func TestTimeParamsPreferRelativeRange(t *testing.T) {
	v := url.Values{}
	TimeParams{TimeRange: "last 1 hour", From: 1, To: 2}.apply(v)
	assert.Equal(t, "last 1 hour", v.Get("time_range"))
	assert.Empty(t, v.Get("from"))

	v = url.Values{}
	TimeParams{From: 100, To: 200}.apply(v)
	assert.Equal(t, "100", v.Get("from"))
	assert.Equal(t, "200", v.Get("to"))
}

func TestPollQueryFollowsContinuationThenPaginates(t *testing.T) {
	var phase atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch phase.Add(1) {
		case 1:
			// Still processing: continuation link plus progress marker.
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]any{
				"progress": 40,
				"links":    []map[string]string{{"rel": "Self", "href": srv.URL + "/poll"}},
			})
		case 2:
			// Complete with one more result page.
			json.NewEncoder(w).Encode(map[string]any{
				"events": []map[string]any{{"message": "first"}},
				"links":  []map[string]string{{"rel": "Next", "href": srv.URL + "/page2"}},
			})
		default:
			json.NewEncoder(w).Encode(map[string]any{
				"events":     []map[string]any{{"message": "second"}},
				"statistics": map[string]any{"count": 2},
			})
		}
	}))
	defer srv.Close()

	c := testClient(t)
	result, err := c.PollQuery(context.Background(), srv.URL, 3, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "first", result.Events[0]["message"])
	assert.Equal(t, "second", result.Events[1]["message"])
	assert.Equal(t, float64(2), result.Statistics["count"])
}

func TestPollQueryStopsAtMaxPages(t *testing.T) {
	var calls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"events": []map[string]any{{"seq": n}},
			"links":  []map[string]string{{"rel": "Next", "href": fmt.Sprintf("%s/page/%d", srv.URL, n)}},
		})
	}))
	defer srv.Close()

	c := testClient(t)
	result, err := c.PollQuery(context.Background(), srv.URL, 2, 30*time.Second)
	require.NoError(t, err)
	// Initial page plus two paginated pages.
	assert.Len(t, result.Events, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPollQueryErrorStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	defer srv.Close()

	c := testClient(t)
	_, err := c.PollQuery(context.Background(), srv.URL, 1, 30*time.Second)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestValidUsageDate(t *testing.T) {
	assert.True(t, ValidUsageDate("2026-08-30"))
	assert.False(t, ValidUsageDate("30-08-2026"))
	assert.False(t, ValidUsageDate("2026/08/30"))
	assert.False(t, ValidUsageDate("yesterday"))
}
