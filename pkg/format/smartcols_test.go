package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmartColumnsRanksByWeightAndSkipsTimeFields(t *testing.T) {
	topkeys := []TopKey{
		{Key: "json.user", Weight: 5},
		{Key: "json.event_time", Weight: 10},
		{Key: "json.action", Weight: 8},
	}
	parsed := map[string]any{
		"user":       "alice",
		"event_time": "2026-01-01T00:00:00Z",
		"action":     "LOGIN",
	}

	defs := SmartColumns(topkeys, parsed, nil, 4)
	require.Len(t, defs, 2)
	assert.Equal(t, "Action", defs[0].Display)
	assert.Equal(t, "User", defs[1].Display)
}

func TestSmartColumnsDeduplicatesDisplayNames(t *testing.T) {
	topkeys := []TopKey{
		{Key: "json.user", Weight: 5},
		{Key: "user", Weight: 4},
	}
	parsed := map[string]any{"user": "alice"}
	event := map[string]any{"user": "bob"}

	defs := SmartColumns(topkeys, parsed, event, 4)
	require.Len(t, defs, 1)
	assert.Equal(t, "json.user", defs[0].Field)
}

func TestSmartColumnsBounds(t *testing.T) {
	topkeys := []TopKey{
		{Key: "json.a", Weight: 3},
		{Key: "json.b", Weight: 2},
		{Key: "json.c", Weight: 1},
	}
	parsed := map[string]any{"a": "1", "b": "2", "c": "3"}

	assert.Len(t, SmartColumns(topkeys, parsed, nil, 0), 1)
	assert.Len(t, SmartColumns(topkeys, parsed, nil, 2), 2)
}

func TestExtractFieldValueJSONPath(t *testing.T) {
	parsed := map[string]any{
		"source": map[string]any{"ip": "10.0.0.5"},
	}
	display, value, ok := ExtractFieldValue("json.source.ip", parsed, nil)
	require.True(t, ok)
	assert.Equal(t, "Ip", display)
	assert.Equal(t, "10.0.0.5", value)
}

func TestExtractFieldValueEnvelopeField(t *testing.T) {
	event := map[string]any{"log_name": "audit"}
	display, value, ok := ExtractFieldValue("log_name", nil, event)
	require.True(t, ok)
	assert.Equal(t, "Log Name", display)
	assert.Equal(t, "audit", value)
}

func TestExtractFieldValueObjectFallsBackToLeaf(t *testing.T) {
	parsed := map[string]any{
		"geo": map[string]any{
			"city":    "Sydney",
			"country": "AU",
		},
	}
	display, value, ok := ExtractFieldValue("json.geo", parsed, nil)
	require.True(t, ok)
	assert.NotEmpty(t, display)
	assert.Contains(t, []string{"Sydney", "AU"}, value)
}

func TestExtractFieldValueSkipsGUIDLikeLeaves(t *testing.T) {
	parsed := map[string]any{
		"ref": map[string]any{
			"id": "0123456789abcdef0123456789abcdef",
		},
	}
	_, _, ok := ExtractFieldValue("json.ref", parsed, nil)
	assert.False(t, ok)
}

func TestExtractFieldValueMissing(t *testing.T) {
	_, _, ok := ExtractFieldValue("json.absent.path", map[string]any{}, nil)
	assert.False(t, ok)
}

func TestExtractFieldValueTruncatesLongValues(t *testing.T) {
	long := "this value is considerably longer than thirty characters"
	parsed := map[string]any{"msg": long}
	_, value, ok := ExtractFieldValue("json.msg", parsed, nil)
	require.True(t, ok)
	assert.Equal(t, long[:30]+"...", value)
}
