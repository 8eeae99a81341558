package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "abcdefgh...wxyz", maskKey("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "****", maskKey("short"))
	assert.Equal(t, "****", maskKey(""))
}

func TestStr(t *testing.T) {
	m := map[string]any{
		"name":  "acme",
		"count": float64(3),
		"score": 1.5,
		"empty": nil,
	}
	assert.Equal(t, "acme", str(m, "name"))
	assert.Equal(t, "3", str(m, "count"))
	assert.Equal(t, "1.5", str(m, "score"))
	assert.Equal(t, "", str(m, "empty"))
	assert.Equal(t, "", str(m, "missing"))
	assert.Equal(t, "", str(nil, "anything"))
}

func TestNested(t *testing.T) {
	m := map[string]any{
		"data": map[string]any{
			"job": map[string]any{"jobId": "j-1"},
		},
	}
	assert.Equal(t, "j-1", nested(m, "data", "job", "jobId"))
	assert.Nil(t, nested(m, "data", "missing", "jobId"))
	assert.Nil(t, nested(m, "data", "job", "jobId", "deeper"))
}

func TestSliceOfMaps(t *testing.T) {
	v := []any{
		map[string]any{"id": "a"},
		"not a map",
		map[string]any{"id": "b"},
	}
	got := sliceOfMaps(v)
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0]["id"])
	assert.Equal(t, "b", got[1]["id"])
	assert.Nil(t, sliceOfMaps("nope"))
	assert.Nil(t, sliceOfMaps(nil))
}

func TestOrNA(t *testing.T) {
	assert.Equal(t, "N/A", orNA(""))
	assert.Equal(t, "N/A", orNA("   "))
	assert.Equal(t, "x", orNA("x"))
}
