package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsDict(t *testing.T) {
	m, ok := metricsDict(map[string]any{"count": float64(5), "sum": 12.5})
	assert.True(t, ok)
	assert.Equal(t, map[string]float64{"count": 5, "sum": 12.5}, m)

	_, ok = metricsDict(map[string]any{"count": float64(5), "name": "x"})
	assert.False(t, ok)
	_, ok = metricsDict(map[string]any{})
	assert.False(t, ok)
	_, ok = metricsDict("not a map")
	assert.False(t, ok)
}

func TestCleanGroupKey(t *testing.T) {
	assert.Equal(t, "a | b", cleanGroupKey("[a, b]"))
	assert.Equal(t, "alpha | beta | gamma", cleanGroupKey("[alpha,beta, gamma]"))
	assert.Equal(t, "plain", cleanGroupKey("plain"))
	assert.Equal(t, "[unterminated", cleanGroupKey("[unterminated"))
}

func TestFlattenGroupStatisticsSingleLevel(t *testing.T) {
	groups := []any{
		map[string]any{"admin": map[string]any{"count": float64(10)}},
		map[string]any{"guest": map[string]any{"count": float64(3)}},
	}
	rows, keys := flattenGroupStatistics(groups)
	assert.Equal(t, []string{"count"}, keys)
	assert.Len(t, rows, 2)
	byGroup := map[string]float64{}
	for _, r := range rows {
		byGroup[r.group] = r.metrics["count"]
	}
	assert.Equal(t, float64(10), byGroup["admin"])
	assert.Equal(t, float64(3), byGroup["guest"])
}

func TestFlattenGroupStatisticsNested(t *testing.T) {
	groups := []any{
		map[string]any{"us": map[string]any{
			"200": map[string]any{"count": float64(7)},
			"404": map[string]any{"count": float64(2)},
		}},
	}
	rows, keys := flattenGroupStatistics(groups)
	assert.Equal(t, []string{"count"}, keys)
	assert.Len(t, rows, 2)
	groupNames := map[string]bool{}
	for _, r := range rows {
		groupNames[r.group] = true
	}
	assert.True(t, groupNames["us / 200"])
	assert.True(t, groupNames["us / 404"])
}

func TestFlattenGroupStatisticsTotals(t *testing.T) {
	groups := []any{
		map[string]any{"eu": map[string]any{
			"totals": map[string]any{"count": float64(4), "sum": float64(9)},
		}},
	}
	rows, keys := flattenGroupStatistics(groups)
	assert.Equal(t, []string{"count", "sum"}, keys)
	assert.Len(t, rows, 1)
	assert.Equal(t, "eu", rows[0].group)
	assert.Equal(t, float64(9), rows[0].metrics["sum"])
}

func TestFlattenGroupStatisticsMultiKey(t *testing.T) {
	groups := []any{
		map[string]any{"[10.0.0.1, api]": map[string]any{"count": float64(1)}},
	}
	rows, _ := flattenGroupStatistics(groups)
	assert.Len(t, rows, 1)
	assert.Equal(t, "10.0.0.1 | api", rows[0].group)
}

func TestEventContent(t *testing.T) {
	event := map[string]any{"message": "hello world"}
	assert.Equal(t, "hello world", eventContent(event, 0))
	assert.Equal(t, "hello...", eventContent(event, 5))

	noMessage := map[string]any{"labels": []any{"a"}}
	content := eventContent(noMessage, 0)
	assert.Contains(t, content, "labels")
}

func TestEventMessages(t *testing.T) {
	events := []map[string]any{
		{"message": `{"user":"admin"}`},
		{"message": "plain text line"},
	}
	messages := eventMessages(events)
	assert.Len(t, messages, 2)
	parsed, ok := messages[0].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "admin", parsed["user"])
	assert.Equal(t, "plain text line", messages[1])
}

func TestUsageWindowDefaults(t *testing.T) {
	from, to, err := usageWindow("", "")
	assert.NoError(t, err)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, from)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, to)
	assert.Less(t, from, to)
}

func TestUsageWindowValidation(t *testing.T) {
	from, to, err := usageWindow("2025-01-01", "2025-01-31")
	assert.NoError(t, err)
	assert.Equal(t, "2025-01-01", from)
	assert.Equal(t, "2025-01-31", to)

	_, _, err = usageWindow("01/01/2025", "2025-01-31")
	assert.Error(t, err)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Count", capitalize("count"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Unique_count", capitalize("unique_count"))
}
