package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestICItems(t *testing.T) {
	wrapped := map[string]any{
		"data": map[string]any{
			"workflows": []any{map[string]any{"id": "w-1"}},
		},
	}
	items := icItems(wrapped, "workflows")
	assert.Len(t, items, 1)
	assert.Equal(t, "w-1", items[0]["id"])

	flat := map[string]any{
		"jobs": []any{map[string]any{"id": "j-1"}, map[string]any{"id": "j-2"}},
	}
	items = icItems(flat, "jobs")
	assert.Len(t, items, 2)

	assert.Empty(t, icItems(map[string]any{}, "workflows"))
}

func TestWorkflowName(t *testing.T) {
	assert.Equal(t, "Published", workflowName(map[string]any{
		"publishedVersion":   map[string]any{"name": "Published"},
		"unpublishedVersion": map[string]any{"name": "Draft"},
	}))
	assert.Equal(t, "Draft", workflowName(map[string]any{
		"unpublishedVersion": map[string]any{"name": "Draft"},
	}))
	assert.Equal(t, "Top Level", workflowName(map[string]any{"name": "Top Level"}))
	assert.Equal(t, "", workflowName(map[string]any{}))
}

func TestWorkflowTags(t *testing.T) {
	assert.Equal(t, "phishing, triage", workflowTags(map[string]any{
		"publishedVersion": map[string]any{"tags": []any{"phishing", "triage"}},
	}))
	assert.Equal(t, "", workflowTags(map[string]any{
		"publishedVersion": map[string]any{"tags": []any{}},
	}))
	assert.Equal(t, "", workflowTags(map[string]any{}))
}

func TestWorkflowID(t *testing.T) {
	assert.Equal(t, "wf-7", workflowID(map[string]any{"workflowId": "wf-7", "id": "v-1"}))
	assert.Equal(t, "v-1", workflowID(map[string]any{"id": "v-1"}))
}

func TestExecutionJobID(t *testing.T) {
	assert.Equal(t, "job-9", executionJobID(map[string]any{
		"data": map[string]any{"job": map[string]any{"jobId": "job-9"}},
	}))
	assert.Equal(t, "job-3", executionJobID(map[string]any{"jobId": "job-3"}))
	assert.Equal(t, "", executionJobID(map[string]any{}))
}
