package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshhighet/r7/pkg/insight"
)

func TestShortRRN(t *testing.T) {
	full := "rrn:investigation:us:12345678-aaaa-bbbb-cccc-000000000000:investigation:ABCDEF123456"
	assert.Equal(t, "ABCDEF123456", shortRRN(full))
	assert.Equal(t, "ABCDEF123456", shortRRN("ABCDEF123456"))
	assert.Equal(t, "a:b:c", shortRRN("a:b:c"))
}

func TestDateOnly(t *testing.T) {
	assert.Equal(t, "2025-03-01", dateOnly("2025-03-01T12:34:56Z"))
	assert.Equal(t, "2025-03-01", dateOnly("2025-03-01"))
	assert.Equal(t, "", dateOnly(""))
}

func TestInvestigationAssignee(t *testing.T) {
	assert.Equal(t, "Unassigned", investigationAssignee(map[string]any{}))
	assert.Equal(t, "Unassigned", investigationAssignee(map[string]any{"assignee": nil}))
	assert.Equal(t, "Jo Analyst", investigationAssignee(map[string]any{
		"assignee": map[string]any{"name": "Jo Analyst", "email": "jo@example.com"},
	}))
	assert.Equal(t, "jo@example.com", investigationAssignee(map[string]any{
		"assignee": map[string]any{"email": "jo@example.com"},
	}))
	assert.Equal(t, "Unknown", investigationAssignee(map[string]any{
		"assignee": map[string]any{},
	}))
}

func TestAgentOS(t *testing.T) {
	assert.Equal(t, "Ubuntu 22.04", agentOS(insight.Agent{OSVendor: "Ubuntu", OSVersion: "22.04"}))
	assert.Equal(t, "linux", agentOS(insight.Agent{Platform: "linux", OSVendor: "Ubuntu"}))
	assert.Equal(t, "Unknown", agentOS(insight.Agent{}))
}
