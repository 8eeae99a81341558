package insight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInvestigationRRN(t *testing.T) {
	rrn := BuildInvestigationRRN("au", "c0ffee00-1111", "ABC123")
	assert.Equal(t, "rrn:investigation:au:c0ffee00-1111:investigation:ABC123", rrn)
}

func TestOrgIDFromRRN(t *testing.T) {
	assert.Equal(t, "org-42", OrgIDFromRRN("rrn:investigation:au:org-42:investigation:XYZ"))
	assert.Empty(t, OrgIDFromRRN("rrn:too:short"))
	assert.Empty(t, OrgIDFromRRN(""))
}

func TestResolveInvestigationRRNPassthrough(t *testing.T) {
	c := testClient(t)
	full := "rrn:investigation:au:org:investigation:ID1"
	got := c.ResolveInvestigationRRN(context.Background(), full, "", nil)
	assert.Equal(t, full, got)
}

func TestResolveInvestigationRRNWithKnownOrg(t *testing.T) {
	c := testClient(t)
	got := c.ResolveInvestigationRRN(context.Background(), "ID1", "org-7", nil)
	assert.Equal(t, "rrn:investigation:au:org-7:investigation:ID1", got)
}

func TestInvestigationFilterParams(t *testing.T) {
	p := InvestigationFilter{
		Statuses:   "OPEN",
		Priorities: "HIGH",
		Assignee:   "a@example.com",
		Size:       20,
	}.params()
	assert.Equal(t, "OPEN", p["statuses"])
	assert.Equal(t, "HIGH", p["priorities"])
	assert.Equal(t, "a@example.com", p["assignee.email"])
	assert.Equal(t, "20", p["size"])
	_, hasIndex := p["index"]
	assert.False(t, hasIndex)
}

func TestJobStatusUnwrapsNestedJob(t *testing.T) {
	flat := map[string]any{
		"data": map[string]any{"job": map[string]any{"status": "succeeded"}},
	}
	assert.Equal(t, "succeeded", jobStatus(flat))

	nested := map[string]any{
		"data": map[string]any{"job": map[string]any{"job": map[string]any{"status": "failed"}}},
	}
	assert.Equal(t, "failed", jobStatus(nested))

	assert.Empty(t, jobStatus(map[string]any{}))
}
