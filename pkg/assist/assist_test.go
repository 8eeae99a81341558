package assist

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshhighet/r7/pkg/insight"
)

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), "", "")
	require.ErrorIs(t, err, ErrNoAPIKey)
}

func TestBuildPrompt(t *testing.T) {
	docs := []insight.DocResult{
		{Title: "LEQL Overview", URL: "https://docs.rapid7.com/insightidr/leql", Product: "InsightIDR", Description: "Query language basics."},
		{Title: "Scan Templates", URL: "https://docs.rapid7.com/insightvm/templates", Product: "InsightVM", Description: "Built-in templates."},
	}
	prompt := BuildPrompt("how do I group by a field?", docs)

	assert.Contains(t, prompt, "[1] LEQL Overview (InsightIDR)")
	assert.Contains(t, prompt, "https://docs.rapid7.com/insightvm/templates")
	assert.True(t, strings.HasSuffix(prompt, "Question: how do I group by a field?"))
}

func TestBuildPromptNoDocs(t *testing.T) {
	prompt := BuildPrompt("what is an rrn?", nil)
	assert.Contains(t, prompt, "Question: what is an rrn?")
	assert.NotContains(t, prompt, "[1]")
}
