package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnHeaders(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{
			"property access",
			"MATCH (s:Service) RETURN s.service_port, s.name",
			[]string{"service_port", "name"},
		},
		{
			"as alias",
			"MATCH (m:Machine) RETURN count(*) AS total",
			[]string{"total"},
		},
		{
			"bare identifier",
			"MATCH (u:User) RETURN u",
			[]string{"u"},
		},
		{
			"function without alias",
			"MATCH (m) RETURN count(m)",
			[]string{"count"},
		},
		{
			"comma inside function",
			"MATCH (m) RETURN coalesce(m.name, m.id), m.os",
			[]string{"coalesce", "os"},
		},
		{
			"stops at order by",
			"MATCH (m) RETURN m.name ORDER BY m.name LIMIT 5",
			[]string{"name"},
		},
		{
			"no return clause",
			"MATCH (m:Machine)",
			nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReturnHeaders(tc.query))
		})
	}
}

func TestParseColumnsCSV(t *testing.T) {
	cols, norm, err := ParseColumns("m.name, m.asset_class")
	require.NoError(t, err)
	assert.Equal(t, []Column{
		{Alias: "m", PropertyName: "name"},
		{Alias: "m", PropertyName: "asset_class"},
	}, cols)
	assert.NotEmpty(t, norm)
}

func TestParseColumnsJSON(t *testing.T) {
	cols, _, err := ParseColumns(`[{"alias":"m","property_name":"name"}]`)
	require.NoError(t, err)
	assert.Equal(t, []Column{{Alias: "m", PropertyName: "name"}}, cols)
}

func TestParseColumnsNormalizedFormStableUnderOrder(t *testing.T) {
	_, a, err := ParseColumns("m.name,m.os")
	require.NoError(t, err)
	_, b, err := ParseColumns("m.os,m.name")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseColumnsEmptyVariants(t *testing.T) {
	for _, arg := range []string{"", "[]", "none", "auto"} {
		cols, norm, err := ParseColumns(arg)
		require.NoError(t, err)
		assert.Empty(t, cols)
		assert.Equal(t, "[]", norm)
	}
}

func TestParseColumnsBadJSON(t *testing.T) {
	_, _, err := ParseColumns(`[{"alias":`)
	assert.Error(t, err)
}

func TestParseColumnsBareProperty(t *testing.T) {
	cols, _, err := ParseColumns("name")
	require.NoError(t, err)
	assert.Equal(t, []Column{{PropertyName: "name"}}, cols)
}

func TestColumnHeadersPadsToRowWidth(t *testing.T) {
	headers := ColumnHeaders([]Column{{Alias: "m", PropertyName: "name"}}, 3)
	assert.Equal(t, []string{"m.name", "Value 2", "Value 3"}, headers)
}

func TestCleanCypher(t *testing.T) {
	in := "// find exposed services\nMATCH (s:Service)\n  WHERE s.port = 22\n\nRETURN s.name"
	assert.Equal(t, "MATCH (s:Service) WHERE s.port = 22 RETURN s.name", CleanCypher(in))
}

func TestLoadCypherFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.cypher")
	require.NoError(t, os.WriteFile(path, []byte("// comment\nMATCH (m) RETURN m\n"), 0600))

	q, err := LoadCypherFile(path)
	require.NoError(t, err)
	assert.Equal(t, "MATCH (m) RETURN m", q)

	_, err = LoadCypherFile(filepath.Join(t.TempDir(), "missing.cypher"))
	assert.Error(t, err)
}
