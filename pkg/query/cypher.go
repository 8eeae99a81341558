package query

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// Column names a projected graph property in a Cypher request body.
type Column struct {
	Alias        string `json:"alias"`
	PropertyName string `json:"property_name"`
}

var (
	returnClauseRe = regexp.MustCompile(`(?is)\bRETURN\s+(.+?)(?:\s+(?:ORDER\s+BY|SKIP|LIMIT)|$)`)
	asAliasRe      = regexp.MustCompile(`(?i)\s+AS\s+(\w+)$`)
	identRe        = regexp.MustCompile(`^[a-zA-Z_]\w*$`)
	funcNameRe     = regexp.MustCompile(`^(\w+)\s*\(`)
)

// ReturnHeaders derives table headers from a query's RETURN clause. An
// explicit AS alias wins, then the final property segment, then a bare
// identifier, then a function name. Anything else becomes "Value N".
func ReturnHeaders(cypher string) []string {
	m := returnClauseRe.FindStringSubmatch(cypher)
	if m == nil {
		return nil
	}
	var headers []string
	for _, col := range splitTopLevel(strings.TrimSpace(m[1])) {
		col = strings.TrimSpace(col)
		switch {
		case asAliasRe.MatchString(col):
			headers = append(headers, asAliasRe.FindStringSubmatch(col)[1])
		case strings.Contains(col, ".") && !strings.Contains(col, "("):
			parts := strings.Split(col, ".")
			headers = append(headers, strings.TrimSpace(parts[len(parts)-1]))
		case identRe.MatchString(col):
			headers = append(headers, col)
		case strings.Contains(col, "("):
			if fm := funcNameRe.FindStringSubmatch(col); fm != nil {
				headers = append(headers, fm[1])
			} else {
				headers = append(headers, fmt.Sprintf("Value %d", len(headers)+1))
			}
		default:
			headers = append(headers, fmt.Sprintf("Value %d", len(headers)+1))
		}
	}
	return headers
}

// splitTopLevel splits a RETURN clause on commas that sit outside
// parentheses and brackets.
func splitTopLevel(clause string) []string {
	var cols []string
	var cur strings.Builder
	parens, brackets := 0, 0
	for _, ch := range clause {
		switch {
		case ch == '(' && brackets == 0:
			parens++
			cur.WriteRune(ch)
		case ch == ')' && brackets == 0:
			parens--
			cur.WriteRune(ch)
		case ch == '[':
			brackets++
			cur.WriteRune(ch)
		case ch == ']':
			brackets--
			cur.WriteRune(ch)
		case ch == ',' && parens == 0 && brackets == 0:
			cols = append(cols, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	if cur.Len() > 0 {
		cols = append(cols, strings.TrimSpace(cur.String()))
	}
	return cols
}

// ParseColumns accepts the --columns flag as either a JSON array of
// {alias, property_name} objects or csv shorthand like "m.name,m.cls".
// It returns the parsed columns plus a normalized form for cache keys.
func ParseColumns(arg string) ([]Column, string, error) {
	text := strings.TrimSpace(arg)
	if text == "" || text == "[]" || strings.EqualFold(text, "none") || text == "auto" {
		return nil, "[]", nil
	}
	if strings.HasPrefix(text, "[") {
		var cols []Column
		if err := json.Unmarshal([]byte(text), &cols); err != nil {
			return nil, "", fmt.Errorf("invalid --columns, use JSON or csv 'alias.prop,alias.prop': %w", err)
		}
		return cols, normalizeColumns(cols), nil
	}
	var cols []Column
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if alias, prop, ok := strings.Cut(part, "."); ok {
			cols = append(cols, Column{Alias: strings.TrimSpace(alias), PropertyName: strings.TrimSpace(prop)})
		} else {
			cols = append(cols, Column{PropertyName: part})
		}
	}
	return cols, normalizeColumns(cols), nil
}

func normalizeColumns(cols []Column) string {
	sorted := make([]Column, len(cols))
	copy(sorted, cols)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Alias != sorted[j].Alias {
			return sorted[i].Alias < sorted[j].Alias
		}
		return sorted[i].PropertyName < sorted[j].PropertyName
	})
	data, _ := json.Marshal(sorted)
	return string(data)
}

// ColumnHeaders renders user-supplied columns as table headers, padding
// with generic names when the server returns wider rows.
func ColumnHeaders(cols []Column, rowWidth int) []string {
	headers := make([]string, 0, rowWidth)
	for i, col := range cols {
		switch {
		case col.Alias != "" && col.PropertyName != "":
			headers = append(headers, col.Alias+"."+col.PropertyName)
		case col.PropertyName != "":
			headers = append(headers, col.PropertyName)
		case col.Alias != "":
			headers = append(headers, col.Alias)
		default:
			headers = append(headers, fmt.Sprintf("Value %d", i+1))
		}
	}
	for i := len(headers); i < rowWidth; i++ {
		headers = append(headers, fmt.Sprintf("Value %d", i+1))
	}
	return headers
}

// LoadCypherFile reads a query from disk, dropping // comment lines and
// collapsing the rest onto one line.
func LoadCypherFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read query file: %w", err)
	}
	return CleanCypher(string(data)), nil
}

// CleanCypher strips comment lines and joins a multiline query.
func CleanCypher(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "//") {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}
