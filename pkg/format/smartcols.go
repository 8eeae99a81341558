package format

import (
	"sort"
	"strings"
)

// TopKey is one ranked field from the log search topkeys endpoint.
type TopKey struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
}

// ColumnDef binds a source field to its table header.
type ColumnDef struct {
	Field   string
	Display string
}

// cellWidth caps how many characters a smart column cell shows.
const cellWidth = 30

// Fields that duplicate the fixed Time column.
var timeFieldPatterns = []string{
	"time", "timestamp", "date", "datetime", "created", "updated",
	"start_time", "end_time", "event_time", "log_time", "ingestion_time",
	"start time", "end time", "event time", "log time", "ingestion time",
}

// SmartColumns picks up to maxCols display columns from topkeys, ranked by
// weight. Fields that yield no value in the sample event, collide with an
// existing header, or look time-like are skipped. Up to three candidates
// per wanted column are examined.
func SmartColumns(topkeys []TopKey, sampleParsed map[string]any, sampleEvent map[string]any, maxCols int) []ColumnDef {
	if maxCols < 1 {
		maxCols = 1
	} else if maxCols > 10 {
		maxCols = 10
	}

	ranked := make([]TopKey, len(topkeys))
	copy(ranked, topkeys)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Weight > ranked[j].Weight })

	maxChecks := maxCols * 3
	if maxChecks > len(ranked) {
		maxChecks = len(ranked)
	}

	var defs []ColumnDef
	used := map[string]bool{}
	for i := 0; i < maxChecks && len(defs) < maxCols; i++ {
		field := ranked[i].Key
		if field == "" {
			continue
		}
		display, _, ok := ExtractFieldValue(field, sampleParsed, sampleEvent)
		if !ok || used[display] {
			continue
		}
		if isTimeField(display) {
			continue
		}
		used[display] = true
		defs = append(defs, ColumnDef{Field: field, Display: display})
	}
	return defs
}

func isTimeField(display string) bool {
	lower := strings.ToLower(display)
	for _, pat := range timeFieldPatterns {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	return false
}

// ExtractFieldValue resolves a topkeys field against an event. Fields
// prefixed with "json." navigate the parsed message body, others read the
// event envelope directly. Object values fall back to their first useful
// primitive leaf. Returns the header name, the cell value, and whether
// anything usable was found.
func ExtractFieldValue(field string, parsed map[string]any, event map[string]any) (string, string, bool) {
	var value any
	if rest, ok := strings.CutPrefix(field, "json."); ok {
		value = navigatePath(parsed, strings.Split(rest, "."))
	} else if event != nil {
		value = event[field]
	}

	if obj, ok := value.(map[string]any); ok {
		name, leaf, found := firstUsefulLeaf(obj, 0)
		if !found {
			return "", "", false
		}
		return titleCase(name), Truncate(leaf, cellWidth), true
	}

	if value == nil {
		return "", "", false
	}
	str := strings.TrimSpace(Cell(value))
	if str == "" {
		return "", "", false
	}
	parts := strings.Split(field, ".")
	return titleCase(parts[len(parts)-1]), Truncate(str, cellWidth), true
}

func navigatePath(data map[string]any, path []string) any {
	var cur any = data
	for _, part := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}

// firstUsefulLeaf walks an object up to three levels deep looking for a
// primitive worth displaying. Long values and hex-id-looking strings are
// skipped.
func firstUsefulLeaf(obj map[string]any, depth int) (string, string, bool) {
	if depth >= 3 {
		return "", "", false
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := obj[k].(type) {
		case string, float64, bool, int:
			str := strings.TrimSpace(Cell(v))
			if str != "" && usefulPrimitive(str) {
				return k, str, true
			}
		case []any:
			if len(v) > 0 && len(v) <= 5 && allPrimitive(v) {
				if len(v) > 3 {
					v = v[:3]
				}
				return k, Cell(v), true
			}
		}
	}
	for _, k := range keys {
		if nested, ok := obj[k].(map[string]any); ok {
			if name, leaf, found := firstUsefulLeaf(nested, depth+1); found {
				return name, leaf, true
			}
		}
	}
	return "", "", false
}

func usefulPrimitive(s string) bool {
	if len(s) > 100 {
		return false
	}
	if len(s) > 20 && strings.IndexFunc(s, func(r rune) bool {
		return !strings.ContainsRune("0123456789abcdefABCDEF-{}", r)
	}) < 0 {
		// Looks like a GUID or hash, not worth a column.
		return false
	}
	return true
}

func allPrimitive(items []any) bool {
	for _, item := range items {
		switch item.(type) {
		case string, float64, int, bool:
		default:
			return false
		}
	}
	return true
}

func titleCase(field string) string {
	words := strings.Split(strings.ReplaceAll(field, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
