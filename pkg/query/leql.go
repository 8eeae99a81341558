// Package query contains helpers for the two query languages the CLI
// passes through: LEQL for log search and openCypher for the asset graph.
package query

import (
	"regexp"
	"strconv"
)

var leqlLimitRe = regexp.MustCompile(`(?i)limit\s*\(\s*(\d+)\s*\)`)

// ParseLEQLLimit extracts the value of a limit(N) clause from a LEQL query.
// The second return is false when the query has no limit clause.
func ParseLEQLLimit(leql string) (int, bool) {
	m := leqlLimitRe.FindStringSubmatch(leql)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SmartMaxPages lowers the page budget when the query already bounds its
// result set with limit(N). Pages hold roughly 5 events, so a small limit
// never needs the full default.
func SmartMaxPages(leql string, defaultPages int) int {
	limit, ok := ParseLEQLLimit(leql)
	if !ok {
		return defaultPages
	}
	pages := limit/5 + 1
	if pages > 3 {
		pages = 3
	}
	if pages < 1 {
		pages = 1
	}
	return pages
}
