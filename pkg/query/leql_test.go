package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLEQLLimit(t *testing.T) {
	cases := []struct {
		query string
		want  int
		found bool
	}{
		{"where(action=LOGIN) limit(10)", 10, true},
		{"where(foo) LIMIT( 25 )", 25, true},
		{"where(foo) limit ( 5 )", 5, true},
		{"where(action=LOGIN)", 0, false},
		{"", 0, false},
		{"groupby(user) calculate(count)", 0, false},
	}
	for _, tc := range cases {
		got, found := ParseLEQLLimit(tc.query)
		assert.Equal(t, tc.found, found, tc.query)
		assert.Equal(t, tc.want, got, tc.query)
	}
}

func TestSmartMaxPages(t *testing.T) {
	cases := []struct {
		query       string
		defaultMax  int
		want        int
	}{
		{"where(foo) limit(3)", 10, 1},
		{"where(foo) limit(5)", 10, 2},
		{"where(foo) limit(10)", 10, 3},
		{"where(foo) limit(100)", 10, 3},
		{"where(foo)", 10, 10},
		{"where(foo)", 3, 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SmartMaxPages(tc.query, tc.defaultMax), tc.query)
	}
}
