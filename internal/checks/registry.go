// Package checks holds the built-in theme checks.
package checks

import (
	"slices"
	"sort"
	"strings"

	"themecheck/internal/check"
)

var all = []check.Check{
	LiquidHTMLSyntaxError,
	JSONSyntaxError,
	UnusedAssign,
	SpaceInsideBraces,
	DeprecatedFilter,
	UnicodeNormalization,
	MatchingTranslations,
	MissingTemplate,
}

// All returns every built-in check sorted by id.
func All() []check.Check {
	out := slices.Clone(all)
	sort.Slice(out, func(i, j int) bool { return out[i].Meta().ID < out[j].Meta().ID })
	return out
}

// Recommended returns the checks enabled by default.
func Recommended() []check.Check {
	var out []check.Check
	for _, c := range All() {
		if c.Meta().Docs.Recommended {
			out = append(out, c)
		}
	}
	return out
}

// Lookup finds a check by id, ignoring case.
func Lookup(id string) (check.Check, bool) {
	for _, c := range all {
		if strings.EqualFold(c.Meta().ID, id) {
			return c, true
		}
	}
	return nil, false
}
