package diag

import (
	"sort"

	"themecheck/internal/fix"
	"themecheck/internal/source"
)

// Suggestion is an alternative fix that is only applied on explicit request.
type Suggestion struct {
	Message string
	Fix     fix.Builder
}

// Offense is one reported violation. It is never mutated after a check
// produces it.
type Offense struct {
	Check       string
	Message     string
	Severity    Severity
	URI         string
	Start       source.Position
	End         source.Position
	Fix         fix.Builder
	Suggestions []Suggestion
}

func (o *Offense) Fixable() bool {
	return o.Fix != nil
}

// Intersects reports whether the offense range touches [start, end] (byte
// offsets). An empty range on either side counts as a point.
func (o *Offense) Intersects(start, end int) bool {
	if start == end || o.Start.Index == o.End.Index {
		return o.Start.Index <= end && start <= o.End.Index
	}
	return o.Start.Index < end && start < o.End.Index
}

// Sort orders offenses by uri, start, end, severity (desc) and check id.
func Sort(items []Offense) {
	sort.SliceStable(items, func(i, j int) bool {
		oi, oj := items[i], items[j]
		if oi.URI != oj.URI {
			return oi.URI < oj.URI
		}
		if oi.Start.Index != oj.Start.Index {
			return oi.Start.Index < oj.Start.Index
		}
		if oi.End.Index != oj.End.Index {
			return oi.End.Index < oj.End.Index
		}
		if oi.Severity != oj.Severity {
			return oi.Severity > oj.Severity
		}
		return oi.Check < oj.Check
	})
}
