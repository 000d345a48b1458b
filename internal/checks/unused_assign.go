package checks

import (
	"context"
	"fmt"
	"strings"

	"themecheck/internal/ast"
	"themecheck/internal/check"
	"themecheck/internal/diag"
	"themecheck/internal/fix"
	"themecheck/internal/source"
	"themecheck/internal/visitor"
)

// UnusedAssign reports variables that are assigned but never read.
var UnusedAssign check.Check = &check.Definition{
	M: check.Meta{
		ID:       "UnusedAssign",
		Name:     "Prevent unused assigns",
		Severity: diag.SevWarning,
		Fixable:  true,
		Kinds:    []source.Kind{source.KindTemplate},
		Docs: check.Docs{
			Description: "Reports {% assign %} tags whose variable is never used. Names starting with _ are ignored.",
			Recommended: true,
		},
	},
	Create: func(c *check.Context) check.Instance {
		return &unusedAssign{c: c, used: make(map[string]struct{})}
	},
}

type unusedAssign struct {
	c       *check.Context
	assigns []assignment
	used    map[string]struct{}
}

type assignment struct {
	name string
	tag  *ast.LiquidTag
}

func (u *unusedAssign) Handlers() visitor.Handlers {
	return visitor.Handlers{}.
		On(ast.TypeLiquidTag, func(_ context.Context, n ast.Node, _ []ast.Node) error {
			tag := n.(*ast.LiquidTag)
			if tag.Name != "assign" {
				return nil
			}
			name, _, ok := strings.Cut(tag.Markup, "=")
			name = strings.TrimSpace(name)
			if !ok || name == "" || strings.HasPrefix(name, "_") {
				return nil
			}
			u.assigns = append(u.assigns, assignment{name: name, tag: tag})
			return nil
		}).
		On(ast.TypeVariableLookup, func(_ context.Context, n ast.Node, _ []ast.Node) error {
			u.used[n.(*ast.VariableLookup).Name] = struct{}{}
			return nil
		})
}

func (u *unusedAssign) OnEnd(context.Context) error {
	text := u.c.Source.Text
	for _, a := range u.assigns {
		if _, ok := u.used[a.name]; ok {
			continue
		}
		start, end := removalRange(text, a.tag.Loc)
		u.c.Report(check.Draft{
			Message: fmt.Sprintf("The variable '%s' is assigned but not used", a.name),
			Start:   a.tag.Loc.Start,
			End:     a.tag.Loc.End,
			Fix: fix.StringFix(func(sc *fix.StringCorrector) {
				sc.Remove(start, end)
			}),
		})
	}
	return nil
}

// removalRange widens span to the whole line when the tag is alone on it.
func removalRange(text string, span ast.Span) (int, int) {
	lineStart := span.Start
	for lineStart > 0 && (text[lineStart-1] == ' ' || text[lineStart-1] == '\t') {
		lineStart--
	}
	if lineStart > 0 && text[lineStart-1] != '\n' {
		return span.Start, span.End
	}
	end := span.End
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	switch {
	case end < len(text) && text[end] == '\n':
		return lineStart, end + 1
	case end == len(text):
		return lineStart, end
	}
	return span.Start, span.End
}
