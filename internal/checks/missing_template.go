package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar"

	"themecheck/internal/ast"
	"themecheck/internal/check"
	"themecheck/internal/diag"
	"themecheck/internal/source"
	"themecheck/internal/visitor"
)

var templateDirs = map[string]string{
	"render":  "snippets",
	"include": "snippets",
	"section": "sections",
}

// MissingTemplate reports render, include and section tags whose target
// file does not exist.
var MissingTemplate check.Check = &check.Definition{
	M: check.Meta{
		ID:       "MissingTemplate",
		Name:     "Avoid missing templates",
		Severity: diag.SevError,
		Kinds:    []source.Kind{source.KindTemplate},
		Schema: map[string]check.SettingSpec{
			"ignore_missing": {
				Type:        "array",
				Default:     []string{},
				Description: "Glob patterns of template paths that may be missing.",
			},
		},
		Docs: check.Docs{
			Description: "Reports {% render %}, {% include %} and {% section %} targets that do not exist.",
			Recommended: true,
		},
	},
	Create: func(c *check.Context) check.Instance {
		ignore := c.Settings.Strings("ignore_missing")
		return &check.Funcs{Nodes: visitor.Handlers{}.On(ast.TypeLiquidTag, func(ctx context.Context, n ast.Node, _ []ast.Node) error {
			tag := n.(*ast.LiquidTag)
			dir, ok := templateDirs[tag.Name]
			if !ok {
				return nil
			}
			name, start, end, ok := quoted(tag.Markup)
			if !ok {
				return nil
			}
			rel := dir + "/" + name + ".liquid"
			if ignored(rel, ignore) || templateExists(ctx, c, rel) {
				return nil
			}
			c.Report(check.Draft{
				Message: fmt.Sprintf("'%s' does not exist", rel),
				Start:   tag.MarkupLoc.Start + start,
				End:     tag.MarkupLoc.Start + end,
			})
			return nil
		})}
	},
}

// quoted returns the leading string literal of markup and its byte range,
// quotes included.
func quoted(markup string) (string, int, int, bool) {
	if markup == "" || (markup[0] != '\'' && markup[0] != '"') {
		return "", 0, 0, false
	}
	closing := strings.IndexByte(markup[1:], markup[0])
	if closing < 0 {
		return "", 0, 0, false
	}
	return markup[1 : closing+1], 0, closing + 2, true
}

// ignored matches rel against ignore_missing globs; "**" spans directories.
func ignored(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func templateExists(ctx context.Context, c *check.Context, rel string) bool {
	if _, ok := c.Document(rel); ok {
		return true
	}
	return c.FS != nil && c.FS.FileExists(ctx, rel)
}
