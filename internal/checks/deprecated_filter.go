package checks

import (
	"context"
	"fmt"

	"themecheck/internal/ast"
	"themecheck/internal/check"
	"themecheck/internal/diag"
	"themecheck/internal/docset"
	"themecheck/internal/fix"
	"themecheck/internal/source"
	"themecheck/internal/visitor"
)

// DeprecatedFilter reports filters the docset marks as deprecated and
// suggests their replacement.
var DeprecatedFilter check.Check = &check.Definition{
	M: check.Meta{
		ID:       "DeprecatedFilter",
		Name:     "Discourage use of deprecated filters",
		Severity: diag.SevWarning,
		Kinds:    []source.Kind{source.KindTemplate},
		Docs: check.Docs{
			Description: "Reports deprecated Liquid filters.",
			Recommended: true,
		},
	},
	Create: func(c *check.Context) check.Instance {
		return &deprecatedFilter{c: c}
	},
}

type deprecatedFilter struct {
	c          *check.Context
	deprecated map[string]docset.Entry
}

func (d *deprecatedFilter) OnStart(ctx context.Context) error {
	if d.c.Docset == nil {
		return nil
	}
	filters, err := d.c.Docset.Filters(ctx)
	if err != nil {
		return fmt.Errorf("load filters: %w", err)
	}
	d.deprecated = make(map[string]docset.Entry)
	for _, f := range filters {
		if f.Deprecated {
			d.deprecated[f.Name] = f
		}
	}
	return nil
}

func (d *deprecatedFilter) Handlers() visitor.Handlers {
	return visitor.Handlers{}.On(ast.TypeLiquidFilter, func(_ context.Context, n ast.Node, _ []ast.Node) error {
		f := n.(*ast.LiquidFilter)
		entry, ok := d.deprecated[f.Name]
		if !ok {
			return nil
		}
		draft := check.Draft{
			Message: fmt.Sprintf("Deprecated filter '%s'", f.Name),
			Start:   f.NameLoc.Start,
			End:     f.NameLoc.End,
		}
		if entry.Replacement != "" {
			draft.Message = fmt.Sprintf("Deprecated filter '%s', consider using '%s'", f.Name, entry.Replacement)
			loc := f.NameLoc
			draft.Suggest = []diag.Suggestion{{
				Message: fmt.Sprintf("Replace '%s' with '%s'", f.Name, entry.Replacement),
				Fix: fix.StringFix(func(sc *fix.StringCorrector) {
					sc.Replace(loc.Start, loc.End, entry.Replacement)
				}),
			}}
		}
		d.c.Report(draft)
		return nil
	})
}
