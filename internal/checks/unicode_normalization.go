package checks

import (
	"context"

	"golang.org/x/text/unicode/norm"

	"themecheck/internal/ast"
	"themecheck/internal/check"
	"themecheck/internal/diag"
	"themecheck/internal/fix"
	"themecheck/internal/source"
	"themecheck/internal/visitor"
)

// UnicodeNormalization reports template text that is not in NFC.
var UnicodeNormalization check.Check = &check.Definition{
	M: check.Meta{
		ID:       "UnicodeNormalization",
		Name:     "Prevent non-normalized unicode",
		Severity: diag.SevInfo,
		Fixable:  true,
		Kinds:    []source.Kind{source.KindTemplate},
		Docs: check.Docs{
			Description: "Reports text that is not in Unicode Normalization Form C.",
			Recommended: true,
		},
	},
	Create: func(c *check.Context) check.Instance {
		return &check.Funcs{Nodes: visitor.Handlers{}.On(ast.TypeTextNode, func(_ context.Context, n ast.Node, _ []ast.Node) error {
			text := n.(*ast.TextNode)
			if norm.NFC.IsNormalString(text.Value) {
				return nil
			}
			loc := text.Loc
			normalized := norm.NFC.String(text.Value)
			c.Report(check.Draft{
				Message: "Text is not in Unicode Normalization Form C",
				Start:   loc.Start,
				End:     loc.End,
				Fix: fix.StringFix(func(sc *fix.StringCorrector) {
					sc.Replace(loc.Start, loc.End, normalized)
				}),
			})
			return nil
		})}
	},
}
