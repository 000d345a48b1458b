package checks

import (
	"context"

	"themecheck/internal/check"
	"themecheck/internal/diag"
	"themecheck/internal/parser"
	"themecheck/internal/source"
)

// LiquidHTMLSyntaxError reports templates the parser rejected.
var LiquidHTMLSyntaxError check.Check = &check.Definition{
	M: check.Meta{
		ID:       "LiquidHTMLSyntaxError",
		Name:     "Prevent LiquidHTML syntax errors",
		Severity: diag.SevError,
		Kinds:    []source.Kind{source.KindTemplate},
		Docs: check.Docs{
			Description: "Reports Liquid syntax the template parser cannot read.",
			Recommended: true,
		},
	},
	Create: syntaxError,
}

// JSONSyntaxError reports data files that are not valid JSON.
var JSONSyntaxError check.Check = &check.Definition{
	M: check.Meta{
		ID:       "JSONSyntaxError",
		Name:     "Prevent JSON syntax errors",
		Severity: diag.SevError,
		Kinds:    []source.Kind{source.KindData},
		Docs: check.Docs{
			Description: "Reports JSON files the parser cannot read.",
			Recommended: true,
		},
	},
	Create: syntaxError,
}

func syntaxError(c *check.Context) check.Instance {
	return &check.Funcs{
		Start: func(context.Context) error {
			err := c.Source.ParseErr
			if err == nil {
				return nil
			}
			if perr, ok := parser.AsError(err); ok {
				c.Report(check.Draft{Message: perr.Message, Start: perr.Start, End: perr.End})
				return nil
			}
			c.Report(check.Draft{Message: err.Error()})
			return nil
		},
	}
}
