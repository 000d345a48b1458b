package checks

import (
	"context"
	"fmt"

	"themecheck/internal/ast"
	"themecheck/internal/check"
	"themecheck/internal/diag"
	"themecheck/internal/fix"
	"themecheck/internal/source"
	"themecheck/internal/visitor"
)

// SpaceInsideBraces wants exactly one space inside Liquid delimiters.
var SpaceInsideBraces check.Check = &check.Definition{
	M: check.Meta{
		ID:       "SpaceInsideBraces",
		Name:     "Ensure consistent spacing inside Liquid delimiters",
		Severity: diag.SevInfo,
		Fixable:  true,
		Kinds:    []source.Kind{source.KindTemplate},
		Docs: check.Docs{
			Description: "Reports missing or repeated spaces after {{ / {% and before }} / %}.",
			Recommended: true,
		},
	},
	Create: func(c *check.Context) check.Instance {
		inspect := func(loc ast.Span, wsStart, wsEnd bool, open, close string) {
			innerStart := loc.Start + 2
			if wsStart {
				innerStart++
			}
			innerEnd := loc.End - 2
			if wsEnd {
				innerEnd--
			}
			braces(c, loc, innerStart, innerEnd, open, close)
		}
		return &check.Funcs{Nodes: visitor.Handlers{}.
			On(ast.TypeLiquidVariableOutput, func(_ context.Context, n ast.Node, _ []ast.Node) error {
				out := n.(*ast.LiquidVariableOutput)
				inspect(out.Loc, out.WhitespaceStart, out.WhitespaceEnd, "{{", "}}")
				return nil
			}).
			On(ast.TypeLiquidTag, func(_ context.Context, n ast.Node, _ []ast.Node) error {
				tag := n.(*ast.LiquidTag)
				inspect(tag.OpenLoc, tag.WhitespaceStart, tag.WhitespaceEnd, "{%", "%}")
				return nil
			})}
	},
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func braces(c *check.Context, loc ast.Span, innerStart, innerEnd int, open, close string) {
	text := c.Source.Text
	if innerStart >= innerEnd {
		return
	}
	// Skip empty markup like {{ }}.
	blank := true
	for i := innerStart; i < innerEnd; i++ {
		if !isBlank(text[i]) {
			blank = false
			break
		}
	}
	if blank {
		return
	}

	if !isBlank(text[innerStart]) {
		c.Report(check.Draft{
			Message: fmt.Sprintf("Space missing after '%s'", open),
			Start:   loc.Start,
			End:     innerStart,
			Fix:     fix.StringFix(func(sc *fix.StringCorrector) { sc.Insert(innerStart, " ") }),
		})
	} else if run := spaceRun(text, innerStart, innerEnd, 1); run > 1 {
		c.Report(check.Draft{
			Message: fmt.Sprintf("Too many spaces after '%s'", open),
			Start:   loc.Start,
			End:     innerStart + run,
			Fix:     fix.StringFix(func(sc *fix.StringCorrector) { sc.Replace(innerStart, innerStart+run, " ") }),
		})
	}

	if !isBlank(text[innerEnd-1]) {
		c.Report(check.Draft{
			Message: fmt.Sprintf("Space missing before '%s'", close),
			Start:   innerEnd,
			End:     loc.End,
			Fix:     fix.StringFix(func(sc *fix.StringCorrector) { sc.Insert(innerEnd, " ") }),
		})
	} else if run := spaceRun(text, innerStart, innerEnd, -1); run > 1 {
		c.Report(check.Draft{
			Message: fmt.Sprintf("Too many spaces before '%s'", close),
			Start:   innerEnd - run,
			End:     loc.End,
			Fix:     fix.StringFix(func(sc *fix.StringCorrector) { sc.Replace(innerEnd-run, innerEnd, " ") }),
		})
	}
}

// spaceRun counts spaces at the start (dir 1) or end (dir -1) of
// [start, end). Runs that contain other whitespace count as zero: multi-line
// markup is left alone.
func spaceRun(text string, start, end, dir int) int {
	n := 0
	if dir > 0 {
		for i := start; i < end && isBlank(text[i]); i++ {
			if text[i] != ' ' {
				return 0
			}
			n++
		}
		return n
	}
	for i := end - 1; i >= start && isBlank(text[i]); i-- {
		if text[i] != ' ' {
			return 0
		}
		n++
	}
	return n
}
