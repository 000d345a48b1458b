package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"themecheck/internal/diag"
	"themecheck/internal/source"
)

type palette struct {
	path    *color.Color
	check   *color.Color
	caret   *color.Color
	err     *color.Color
	warning *color.Color
	info    *color.Color
	summary *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		path:    color.New(color.Bold),
		check:   color.New(color.FgCyan),
		caret:   color.New(color.FgGreen, color.Bold),
		err:     color.New(color.FgRed, color.Bold),
		warning: color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgBlue, color.Bold),
		summary: color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.path, p.check, p.caret, p.err, p.warning, p.info, p.summary} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warning
	default:
		return p.info
	}
}

// Pretty prints one offense per entry as
//
//	<path>:<line>:<col>: <SEV> <Check>: <Message>
//
// followed, with Options.Context, by the offending line and a ^~~~
// underline, and ends with a summary line.
func Pretty(w io.Writer, items []diag.Offense, opts Options) error {
	p := newPalette(opts.Color)
	shown := items
	if opts.Max > 0 && opts.Max < len(shown) {
		shown = shown[:opts.Max]
	}
	texts := make(map[string]*source.LineIndex)
	for i := range shown {
		o := &shown[i]
		if _, err := fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			p.path.Sprint(opts.path(o.URI)),
			o.Start.Line+1, o.Start.Character+1,
			p.severity(o.Severity).Sprint(o.Severity.String()),
			p.check.Sprint(o.Check),
			o.Message,
		); err != nil {
			return err
		}
		if !opts.Context || opts.Text == nil {
			continue
		}
		li, ok := texts[o.URI]
		if !ok {
			if text, found := opts.Text(o.URI); found {
				li = source.NewLineIndex(text)
			}
			texts[o.URI] = li
		}
		if li == nil {
			continue
		}
		if err := writeContext(w, p, li, o); err != nil {
			return err
		}
	}
	if dropped := len(items) - len(shown); dropped > 0 {
		if _, err := fmt.Fprintf(w, "... %d more %s not shown\n", dropped, plural(dropped, "offense")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, p.summary.Sprint(Summary(Count(items))))
	return err
}

func writeContext(w io.Writer, p palette, li *source.LineIndex, o *diag.Offense) error {
	start := li.LineStart(o.Start.Line)
	line := strings.TrimSuffix(li.Line(o.Start.Line), "\r")
	end := start + len(line)

	from := clamp(o.Start.Index, start, end) - start
	to := clamp(o.End.Index, start, end) - start
	if to < from {
		to = from
	}

	var pad strings.Builder
	for _, r := range line[:from] {
		if r == '\t' {
			pad.WriteByte('\t')
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width := max(runewidth.StringWidth(line[from:to]), 1)
	underline := "^" + strings.Repeat("~", width-1)

	_, err := fmt.Fprintf(w, "  %s\n  %s%s\n", line, pad.String(), p.caret.Sprint(underline))
	return err
}

// Summary renders the final line of a pretty report.
func Summary(c Counts) string {
	total := c.Total()
	if total == 0 {
		return "no offenses found"
	}
	s := fmt.Sprintf("%d %s (%d %s, %d %s, %d info) in %d %s",
		total, plural(total, "offense"),
		c.Errors, plural(c.Errors, "error"),
		c.Warnings, plural(c.Warnings, "warning"),
		c.Info,
		c.Files, plural(c.Files, "file"),
	)
	if c.Fixable > 0 {
		s += fmt.Sprintf(", %d auto-correctable", c.Fixable)
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
