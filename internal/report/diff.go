package report

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/sourcegraph/go-diff/diff"
)

// diffContext is the number of unchanged lines around each hunk.
const diffContext = 3

type lineOp struct {
	kind   byte // ' ', '-' или '+'
	text   string
	origAt int // строк оригинала до op
	newAt  int
}

// UnifiedDiff renders the change from before to after as a unified diff
// with a/ and b/ prefixed names. Equal inputs yield nil.
func UnifiedDiff(name, before, after string) ([]byte, error) {
	if before == after {
		return nil, nil
	}
	ops := lineOps(before, after)
	fd := &diff.FileDiff{
		OrigName: "a/" + name,
		NewName:  "b/" + name,
	}
	for _, r := range hunkRanges(ops) {
		h, err := buildHunk(ops[r[0]:r[1]])
		if err != nil {
			return nil, err
		}
		fd.Hunks = append(fd.Hunks, h)
	}
	return diff.PrintFileDiff(fd)
}

func lineOps(before, after string) []lineOp {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var ops []lineOp
	orig, next := 0, 0
	for _, d := range diffs {
		kind := byte(' ')
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			kind = '-'
		case diffmatchpatch.DiffInsert:
			kind = '+'
		}
		for _, line := range splitLines(d.Text) {
			ops = append(ops, lineOp{kind: kind, text: line, origAt: orig, newAt: next})
			if kind != '+' {
				orig++
			}
			if kind != '-' {
				next++
			}
		}
	}
	return ops
}

func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// hunkRanges groups changed ops with their context, merging hunks whose
// context would touch.
func hunkRanges(ops []lineOp) [][2]int {
	var out [][2]int
	for i, op := range ops {
		if op.kind == ' ' {
			continue
		}
		lo := max(i-diffContext, 0)
		hi := min(i+1+diffContext, len(ops))
		if n := len(out); n > 0 && lo <= out[n-1][1] {
			out[n-1][1] = hi
			continue
		}
		out = append(out, [2]int{lo, hi})
	}
	return out
}

func buildHunk(ops []lineOp) (*diff.Hunk, error) {
	var (
		body        strings.Builder
		origN, newN int32
		first       = ops[0]
	)
	origStart, err := safecast.Conv[int32](first.origAt)
	if err != nil {
		return nil, fmt.Errorf("diff: original line %d: %w", first.origAt, err)
	}
	newStart, err := safecast.Conv[int32](first.newAt)
	if err != nil {
		return nil, fmt.Errorf("diff: new line %d: %w", first.newAt, err)
	}
	for _, op := range ops {
		switch op.kind {
		case '-':
			origN++
		case '+':
			newN++
		default:
			origN++
			newN++
		}
		body.WriteByte(op.kind)
		body.WriteString(op.text)
		if !strings.HasSuffix(op.text, "\n") {
			body.WriteString("\n\\ No newline at end of file\n")
		}
	}
	h := &diff.Hunk{
		OrigStartLine: origStart,
		OrigLines:     origN,
		NewStartLine:  newStart,
		NewLines:      newN,
		Body:          []byte(body.String()),
	}
	if origN > 0 {
		h.OrigStartLine++
	}
	if newN > 0 {
		h.NewStartLine++
	}
	return h, nil
}
