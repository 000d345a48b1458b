package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"themecheck/internal/diag"
	"themecheck/internal/fix"
	"themecheck/internal/source"
)

const (
	root = "file:///theme"
	uri  = "file:///theme/snippets/card.liquid"
	text = "{% assign x = 1 %}\n\t{{y}}\n"
)

func sample() []diag.Offense {
	li := source.NewLineIndex(text)
	return []diag.Offense{
		{
			Check:    "UnusedAssign",
			Message:  "The variable 'x' is assigned but not used",
			Severity: diag.SevWarning,
			URI:      uri,
			Start:    li.Position(0),
			End:      li.Position(18),
			Fix:      fix.StringFix(func(c *fix.StringCorrector) { c.Remove(0, 19) }),
		},
		{
			Check:    "SpaceInsideBraces",
			Message:  "Space missing after '{{'",
			Severity: diag.SevInfo,
			URI:      uri,
			Start:    li.Position(22),
			End:      li.Position(23),
			Suggestions: []diag.Suggestion{
				{Message: "Add a space"},
			},
		},
	}
}

func lookup(u string) (string, bool) {
	if u == uri {
		return text, true
	}
	return "", false
}

func TestPrettyWithContext(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, sample(), Options{Root: root, Text: lookup, Context: true}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	want := strings.Join([]string{
		"snippets/card.liquid:1:1: WARNING UnusedAssign: The variable 'x' is assigned but not used",
		"  {% assign x = 1 %}",
		"  ^~~~~~~~~~~~~~~~~~",
		"snippets/card.liquid:2:4: INFO SpaceInsideBraces: Space missing after '{{'",
		"  \t{{y}}",
		"  \t  ^",
		"2 offenses (0 errors, 1 warning, 1 info) in 1 file, 1 auto-correctable",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyTruncates(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, sample(), Options{Max: 1}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "/theme/snippets/card.liquid:1:1:") {
		t.Fatalf("expected an absolute path without root:\n%s", out)
	}
	if !strings.Contains(out, "... 1 more offense not shown") {
		t.Fatalf("missing truncation note:\n%s", out)
	}
	if strings.Contains(out, "SpaceInsideBraces") {
		t.Fatalf("truncated offense printed:\n%s", out)
	}
}

func TestPrettyEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, nil, Options{}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	if got := buf.String(); got != "no offenses found\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestJSONShape(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sample(), Options{}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var out struct {
		Offenses []map[string]any `json:"offenses"`
		Count    int              `json:"count"`
		Summary  Counts           `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 2 || out.Summary.Warnings != 1 || out.Summary.Fixable != 1 {
		t.Fatalf("unexpected totals %+v", out)
	}
	first := out.Offenses[0]
	for _, key := range []string{"check", "message", "severity", "uri", "start", "end", "fixable", "suggestions"} {
		if _, ok := first[key]; !ok {
			t.Fatalf("offense lacks %q: %v", key, first)
		}
	}
	if first["severity"] != "warning" || first["fixable"] != true {
		t.Fatalf("unexpected offense %v", first)
	}
	end, ok := first["end"].(map[string]any)
	if !ok || end["index"] != float64(18) || end["line"] != float64(0) || end["character"] != float64(18) {
		t.Fatalf("unexpected end position %v", first["end"])
	}
	suggestions, _ := out.Offenses[1]["suggestions"].([]any)
	if len(suggestions) != 1 || suggestions[0] != "Add a space" {
		t.Fatalf("unexpected suggestions %v", out.Offenses[1]["suggestions"])
	}
}

func TestMsgPackDecodes(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatMsgPack, sample(), Options{Root: root, Max: 1}); err != nil {
		t.Fatalf("msgpack: %v", err)
	}
	var out Output
	if err := msgpack.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || out.Truncated != 1 || out.Summary.Total() != 2 {
		t.Fatalf("unexpected output %+v", out)
	}
	if got := out.Offenses[0]; got.Path != "snippets/card.liquid" || got.Start.Index != 0 || got.End.Character != 18 {
		t.Fatalf("unexpected offense %+v", got)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatPretty, "JSON": FormatJSON, "msgpack": FormatMsgPack}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("sarif"); err == nil {
		t.Fatalf("expected an error for an unknown format")
	}
}

func TestUnifiedDiff(t *testing.T) {
	out, err := UnifiedDiff("snippets/card.liquid", "a\nb\nc\nd\ne\nf\ng\nh\n", "a\nB\nc\nd\ne\nf\ng\nh\n")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	text := string(out)
	for _, want := range []string{
		"--- a/snippets/card.liquid\n",
		"+++ b/snippets/card.liquid\n",
		"@@ -1,5 +1,5 @@",
		"\n a\n",
		"\n-b\n",
		"\n+B\n",
		"\n e\n",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("diff lacks %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, " f\n") {
		t.Fatalf("diff carries more than three context lines:\n%s", text)
	}

	if out, err := UnifiedDiff("x", "same", "same"); err != nil || out != nil {
		t.Fatalf("expected no diff for equal input, got %q, %v", out, err)
	}
}

func TestBuildHunkLineOverflow(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("int cannot exceed int32 range")
	}
	var wide int64 = math.MaxInt32
	wide++
	ops := []lineOp{{kind: '-', text: "x\n", origAt: int(wide)}}
	if _, err := buildHunk(ops); err == nil {
		t.Fatalf("expected an error for a line number beyond int32")
	}

	h, err := buildHunk([]lineOp{{kind: '+', text: "y\n", origAt: 4, newAt: 4}})
	if err != nil {
		t.Fatalf("buildHunk: %v", err)
	}
	if h.OrigStartLine != 4 || h.OrigLines != 0 || h.NewStartLine != 5 || h.NewLines != 1 {
		t.Fatalf("unexpected hunk header %+v", h)
	}
}
