package checks

import (
	"context"
	"strings"
	"testing"

	"themecheck/internal/check"
	"themecheck/internal/diag"
	"themecheck/internal/docset"
	"themecheck/internal/fix"
	"themecheck/internal/parser"
	"themecheck/internal/source"
)

const root = "file:///theme"

func parseFor(uri string) source.ParseFunc {
	if source.KindForURI(uri) == source.KindData {
		return parser.ParseJSON
	}
	return parser.ParseLiquid
}

func newDoc(rel, text string) *source.SourceCode {
	uri := source.JoinURI(root, rel)
	return source.New(uri, 1, text, parseFor(uri))
}

func runCheck(t *testing.T, chk check.Check, doc *source.SourceCode, shared *check.Shared) []diag.Offense {
	t.Helper()
	if shared == nil {
		shared = &check.Shared{}
	}
	if shared.Root == "" {
		shared.Root = root
	}
	offs, err := check.Run(context.Background(), chk, doc, shared)
	if err != nil {
		t.Fatalf("%s failed: %v", chk.Meta().ID, err)
	}
	return offs
}

func applyFixes(t *testing.T, doc *source.SourceCode, builders ...fix.Builder) string {
	t.Helper()
	c, err := fix.NewCorrector(doc.Kind, doc.Text)
	if err != nil {
		t.Fatalf("corrector: %v", err)
	}
	descs, err := fix.Realize(c, builders...)
	if err != nil {
		t.Fatalf("realize: %v", err)
	}
	many := make(fix.Many, len(descs))
	for i, d := range descs {
		many[i] = d
	}
	out, err := fix.Apply(doc.Text, many)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	return out
}

func fixesOf(offs []diag.Offense) []fix.Builder {
	var out []fix.Builder
	for _, o := range offs {
		if o.Fix != nil {
			out = append(out, o.Fix)
		}
	}
	return out
}

func TestRegistry(t *testing.T) {
	all := All()
	if len(all) != 8 {
		t.Fatalf("expected 8 checks, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Meta().ID >= all[i].Meta().ID {
			t.Fatalf("checks not sorted: %s before %s", all[i-1].Meta().ID, all[i].Meta().ID)
		}
	}
	if c, ok := Lookup("unusedassign"); !ok || c != UnusedAssign {
		t.Fatalf("lookup should ignore case")
	}
	if _, ok := Lookup("Nope"); ok {
		t.Fatalf("unexpected check")
	}
	if len(Recommended()) != len(all) {
		t.Fatalf("every built-in check is recommended")
	}
}

func TestSyntaxErrors(t *testing.T) {
	offs := runCheck(t, LiquidHTMLSyntaxError, newDoc("sections/a.liquid", "{% if x %}"), nil)
	if len(offs) != 1 || offs[0].Message != "Unclosed tag 'if'" || offs[0].Severity != diag.SevError {
		t.Fatalf("unexpected offenses %+v", offs)
	}
	if offs := runCheck(t, LiquidHTMLSyntaxError, newDoc("sections/b.liquid", "{{ ok }}"), nil); len(offs) != 0 {
		t.Fatalf("valid template reported: %+v", offs)
	}
	offs = runCheck(t, JSONSyntaxError, newDoc("config/a.json", `{"a": }`), nil)
	if len(offs) != 1 || offs[0].Check != "JSONSyntaxError" {
		t.Fatalf("unexpected offenses %+v", offs)
	}
}

func TestUnusedAssign(t *testing.T) {
	text := "{% assign a = 1 %}\n{% assign b = 2 %}\n{{ b }}\n{% assign _c = 3 %}"
	doc := newDoc("snippets/a.liquid", text)
	offs := runCheck(t, UnusedAssign, doc, nil)
	if len(offs) != 1 || !strings.Contains(offs[0].Message, "'a'") {
		t.Fatalf("unexpected offenses %+v", offs)
	}
	got := applyFixes(t, doc, fixesOf(offs)...)
	if want := "{% assign b = 2 %}\n{{ b }}\n{% assign _c = 3 %}"; got != want {
		t.Fatalf("fix produced %q", got)
	}
}

func TestUnusedAssignUsages(t *testing.T) {
	cases := []string{
		"{% assign a = 1 %}{% assign b = a | plus: 1 %}{{ b }}",
		"{% assign items = 1 %}{% for x in items %}{{ x }}{% endfor %}",
		"{% assign n = 1 %}{% if n > 0 %}yes{% endif %}",
		"{% assign s = 'x' %}{{ 'y' | append: s }}",
	}
	for _, text := range cases {
		if offs := runCheck(t, UnusedAssign, newDoc("snippets/a.liquid", text), nil); len(offs) != 0 {
			t.Fatalf("%q: unexpected offenses %+v", text, offs)
		}
	}
}

func TestUnusedAssignInlineRemoval(t *testing.T) {
	doc := newDoc("snippets/a.liquid", "x {% assign a = 1 %} y")
	offs := runCheck(t, UnusedAssign, doc, nil)
	if got := applyFixes(t, doc, fixesOf(offs)...); got != "x  y" {
		t.Fatalf("fix produced %q", got)
	}
}

func TestSpaceInsideBraces(t *testing.T) {
	cases := []struct {
		text  string
		count int
		fixed string
	}{
		{"{{x}}", 2, "{{ x }}"},
		{"{{  x }}", 1, "{{ x }}"},
		{"{{ x   }}", 1, "{{ x }}"},
		{"{{- x-}}", 1, "{{- x -}}"},
		{"{% if a%}b{% endif %}", 1, "{% if a %}b{% endif %}"},
		{"{{ x }}", 0, "{{ x }}"},
		{"{{\n  x\n}}", 0, "{{\n  x\n}}"},
	}
	for _, tc := range cases {
		doc := newDoc("snippets/a.liquid", tc.text)
		offs := runCheck(t, SpaceInsideBraces, doc, nil)
		if len(offs) != tc.count {
			t.Fatalf("%q: expected %d offenses, got %+v", tc.text, tc.count, offs)
		}
		if tc.count == 0 {
			continue
		}
		if got := applyFixes(t, doc, fixesOf(offs)...); got != tc.fixed {
			t.Fatalf("%q: fix produced %q", tc.text, got)
		}
	}
}

func TestDeprecatedFilterSuggestion(t *testing.T) {
	doc := newDoc("snippets/a.liquid", "{{ product | img_url: '100x' }}")
	offs := runCheck(t, DeprecatedFilter, doc, &check.Shared{Docset: &docset.Builtin{}})
	if len(offs) != 1 {
		t.Fatalf("expected 1 offense, got %+v", offs)
	}
	if offs[0].Fixable() || len(offs[0].Suggestions) != 1 {
		t.Fatalf("expected a suggestion and no fix: %+v", offs[0])
	}
	if got := applyFixes(t, doc, offs[0].Suggestions[0].Fix); got != "{{ product | image_url: '100x' }}" {
		t.Fatalf("suggestion produced %q", got)
	}
	if offs := runCheck(t, DeprecatedFilter, doc, nil); len(offs) != 0 {
		t.Fatalf("without a docset nothing is deprecated")
	}
}

func TestUnicodeNormalization(t *testing.T) {
	doc := newDoc("snippets/a.liquid", "Cafe\u0301 {{ x }}")
	offs := runCheck(t, UnicodeNormalization, doc, nil)
	if len(offs) != 1 {
		t.Fatalf("expected 1 offense, got %+v", offs)
	}
	if got := applyFixes(t, doc, fixesOf(offs)...); got != "Caf\u00e9 {{ x }}" {
		t.Fatalf("fix produced %q", got)
	}
	if offs := runCheck(t, UnicodeNormalization, newDoc("snippets/b.liquid", "Caf\u00e9"), nil); len(offs) != 0 {
		t.Fatalf("NFC text reported")
	}
}

const defaultLocale = `{"a": {"b": "B", "c": "C"}, "items": {"one": "1", "other": "n"}}`

func TestMatchingTranslations(t *testing.T) {
	base := newDoc("locales/en.default.json", defaultLocale)
	fr := newDoc("locales/fr.json", `{"a": {"b": "Bf", "x": "X"}, "items": {"one": "1", "many": "m", "other": "n"}}`)
	shared := &check.Shared{Theme: []*source.SourceCode{base, fr}}

	if offs := runCheck(t, MatchingTranslations, base, shared); len(offs) != 0 {
		t.Fatalf("default locale compared with itself: %+v", offs)
	}
	offs := runCheck(t, MatchingTranslations, fr, shared)
	if len(offs) != 2 {
		t.Fatalf("expected 2 offenses, got %+v", offs)
	}
	missing, extra := offs[0], offs[1]
	if !strings.Contains(missing.Message, "'a.c'") || !missing.Fixable() {
		t.Fatalf("unexpected missing offense %+v", missing)
	}
	if !strings.Contains(extra.Message, "'a.x'") || extra.Fixable() || len(extra.Suggestions) != 1 {
		t.Fatalf("unexpected extra offense %+v", extra)
	}

	want := `{
  "a": {
    "b": "Bf",
    "x": "X",
    "c": "TRANSLATION MISSING"
  },
  "items": {
    "one": "1",
    "many": "m",
    "other": "n"
  }
}`
	if got := applyFixes(t, fr, missing.Fix); got != want {
		t.Fatalf("fix produced:\n%s", got)
	}
	removed := `{
  "a": {
    "b": "Bf"
  },
  "items": {
    "one": "1",
    "many": "m",
    "other": "n"
  }
}`
	if got := applyFixes(t, fr, extra.Suggestions[0].Fix); got != removed {
		t.Fatalf("suggestion produced:\n%s", got)
	}
}

func TestMatchingTranslationsReadsDefaultFromFS(t *testing.T) {
	fsys := docset.NewOverlay(nil)
	fsys.Set("locales/en.default.json", defaultLocale)
	de := newDoc("locales/de.json", `{"a": {"b": "B", "c": "C"}}`)
	offs := runCheck(t, MatchingTranslations, de, &check.Shared{FS: fsys, Theme: []*source.SourceCode{de}})
	if len(offs) != 2 {
		t.Fatalf("expected the two plural keys to be missing, got %+v", offs)
	}
	// Files outside locales/ are not compared.
	cfg := newDoc("config/settings_data.json", `{"x": 1}`)
	if offs := runCheck(t, MatchingTranslations, cfg, &check.Shared{FS: fsys}); len(offs) != 0 {
		t.Fatalf("non-locale file compared: %+v", offs)
	}
}

func TestMissingTemplate(t *testing.T) {
	fsys := docset.NewOverlay(nil)
	fsys.Set("snippets/exists.liquid", "x")
	text := `{% render 'exists' %}{% render 'missing' %}{% section "gone" %}{% render 'ignored-x' %}`
	doc := newDoc("sections/main.liquid", text)
	shared := &check.Shared{
		FS:       fsys,
		Settings: map[string]check.Settings{"MissingTemplate": {"ignore_missing": []any{"snippets/ignored-*"}}},
	}
	offs := runCheck(t, MissingTemplate, doc, shared)
	if len(offs) != 2 {
		t.Fatalf("expected 2 offenses, got %+v", offs)
	}
	if got := text[offs[0].Start.Index:offs[0].End.Index]; got != "'missing'" {
		t.Fatalf("unexpected range %q", got)
	}
	if offs[1].Message != "'sections/gone.liquid' does not exist" {
		t.Fatalf("unexpected message %q", offs[1].Message)
	}
}

func TestMissingTemplateIgnoreNestedGlob(t *testing.T) {
	text := `{% render 'icons/star' %}{% render 'card' %}`
	doc := newDoc("sections/main.liquid", text)
	shared := &check.Shared{
		FS:       docset.NewOverlay(nil),
		Settings: map[string]check.Settings{"MissingTemplate": {"ignore_missing": []any{"snippets/**"}}},
	}
	if offs := runCheck(t, MissingTemplate, doc, shared); len(offs) != 0 {
		t.Fatalf("expected nested and top-level snippets to be ignored, got %+v", offs)
	}

	cases := []struct {
		rel     string
		pattern string
		want    bool
	}{
		{"snippets/icons/star.liquid", "snippets/**", true},
		{"snippets/icons/star.liquid", "snippets/**/*.liquid", true},
		{"snippets/icons/star.liquid", "snippets/*", false},
		{"snippets/card.liquid", "snippets/*", true},
		{"sections/card.liquid", "snippets/**", false},
	}
	for _, tc := range cases {
		if got := ignored(tc.rel, []string{tc.pattern}); got != tc.want {
			t.Errorf("ignored(%q, %q) = %v, want %v", tc.rel, tc.pattern, got, tc.want)
		}
	}
}
