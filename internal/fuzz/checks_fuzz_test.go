package fuzztests

import (
	"context"
	"errors"
	"testing"

	"themecheck/internal/check"
	"themecheck/internal/checks"
	"themecheck/internal/docset"
	"themecheck/internal/document"
	"themecheck/internal/fix"
)

func FuzzChecksAndFixes(f *testing.F) {
	for _, s := range templateSeeds {
		f.Add("snippets/card.liquid", s)
	}
	for _, s := range dataSeeds {
		f.Add("locales/fr.json", s)
	}
	f.Fuzz(func(t *testing.T, rel, input string) {
		if rel != "snippets/card.liquid" && rel != "locales/fr.json" {
			rel = "snippets/card.liquid"
		}
		input = clamp(input)
		docs := document.NewManager()
		uri := "file:///theme/" + rel
		docs.Open(uri, input, 1)
		doc, ok := docs.Get(uri)
		if !ok {
			t.Fatalf("document %s not stored", uri)
		}

		fs := docset.NewOverlay(nil)
		fs.Set("locales/en.default.json", `{"general": {"hello": "Hello"}}`)
		shared := &check.Shared{
			Root:   "file:///theme",
			FS:     fs,
			Docset: &docset.Builtin{},
		}
		offenses, err := check.RunAll(context.Background(), checks.All(), doc, shared)
		var panicErr *check.PanicError
		if errors.As(err, &panicErr) {
			t.Fatalf("check panicked on %q: %v\n%s", input, panicErr.Value, panicErr.Stack)
		}

		var candidates []fix.Candidate
		for _, o := range offenses {
			if o.Start.Index < 0 || o.End.Index > len(input) || o.Start.Index > o.End.Index {
				t.Fatalf("offense %s has bad range %d-%d in %q", o.Check, o.Start.Index, o.End.Index, input)
			}
			if o.Fixable() {
				candidates = append(candidates, fix.Candidate{ID: o.Check, Title: o.Message, Build: o.Fix})
			}
		}
		if len(candidates) == 0 {
			return
		}
		if _, err := fix.Greedy(doc.Kind, doc.Text, candidates); err != nil && !errors.Is(err, fix.ErrNoFixes) {
			t.Fatalf("fixes failed on %q: %v", input, err)
		}
	})
}
