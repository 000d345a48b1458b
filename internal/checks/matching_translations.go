package checks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"themecheck/internal/ast"
	"themecheck/internal/check"
	"themecheck/internal/diag"
	"themecheck/internal/fix"
	"themecheck/internal/parser"
	"themecheck/internal/source"
)

// MissingTranslation is the placeholder value added for missing keys.
const MissingTranslation = "TRANSLATION MISSING"

var pluralForms = map[string]struct{}{
	"zero": {}, "one": {}, "two": {}, "few": {}, "many": {}, "other": {},
}

// MatchingTranslations compares locale files against the default locale.
var MatchingTranslations check.Check = &check.Definition{
	M: check.Meta{
		ID:       "MatchingTranslations",
		Name:     "Spot differences in translation files",
		Severity: diag.SevError,
		Fixable:  true,
		Kinds:    []source.Kind{source.KindData},
		Schema: map[string]check.SettingSpec{
			"default_locale": {
				Type:        "string",
				Default:     "locales/en.default.json",
				Description: "Path of the locale every other locale is compared with.",
			},
		},
		Docs: check.Docs{
			Description: "Reports translation keys missing from, or unknown to, the default locale.",
			Recommended: true,
		},
	},
	Create: func(c *check.Context) check.Instance {
		return &check.Funcs{Start: func(ctx context.Context) error {
			return matchTranslations(ctx, c)
		}}
	},
}

func isLocaleFile(rel, defaultRel string) bool {
	if rel == defaultRel || path.Dir(rel) != "locales" {
		return false
	}
	return strings.HasSuffix(rel, ".json") && !strings.HasSuffix(rel, ".schema.json")
}

func loadDefaultLocale(ctx context.Context, c *check.Context, rel string) (*ast.Object, error) {
	if doc, ok := c.Document(rel); ok {
		root, _ := doc.AST.(*ast.Object)
		return root, nil
	}
	if c.FS == nil {
		return nil, nil
	}
	text, err := c.FS.ReadFile(ctx, rel)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tree, err := parser.ParseJSON(text)
	if err != nil {
		// A broken default locale is JSONSyntaxError's business.
		return nil, nil
	}
	root, _ := tree.(*ast.Object)
	return root, nil
}

func matchTranslations(ctx context.Context, c *check.Context) error {
	defaultRel := c.Settings.String("default_locale")
	if !isLocaleFile(c.RelativePath(), defaultRel) {
		return nil
	}
	root, ok := c.Source.AST.(*ast.Object)
	if !ok {
		return nil
	}
	base, err := loadDefaultLocale(ctx, c, defaultRel)
	if err != nil {
		return fmt.Errorf("load %s: %w", defaultRel, err)
	}
	if base == nil {
		return nil
	}

	want := ast.Leaves(base)
	have := ast.Leaves(root)

	for _, key := range sortedKeys(want) {
		if _, ok := have[key]; ok || pluralCovered(key, have) {
			continue
		}
		c.Report(check.Draft{
			Message: fmt.Sprintf("The translation for '%s' is missing", key),
			Start:   root.Loc.Start,
			End:     root.Loc.Start + 1,
			Fix: fix.JSONFix(func(jc *fix.JSONCorrector) {
				jc.Add(key, MissingTranslation)
			}),
		})
	}
	for _, key := range sortedKeys(have) {
		if _, ok := want[key]; ok || pluralCovered(key, want) {
			continue
		}
		prop := have[key]
		c.Report(check.Draft{
			Message: fmt.Sprintf("A default translation for '%s' does not exist", key),
			Start:   prop.Loc.Start,
			End:     prop.Loc.End,
			Suggest: []diag.Suggestion{{
				Message: fmt.Sprintf("Delete '%s'", key),
				Fix: fix.JSONFix(func(jc *fix.JSONCorrector) {
					jc.Remove(key)
				}),
			}},
		})
	}
	return nil
}

// pluralCovered reports whether key is a plural form whose sibling plural
// forms exist in other. Languages use different sets of plural forms.
func pluralCovered(key string, other map[string]*ast.Property) bool {
	parent, form := splitLast(key)
	if _, ok := pluralForms[form]; !ok {
		return false
	}
	for k := range other {
		p, f := splitLast(k)
		if _, plural := pluralForms[f]; plural && p == parent {
			return true
		}
	}
	return false
}

func splitLast(key string) (string, string) {
	i := strings.LastIndexByte(key, '.')
	if i < 0 {
		return "", key
	}
	return key[:i], key[i+1:]
}

func sortedKeys(m map[string]*ast.Property) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
