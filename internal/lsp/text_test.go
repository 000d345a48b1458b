package lsp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyChanges(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		changes []textDocumentContentChangeEvent
		want    string
	}{
		{
			name:    "full replace",
			text:    "old",
			changes: []textDocumentContentChangeEvent{{Text: "new"}},
			want:    "new",
		},
		{
			name: "sequential ranges",
			text: "ab\ncd\n",
			changes: []textDocumentContentChangeEvent{
				{Range: &lspRange{Start: position{Line: 1, Character: 0}, End: position{Line: 1, Character: 2}}, Text: "xy\nz"},
				{Range: &lspRange{Start: position{Line: 2, Character: 1}, End: position{Line: 2, Character: 1}}, Text: "!"},
			},
			want: "ab\nxy\nz!\n",
		},
		{
			name: "utf16 columns",
			text: "😀a",
			changes: []textDocumentContentChangeEvent{
				{Range: &lspRange{Start: position{Line: 0, Character: 2}, End: position{Line: 0, Character: 3}}, Text: "b"},
			},
			want: "😀b",
		},
		{
			name: "past the end clamps",
			text: "abc",
			changes: []textDocumentContentChangeEvent{
				{Range: &lspRange{Start: position{Line: 0, Character: 1}, End: position{Line: 5, Character: 0}}, Text: ""},
			},
			want: "a",
		},
	}
	for _, tc := range cases {
		if got := applyChanges(tc.text, tc.changes); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFindThemeRoot(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "settings_schema.json"), []byte("[]"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := findThemeRoot(filepath.Join(dir, "sections", "nested", "a.liquid")); got != dir {
		t.Fatalf("expected %s, got %s", dir, got)
	}

	bare := t.TempDir()
	if got := findThemeRoot(filepath.Join(bare, "snippets", "a.liquid")); got != bare {
		t.Fatalf("expected %s, got %s", bare, got)
	}
}
