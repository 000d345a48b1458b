package docset

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinReference(t *testing.T) {
	var b Builtin
	filters, err := b.Filters(context.Background())
	if err != nil {
		t.Fatalf("Filters failed: %v", err)
	}
	img, ok := Find(filters, "img_url")
	if !ok || !img.Deprecated || img.Replacement != "image_url" {
		t.Fatalf("unexpected img_url entry %+v", img)
	}
	tags, err := b.Tags(context.Background())
	if err != nil || len(tags) == 0 {
		t.Fatalf("expected tags, got %d (%v)", len(tags), err)
	}
	if _, ok := Find(tags, "render"); !ok {
		t.Fatalf("render tag missing")
	}
}

func TestOSFileSystem(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "snippets"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "snippets", "card.liquid"), []byte("card"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	fsys := OS{Root: root}
	ctx := context.Background()
	if !fsys.FileExists(ctx, "snippets/card.liquid") {
		t.Fatalf("expected file to exist")
	}
	if fsys.FileExists(ctx, "snippets") {
		t.Fatalf("directories are not files")
	}
	if !fsys.FileExists(ctx, "../snippets/card.liquid") {
		t.Fatalf("parent segments are clamped to the root")
	}
	text, err := fsys.ReadFile(ctx, "snippets/card.liquid")
	if err != nil || text != "card" {
		t.Fatalf("ReadFile = %q, %v", text, err)
	}
	if _, err := fsys.ReadFile(ctx, "missing.liquid"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestOverlayPrefersBuffers(t *testing.T) {
	o := NewOverlay(nil)
	ctx := context.Background()
	if o.FileExists(ctx, "a.liquid") {
		t.Fatalf("empty overlay has no files")
	}
	o.Set("./a.liquid", "buffer")
	if text, err := o.ReadFile(ctx, "a.liquid"); err != nil || text != "buffer" {
		t.Fatalf("ReadFile = %q, %v", text, err)
	}
	o.Delete("a.liquid")
	if _, err := o.ReadFile(ctx, "a.liquid"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist after delete, got %v", err)
	}
}
