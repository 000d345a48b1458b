// Package theme finds and loads the documents of a theme directory.
package theme

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"themecheck/internal/document"
	"themecheck/internal/source"
	"themecheck/internal/trace"
)

// skipDirs are never descended into.
var skipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	".shopify":     {},
}

// Files lists the supported documents below dir as slash-separated paths
// relative to dir, in walk order. ignore filters relative paths.
func Files(dir string, ignore func(rel string) bool) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip && rel != "." {
				return filepath.SkipDir
			}
			if rel != "." && ignore != nil && ignore(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if source.KindForURI(rel) == source.KindUnknown {
			return nil
		}
		if ignore != nil && ignore(rel) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return out, nil
}

// Theme is a loaded theme directory.
type Theme struct {
	Dir  string
	Root string // file uri of Dir
	Docs *document.Manager
}

// New prepares an empty theme rooted at dir.
func New(dir string, docs *document.Manager) (*Theme, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", dir)
	}
	if docs == nil {
		docs = document.NewManager()
	}
	return &Theme{Dir: abs, Root: source.PathToURI(abs), Docs: docs}, nil
}

// URI maps a relative path to its document uri.
func (t *Theme) URI(rel string) string {
	return source.JoinURI(t.Root, rel)
}

// Rel maps a document uri to its relative path.
func (t *Theme) Rel(uri string) string {
	return source.RelativePath(t.Root, uri)
}

// Load reads and parses the files rel (relative to the theme directory)
// with at most jobs files in flight, and returns the theme snapshot.
func (t *Theme) Load(ctx context.Context, rels []string, jobs int) ([]*source.SourceCode, error) {
	ctx, span := trace.Start(ctx, trace.ScopeRun, "load")
	defer span.End(fmt.Sprintf("files=%d", len(rels)))

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for _, rel := range rels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return t.Reload(rel)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t.Docs.Snapshot(t.Root), nil
}

// Reload reads rel from disk into the document store, dropping it when the
// file no longer exists.
func (t *Theme) Reload(rel string) error {
	uri := t.URI(rel)
	data, err := os.ReadFile(filepath.Join(t.Dir, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		t.Docs.Close(uri)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	version := 0
	if prev, ok := t.Docs.Get(uri); ok {
		version = prev.Version + 1
	}
	t.Docs.Change(uri, string(data), version)
	return nil
}
