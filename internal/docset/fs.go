package docset

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// FileSystem gives checks read access to theme files by slash-separated
// path relative to the theme root.
type FileSystem interface {
	FileExists(ctx context.Context, rel string) bool
	ReadFile(ctx context.Context, rel string) (string, error)
}

// OS reads files below Root on disk.
type OS struct {
	Root string
}

// resolve cleans rel against a virtual "/" so ".." cannot climb above Root.
func (o OS) resolve(rel string) string {
	clean := path.Clean("/" + filepath.ToSlash(rel))
	return filepath.Join(o.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
}

func (o OS) FileExists(_ context.Context, rel string) bool {
	info, err := os.Stat(o.resolve(rel))
	return err == nil && !info.IsDir()
}

func (o OS) ReadFile(_ context.Context, rel string) (string, error) {
	data, err := os.ReadFile(o.resolve(rel))
	if err != nil {
		return "", fmt.Errorf("docset: read %s: %w", rel, err)
	}
	return string(data), nil
}

// Overlay serves in-memory contents (open editor buffers) before falling
// back to Base.
type Overlay struct {
	Base FileSystem

	mu    sync.RWMutex
	files map[string]string
}

func NewOverlay(base FileSystem) *Overlay {
	return &Overlay{Base: base, files: make(map[string]string)}
}

func (o *Overlay) Set(rel, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files[path.Clean(rel)] = text
}

func (o *Overlay) Delete(rel string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.files, path.Clean(rel))
}

func (o *Overlay) lookup(rel string) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	text, ok := o.files[path.Clean(rel)]
	return text, ok
}

func (o *Overlay) FileExists(ctx context.Context, rel string) bool {
	if _, ok := o.lookup(rel); ok {
		return true
	}
	return o.Base != nil && o.Base.FileExists(ctx, rel)
}

func (o *Overlay) ReadFile(ctx context.Context, rel string) (string, error) {
	if text, ok := o.lookup(rel); ok {
		return text, nil
	}
	if o.Base == nil {
		return "", fmt.Errorf("docset: read %s: %w", rel, fs.ErrNotExist)
	}
	return o.Base.ReadFile(ctx, rel)
}
