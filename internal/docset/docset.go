// Package docset provides the collaborators checks consult besides the
// document itself: theme file access and Liquid reference metadata.
package docset

import (
	"context"
	"strings"
)

// Entry describes one tag, filter or object of the Liquid reference.
type Entry struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Deprecated  bool   `toml:"deprecated"`
	// Replacement names the entry to use instead of a deprecated one.
	Replacement string `toml:"replacement"`
}

// Provider returns reference metadata. Implementations must be safe for
// concurrent use.
type Provider interface {
	Tags(ctx context.Context) ([]Entry, error)
	Filters(ctx context.Context) ([]Entry, error)
	Objects(ctx context.Context) ([]Entry, error)
}

// Find returns the entry named name.
func Find(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}
