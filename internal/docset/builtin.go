package docset

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed builtin.toml
var builtinData string

type reference struct {
	Tags    []Entry `toml:"tags"`
	Filters []Entry `toml:"filters"`
	Objects []Entry `toml:"objects"`
}

// Builtin serves the reference bundled with the binary. Remote docsets are
// not fetched.
type Builtin struct {
	once sync.Once
	ref  reference
	err  error
}

func (b *Builtin) load() (reference, error) {
	b.once.Do(func() {
		if _, err := toml.Decode(builtinData, &b.ref); err != nil {
			b.err = fmt.Errorf("docset: decode builtin reference: %w", err)
		}
	})
	return b.ref, b.err
}

func (b *Builtin) Tags(context.Context) ([]Entry, error) {
	ref, err := b.load()
	return ref.Tags, err
}

func (b *Builtin) Filters(context.Context) ([]Entry, error) {
	ref, err := b.load()
	return ref.Filters, err
}

func (b *Builtin) Objects(context.Context) ([]Entry, error) {
	ref, err := b.load()
	return ref.Objects, err
}
