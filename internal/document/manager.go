// Package document keeps the parsed state of every open or loaded theme
// document.
package document

import (
	"crypto/sha256"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"themecheck/internal/ast"
	"themecheck/internal/parser"
	"themecheck/internal/source"
)

// DefaultCacheSize bounds the number of remembered parse results.
const DefaultCacheSize = 256

type cacheKey struct {
	kind source.Kind
	sum  [sha256.Size]byte
}

type parsed struct {
	tree ast.Node
	err  error
}

// Manager is a concurrency-safe uri -> SourceCode store. Documents are
// replaced wholesale on every change; a stored SourceCode is never mutated.
type Manager struct {
	mu      sync.RWMutex
	docs    map[string]*source.SourceCode
	parsers map[source.Kind]source.ParseFunc
	cache   *lru.Cache[cacheKey, parsed]
	parses  int
}

// Option configures a Manager.
type Option func(*Manager)

// WithParser overrides the parser used for kind.
func WithParser(kind source.Kind, parse source.ParseFunc) Option {
	return func(m *Manager) { m.parsers[kind] = parse }
}

// WithCacheSize sets the parse cache size; n <= 0 disables the cache.
func WithCacheSize(n int) Option {
	return func(m *Manager) {
		m.cache = nil
		if n > 0 {
			m.cache, _ = lru.New[cacheKey, parsed](n)
		}
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		docs: make(map[string]*source.SourceCode),
		parsers: map[source.Kind]source.ParseFunc{
			source.KindTemplate: parser.ParseLiquid,
			source.KindData:     parser.ParseJSON,
		},
	}
	WithCacheSize(DefaultCacheSize)(m)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open stores text as the content of uri. It reports false for uris of
// unsupported kinds, which are ignored.
func (m *Manager) Open(uri, text string, version int) bool {
	return m.Change(uri, text, version)
}

// Change replaces the content of uri. Text equal to the stored text reuses
// the previous tree; otherwise the parse cache is consulted before parsing.
func (m *Manager) Change(uri, text string, version int) bool {
	kind := source.KindForURI(uri)
	if kind == source.KindUnknown {
		return false
	}
	m.mu.RLock()
	prev := m.docs[uri]
	m.mu.RUnlock()

	var doc *source.SourceCode
	if prev != nil && prev.Text == text {
		doc = source.WithTree(uri, version, text, prev.AST, prev.ParseErr)
	} else {
		p := m.parse(kind, text)
		doc = source.WithTree(uri, version, text, p.tree, p.err)
	}

	m.mu.Lock()
	m.docs[uri] = doc
	m.mu.Unlock()
	return true
}

func (m *Manager) parse(kind source.Kind, text string) parsed {
	parse := m.parsers[kind]
	if parse == nil {
		return parsed{}
	}
	var key cacheKey
	if m.cache != nil {
		key = cacheKey{kind: kind, sum: sha256.Sum256([]byte(text))}
		if hit, ok := m.cache.Get(key); ok {
			return hit
		}
	}
	tree, err := parse(text)
	if err != nil {
		tree = nil
	}
	p := parsed{tree: tree, err: err}
	m.mu.Lock()
	m.parses++
	m.mu.Unlock()
	if m.cache != nil {
		m.cache.Add(key, p)
	}
	return p
}

func (m *Manager) Close(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, uri)
}

func (m *Manager) Get(uri string) (*source.SourceCode, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[uri]
	return doc, ok
}

// Snapshot returns every document whose uri starts with rootURI, sorted by
// uri. An empty rootURI selects all documents.
func (m *Manager) Snapshot(rootURI string) []*source.SourceCode {
	prefix := rootURI
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	m.mu.RLock()
	out := make([]*source.SourceCode, 0, len(m.docs))
	for uri, doc := range m.docs {
		if prefix == "" || strings.HasPrefix(uri, prefix) {
			out = append(out, doc)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Len is the number of stored documents.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Parses is the number of parser invocations so far.
func (m *Manager) Parses() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parses
}
