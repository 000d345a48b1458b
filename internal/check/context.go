package check

import (
	"log/slog"
	"strings"

	"themecheck/internal/ast"
	"themecheck/internal/diag"
	"themecheck/internal/docset"
	"themecheck/internal/fix"
	"themecheck/internal/observ"
	"themecheck/internal/source"
)

// Settings holds resolved check settings.
type Settings map[string]any

func (s Settings) Bool(key string) bool {
	v, _ := s[key].(bool)
	return v
}

func (s Settings) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// Strings accepts both []string and the []any produced by decoders.
func (s Settings) Strings(key string) []string {
	switch v := s[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Shared is the part of a run common to every check and document.
type Shared struct {
	// Root is the theme root uri; document paths are relative to it.
	Root   string
	Theme  []*source.SourceCode
	FS     docset.FileSystem
	Docset docset.Provider
	// Settings are per-check overrides keyed by check id.
	Settings map[string]Settings
	Logger   *slog.Logger
	Stats    *observ.Stats
	Jobs     int
	// Progress is called once per finished document by RunTheme.
	Progress func(uri string, offenses int)
}

func (s *Shared) logger() *slog.Logger {
	if s == nil || s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Draft is an offense as a check reports it: byte offsets into the
// document text, with check id and severity stamped by the runtime.
type Draft struct {
	Message string
	Start   int
	End     int
	Fix     fix.Builder
	Suggest []diag.Suggestion
}

// Context is what a check instance sees of its run.
type Context struct {
	Meta     *Meta
	Source   *source.SourceCode
	Root     string
	Theme    []*source.SourceCode
	FS       docset.FileSystem
	Docset   docset.Provider
	Settings Settings
	Logger   *slog.Logger

	offenses []diag.Offense
}

func newContext(meta *Meta, doc *source.SourceCode, shared *Shared) *Context {
	if shared == nil {
		shared = &Shared{}
	}
	settings := make(Settings, len(meta.Schema))
	for key, def := range meta.Schema {
		settings[key] = def.Default
	}
	for key, v := range shared.Settings[meta.ID] {
		settings[key] = v
	}
	return &Context{
		Meta:     meta,
		Source:   doc,
		Root:     shared.Root,
		Theme:    shared.Theme,
		FS:       shared.FS,
		Docset:   shared.Docset,
		Settings: settings,
		Logger:   shared.logger().With("check", meta.ID, "uri", doc.URI),
	}
}

// Report records an offense for the current document.
func (c *Context) Report(d Draft) {
	start, end := d.Start, d.End
	if end < start {
		start, end = end, start
	}
	c.offenses = append(c.offenses, diag.Offense{
		Check:       c.Meta.ID,
		Message:     d.Message,
		Severity:    c.Meta.Severity,
		URI:         c.Source.URI,
		Start:       c.Source.Position(start),
		End:         c.Source.Position(end),
		Fix:         d.Fix,
		Suggestions: d.Suggest,
	})
}

// ReportNode records an offense covering node.
func (c *Context) ReportNode(node ast.Node, message string, f fix.Builder) {
	span := node.Span()
	c.Report(Draft{Message: message, Start: span.Start, End: span.End, Fix: f})
}

// RelativePath is the current document's path below the theme root.
func (c *Context) RelativePath() string {
	return source.RelativePath(c.Root, c.Source.URI)
}

// Document finds a theme document by path relative to the root.
func (c *Context) Document(rel string) (*source.SourceCode, bool) {
	rel = strings.TrimPrefix(rel, "/")
	for _, doc := range c.Theme {
		if source.RelativePath(c.Root, doc.URI) == rel {
			return doc, true
		}
	}
	return nil, false
}
