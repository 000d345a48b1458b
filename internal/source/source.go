package source

import (
	"themecheck/internal/ast"
)

// ParseFunc turns document text into a tree. A failed parse returns the error
// and a nil node.
type ParseFunc func(text string) (ast.Node, error)

// SourceCode is one document as the engine sees it. It is replaced wholesale
// on every change and never mutated afterwards.
type SourceCode struct {
	URI     string
	Version int
	Text    string
	Kind    Kind

	// AST is nil when ParseErr is set.
	AST      ast.Node
	ParseErr error

	lines *LineIndex
}

// New builds a SourceCode and parses text with parse when it is non-nil.
func New(uri string, version int, text string, parse ParseFunc) *SourceCode {
	sc := &SourceCode{
		URI:     uri,
		Version: version,
		Text:    text,
		Kind:    KindForURI(uri),
		lines:   NewLineIndex(text),
	}
	if parse != nil {
		sc.AST, sc.ParseErr = parse(text)
		if sc.ParseErr != nil {
			sc.AST = nil
		}
	}
	return sc
}

// WithTree builds a SourceCode around an already parsed tree.
func WithTree(uri string, version int, text string, tree ast.Node, parseErr error) *SourceCode {
	sc := New(uri, version, text, nil)
	sc.AST = tree
	sc.ParseErr = parseErr
	return sc
}

func (sc *SourceCode) Lines() *LineIndex {
	if sc.lines == nil {
		sc.lines = NewLineIndex(sc.Text)
	}
	return sc.lines
}

func (sc *SourceCode) Position(index int) Position {
	return sc.Lines().Position(index)
}

func (sc *SourceCode) Offset(line, character int) int {
	return sc.Lines().Offset(line, character)
}
