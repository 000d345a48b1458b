package command

import (
	"context"

	"themecheck/internal/fix"
	"themecheck/internal/source"
)

// Position is a zero-based line and UTF-16 character.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// DocumentEdit is a set of edits against one version of one document.
type DocumentEdit struct {
	URI     string     `json:"uri"`
	Version int        `json:"version"`
	Edits   []TextEdit `json:"edits"`
}

type WorkspaceEdit struct {
	Documents []DocumentEdit `json:"documents"`
}

// WorkspaceEditor is the outbound side of command execution. applied is
// false when the editor rejected the edit.
type WorkspaceEditor interface {
	ApplyEdit(ctx context.Context, label string, edit WorkspaceEdit) (applied bool, err error)
}

// EditorFunc adapts a function to WorkspaceEditor.
type EditorFunc func(ctx context.Context, label string, edit WorkspaceEdit) (bool, error)

func (f EditorFunc) ApplyEdit(ctx context.Context, label string, edit WorkspaceEdit) (bool, error) {
	return f(ctx, label, edit)
}

func toPosition(p source.Position) Position {
	return Position{Line: p.Line, Character: p.Character}
}

// TextEdits maps byte-offset descriptions to line/character edits through
// the document's own line index.
func TextEdits(doc *source.SourceCode, descs []fix.Description) []TextEdit {
	out := make([]TextEdit, len(descs))
	for i, d := range descs {
		out[i] = TextEdit{
			Range: Range{
				Start: toPosition(doc.Position(d.StartIndex)),
				End:   toPosition(doc.Position(d.EndIndex)),
			},
			NewText: d.InsertText,
		}
	}
	return out
}
