package lsp

import "themecheck/internal/source"

// applyChanges applies content changes in order. Each ranged change is
// positioned against the text left by the previous one.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		li := source.NewLineIndex(text)
		start := li.Offset(change.Range.Start.Line, change.Range.Start.Character)
		end := li.Offset(change.Range.End.Line, change.Range.End.Character)
		if end < start {
			start, end = end, start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}
