// Package testkit holds assertions shared by parser tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"themecheck/internal/ast"
)

// CheckSpanInvariants walks a parsed tree and verifies its spans:
// 1) every span is well formed and inside the source text
// 2) every child span lies inside its parent span
// 3) a template document spans the whole text
func CheckSpanInvariants(root ast.Node, text string) error {
	if root == nil {
		return fmt.Errorf("nil root")
	}
	if doc, ok := root.(*ast.Document); ok && (doc.Loc.Start != 0 || doc.Loc.End != len(text)) {
		return fmt.Errorf("document span %v does not cover %d bytes", doc.Loc, len(text))
	}
	return checkNode(root, text, nil)
}

func checkNode(n ast.Node, text string, parent ast.Node) error {
	sp := n.Span()
	if sp.Start < 0 || sp.End < sp.Start || sp.End > len(text) {
		return fmt.Errorf("%s span %v outside text of %d bytes", n.Type(), sp, len(text))
	}
	if parent != nil {
		ps := parent.Span()
		if sp.Start < ps.Start || sp.End > ps.End {
			return fmt.Errorf("%s span %v is outside parent %s span %v", n.Type(), sp, parent.Type(), ps)
		}
	}
	for _, child := range n.Children() {
		if child == nil {
			continue
		}
		if err := checkNode(child, text, n); err != nil {
			return err
		}
	}
	return nil
}
