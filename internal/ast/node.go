package ast

import "fmt"

// NodeType names a concrete node kind. Visitor handlers are keyed by it.
type NodeType string

// Span is a half-open byte range [Start, End) into the unmodified source text
// the node was parsed from.
type Span struct {
	Start int // в байтах включительно
	End   int // в байтах не включительно
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Contains reports whether off lies inside the span (End exclusive).
func (s Span) Contains(off int) bool {
	return s.Start <= off && off < s.End
}

// Intersects reports whether two spans share at least one byte, treating an
// empty span as a point that intersects any span it touches.
func (s Span) Intersects(other Span) bool {
	if s.Empty() || other.Empty() {
		return s.Start <= other.End && other.Start <= s.End
	}
	return s.Start < other.End && other.Start < s.End
}

func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Node is implemented by every node of both document kinds.
//
// Children returns only the structural children that a traversal descends
// into; location metadata and scalar fields are never exposed through it.
type Node interface {
	Type() NodeType
	Span() Span
	Children() []Node
}

func toNodes[T Node](items []T) []Node {
	if len(items) == 0 {
		return nil
	}
	out := make([]Node, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}
