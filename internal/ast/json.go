package ast

import "strings"

const (
	TypeObject     NodeType = "Object"
	TypeProperty   NodeType = "Property"
	TypeIdentifier NodeType = "Identifier"
	TypeArray      NodeType = "Array"
	TypeLiteral    NodeType = "Literal"
)

type Object struct {
	Loc        Span
	Properties []*Property
}

func (n *Object) Type() NodeType   { return TypeObject }
func (n *Object) Span() Span       { return n.Loc }
func (n *Object) Children() []Node { return toNodes(n.Properties) }

// Get returns the value of the last property named key.
func (n *Object) Get(key string) (Node, bool) {
	for i := len(n.Properties) - 1; i >= 0; i-- {
		if n.Properties[i].Key.Value == key {
			return n.Properties[i].Value, true
		}
	}
	return nil, false
}

type Property struct {
	Loc   Span
	Key   *Identifier
	Value Node
}

func (n *Property) Type() NodeType { return TypeProperty }
func (n *Property) Span() Span     { return n.Loc }

func (n *Property) Children() []Node {
	out := make([]Node, 0, 2)
	if n.Key != nil {
		out = append(out, n.Key)
	}
	if n.Value != nil {
		out = append(out, n.Value)
	}
	return out
}

// Identifier is an object key.
type Identifier struct {
	Loc   Span
	Value string
}

func (n *Identifier) Type() NodeType   { return TypeIdentifier }
func (n *Identifier) Span() Span       { return n.Loc }
func (n *Identifier) Children() []Node { return nil }

type Array struct {
	Loc   Span
	Items []Node
}

func (n *Array) Type() NodeType   { return TypeArray }
func (n *Array) Span() Span       { return n.Loc }
func (n *Array) Children() []Node { return n.Items }

// Literal is a string, number, boolean or null. Value holds string, float64,
// bool or nil; Raw is the literal as written.
type Literal struct {
	Loc   Span
	Value any
	Raw   string
}

func (n *Literal) Type() NodeType   { return TypeLiteral }
func (n *Literal) Span() Span       { return n.Loc }
func (n *Literal) Children() []Node { return nil }

// Leaves flattens an object tree into dot-separated key paths mapped to the
// property holding a non-object value. Arrays count as leaves.
func Leaves(root *Object) map[string]*Property {
	out := make(map[string]*Property)
	type frame struct {
		prefix string
		obj    *Object
	}
	stack := []frame{{obj: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.obj == nil {
			continue
		}
		for _, prop := range top.obj.Properties {
			if prop.Key == nil {
				continue
			}
			path := prop.Key.Value
			if top.prefix != "" {
				path = strings.Join([]string{top.prefix, prop.Key.Value}, ".")
			}
			if child, ok := prop.Value.(*Object); ok {
				stack = append(stack, frame{prefix: path, obj: child})
				continue
			}
			out[path] = prop
		}
	}
	return out
}
