// Package visitor walks a syntax tree and dispatches every node to the
// handlers registered for its type.
//
// The walk is iterative: each Traverse call owns an explicit work stack, so
// deep or unbalanced trees cannot exhaust the goroutine stack and concurrent
// traversals never share state. Visits are strictly ordered: enter handlers
// run in document order, and the exit handler of a node runs after all of its
// descendants.
package visitor

import (
	"context"
	"fmt"

	"themecheck/internal/ast"
)

// Handler receives a node and its ancestors ordered root-to-parent (the node
// itself excluded). The ancestors slice is only valid during the call.
type Handler func(ctx context.Context, node ast.Node, ancestors []ast.Node) error

// Handlers maps node types to enter handlers and ExitKey(type) to exit
// handlers. Types without a handler are walked through untouched.
type Handlers map[string]Handler

// ExitKey returns the key an exit handler for t is registered under.
func ExitKey(t ast.NodeType) string {
	return string(t) + ":exit"
}

// On registers an enter handler.
func (h Handlers) On(t ast.NodeType, fn Handler) Handlers {
	h[string(t)] = fn
	return h
}

// OnExit registers an exit handler.
func (h Handlers) OnExit(t ast.NodeType, fn Handler) Handlers {
	h[ExitKey(t)] = fn
	return h
}

// HandlerError wraps an error returned by a handler with the node it failed on.
type HandlerError struct {
	Key  string
	Span ast.Span
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("visitor: %s handler at %s: %v", e.Key, e.Span, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

type frame struct {
	node  ast.Node
	depth int
	exit  bool
}

// Traverse walks root depth-first. The first handler error aborts the walk
// and is returned wrapped in *HandlerError; cancellation of ctx is checked
// between nodes.
func Traverse(ctx context.Context, root ast.Node, handlers Handlers) error {
	if root == nil {
		return nil
	}
	stack := []frame{{node: root}}
	// lineage[:depth] is the ancestor chain of the frame being processed
	lineage := make([]ast.Node, 0, 16)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		lineage = lineage[:top.depth]
		ancestors := lineage[:top.depth:top.depth]

		if top.exit {
			key := ExitKey(top.node.Type())
			if h := handlers[key]; h != nil {
				if err := h(ctx, top.node, ancestors); err != nil {
					return &HandlerError{Key: key, Span: top.node.Span(), Err: err}
				}
			}
			continue
		}

		key := string(top.node.Type())
		if h := handlers[key]; h != nil {
			if err := h(ctx, top.node, ancestors); err != nil {
				return &HandlerError{Key: key, Span: top.node.Span(), Err: err}
			}
		}

		stack = append(stack, frame{node: top.node, depth: top.depth, exit: true})
		children := top.node.Children()
		for i := len(children) - 1; i >= 0; i-- {
			if isNil(children[i]) {
				continue
			}
			stack = append(stack, frame{node: children[i], depth: top.depth + 1})
		}
		lineage = append(lineage, top.node)
	}
	return nil
}

// isNil catches typed nil pointers stored in the Node interface.
func isNil(n ast.Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *ast.Document:
		return v == nil
	case *ast.TextNode:
		return v == nil
	case *ast.LiquidTag:
		return v == nil
	case *ast.LiquidBranch:
		return v == nil
	case *ast.LiquidVariableOutput:
		return v == nil
	case *ast.LiquidVariable:
		return v == nil
	case *ast.LiquidFilter:
		return v == nil
	case *ast.VariableLookup:
		return v == nil
	case *ast.Object:
		return v == nil
	case *ast.Property:
		return v == nil
	case *ast.Identifier:
		return v == nil
	case *ast.Array:
		return v == nil
	case *ast.Literal:
		return v == nil
	}
	return false
}
