package ast

const (
	TypeDocument             NodeType = "Document"
	TypeTextNode             NodeType = "TextNode"
	TypeLiquidTag            NodeType = "LiquidTag"
	TypeLiquidBranch         NodeType = "LiquidBranch"
	TypeLiquidVariableOutput NodeType = "LiquidVariableOutput"
	TypeLiquidVariable       NodeType = "LiquidVariable"
	TypeLiquidFilter         NodeType = "LiquidFilter"
	TypeVariableLookup       NodeType = "VariableLookup"
)

// Document is the root of a template tree.
type Document struct {
	Loc   Span
	Nodes []Node
}

func (n *Document) Type() NodeType   { return TypeDocument }
func (n *Document) Span() Span       { return n.Loc }
func (n *Document) Children() []Node { return n.Nodes }

// TextNode is raw template text (HTML included) between Liquid delimiters.
type TextNode struct {
	Loc   Span
	Value string
}

func (n *TextNode) Type() NodeType   { return TypeTextNode }
func (n *TextNode) Span() Span       { return n.Loc }
func (n *TextNode) Children() []Node { return nil }

// LiquidTag is a `{% name markup %}` tag. For block tags Loc covers the whole
// block up to and including the end tag, and BlockEnd locates the end tag.
type LiquidTag struct {
	Loc             Span
	Name            string
	Markup          string
	MarkupLoc       Span
	OpenLoc         Span // the opening `{% ... %}` delimiters only
	WhitespaceStart bool
	WhitespaceEnd   bool
	Lookups         []*VariableLookup
	Body            []Node
	BlockEnd        *Span
}

func (n *LiquidTag) Type() NodeType { return TypeLiquidTag }
func (n *LiquidTag) Span() Span     { return n.Loc }

func (n *LiquidTag) Children() []Node {
	out := toNodes(n.Lookups)
	return append(out, n.Body...)
}

// IsBlock reports whether the tag was closed by an end tag.
func (n *LiquidTag) IsBlock() bool {
	return n.BlockEnd != nil
}

// LiquidBranch marks an `else`, `elsif` or `when` inside a block tag body.
type LiquidBranch struct {
	Loc       Span
	Name      string
	Markup    string
	MarkupLoc Span
	Lookups   []*VariableLookup
}

func (n *LiquidBranch) Type() NodeType   { return TypeLiquidBranch }
func (n *LiquidBranch) Span() Span       { return n.Loc }
func (n *LiquidBranch) Children() []Node { return toNodes(n.Lookups) }

// LiquidVariableOutput is a `{{ ... }}` output.
type LiquidVariableOutput struct {
	Loc             Span
	Markup          string
	MarkupLoc       Span
	WhitespaceStart bool
	WhitespaceEnd   bool
	Variable        *LiquidVariable
}

func (n *LiquidVariableOutput) Type() NodeType { return TypeLiquidVariableOutput }
func (n *LiquidVariableOutput) Span() Span     { return n.Loc }

func (n *LiquidVariableOutput) Children() []Node {
	if n.Variable == nil {
		return nil
	}
	return []Node{n.Variable}
}

// LiquidVariable is the expression plus filter chain of an output.
type LiquidVariable struct {
	Loc           Span
	Expression    string
	ExpressionLoc Span
	Lookups       []*VariableLookup
	Filters       []*LiquidFilter
}

func (n *LiquidVariable) Type() NodeType { return TypeLiquidVariable }
func (n *LiquidVariable) Span() Span     { return n.Loc }

func (n *LiquidVariable) Children() []Node {
	out := toNodes(n.Lookups)
	return append(out, toNodes(n.Filters)...)
}

// LiquidFilter is one `| name: args` segment.
type LiquidFilter struct {
	Loc     Span
	Name    string
	NameLoc Span
	Args    string
	Lookups []*VariableLookup
}

func (n *LiquidFilter) Type() NodeType   { return TypeLiquidFilter }
func (n *LiquidFilter) Span() Span       { return n.Loc }
func (n *LiquidFilter) Children() []Node { return toNodes(n.Lookups) }

// VariableLookup is a reference to a variable by its root name; `product.title`
// and `product[0]` both look up `product`.
type VariableLookup struct {
	Loc  Span
	Name string
}

func (n *VariableLookup) Type() NodeType   { return TypeVariableLookup }
func (n *VariableLookup) Span() Span       { return n.Loc }
func (n *VariableLookup) Children() []Node { return nil }
