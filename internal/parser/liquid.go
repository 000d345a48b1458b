package parser

import (
	"regexp"
	"strings"

	"themecheck/internal/ast"
)

var (
	blockTags = map[string]struct{}{
		"if": {}, "unless": {}, "case": {}, "for": {}, "tablerow": {},
		"capture": {}, "form": {}, "paginate": {},
	}
	rawTags = map[string]struct{}{
		"raw": {}, "comment": {}, "schema": {}, "javascript": {},
		"style": {}, "stylesheet": {},
	}
	branchParents = map[string][]string{
		"else":  {"if", "unless", "case", "for"},
		"elsif": {"if", "unless"},
		"when":  {"case"},
	}
)

// BlockTags returns the names of tags that require an end tag.
func BlockTags() []string {
	out := make([]string, 0, len(blockTags)+len(rawTags))
	for name := range blockTags {
		out = append(out, name)
	}
	for name := range rawTags {
		out = append(out, name)
	}
	return out
}

type openBlock struct {
	tag  *ast.LiquidTag
	body []ast.Node
}

type liquidParser struct {
	text  string
	pos   int
	stack []*openBlock
	root  []ast.Node
}

// ParseLiquid parses a Liquid/HTML template. HTML is kept as text; only Liquid
// structure is validated.
func ParseLiquid(text string) (ast.Node, error) {
	p := &liquidParser{text: text}
	if err := p.run(); err != nil {
		return nil, err
	}
	return &ast.Document{Loc: ast.Span{Start: 0, End: len(text)}, Nodes: p.root}, nil
}

func (p *liquidParser) emit(n ast.Node) {
	if len(p.stack) == 0 {
		p.root = append(p.root, n)
		return
	}
	top := p.stack[len(p.stack)-1]
	top.body = append(top.body, n)
}

func (p *liquidParser) run() error {
	for p.pos < len(p.text) {
		next := nextDelimiter(p.text, p.pos)
		if next < 0 {
			p.emitText(p.pos, len(p.text))
			p.pos = len(p.text)
			break
		}
		p.emitText(p.pos, next)
		p.pos = next
		var err error
		if p.text[next+1] == '{' {
			err = p.parseOutput()
		} else {
			err = p.parseTag()
		}
		if err != nil {
			return err
		}
	}
	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1].tag
		return errorf(top.OpenLoc.Start, top.OpenLoc.End, "Unclosed tag '%s'", top.Name)
	}
	return nil
}

func nextDelimiter(text string, from int) int {
	for i := from; i+1 < len(text); i++ {
		if text[i] == '{' && (text[i+1] == '{' || text[i+1] == '%') {
			return i
		}
	}
	return -1
}

func (p *liquidParser) emitText(start, end int) {
	if end <= start {
		return
	}
	p.emit(&ast.TextNode{Loc: ast.Span{Start: start, End: end}, Value: p.text[start:end]})
}

// delimited locates the inner markup of a `{{ }}` or `{% %}` starting at p.pos.
func (p *liquidParser) delimited(closer, what string) (inner ast.Span, end int, wsStart, wsEnd bool, err error) {
	start := p.pos
	rel := strings.Index(p.text[start+2:], closer)
	if rel < 0 {
		return ast.Span{}, 0, false, false, errorf(start, len(p.text), "Unclosed %s", what)
	}
	innerStart := start + 2
	innerEnd := start + 2 + rel
	end = innerEnd + len(closer)
	if innerStart < innerEnd && p.text[innerStart] == '-' {
		wsStart = true
		innerStart++
	}
	if innerStart < innerEnd && p.text[innerEnd-1] == '-' {
		wsEnd = true
		innerEnd--
	}
	return ast.Span{Start: innerStart, End: innerEnd}, end, wsStart, wsEnd, nil
}

func (p *liquidParser) parseOutput() error {
	start := p.pos
	inner, end, wsStart, wsEnd, err := p.delimited("}}", "variable output")
	if err != nil {
		return err
	}
	out := &ast.LiquidVariableOutput{
		Loc:             ast.Span{Start: start, End: end},
		Markup:          p.text[inner.Start:inner.End],
		MarkupLoc:       inner,
		WhitespaceStart: wsStart,
		WhitespaceEnd:   wsEnd,
	}
	out.Variable = parseVariable(p.text, inner)
	p.emit(out)
	p.pos = end
	return nil
}

func parseVariable(text string, inner ast.Span) *ast.LiquidVariable {
	lo, hi := trimSpan(text, inner)
	if lo >= hi {
		return nil
	}
	segments := splitPipes(text, ast.Span{Start: lo, End: hi})
	exprLoc := segments[0]
	v := &ast.LiquidVariable{
		Loc:           ast.Span{Start: lo, End: hi},
		Expression:    text[exprLoc.Start:exprLoc.End],
		ExpressionLoc: exprLoc,
		Lookups:       lookups(text[exprLoc.Start:exprLoc.End], exprLoc.Start),
	}
	for _, seg := range segments[1:] {
		if f := parseFilter(text, seg); f != nil {
			v.Filters = append(v.Filters, f)
		}
	}
	return v
}

func parseFilter(text string, seg ast.Span) *ast.LiquidFilter {
	if seg.Start >= seg.End {
		return nil
	}
	i := seg.Start
	for i < seg.End && isIdentPart(text[i]) {
		i++
	}
	f := &ast.LiquidFilter{
		Loc:     seg,
		Name:    text[seg.Start:i],
		NameLoc: ast.Span{Start: seg.Start, End: i},
	}
	for i < seg.End && isSpace(text[i]) {
		i++
	}
	if i < seg.End && text[i] == ':' {
		lo, hi := trimSpan(text, ast.Span{Start: i + 1, End: seg.End})
		f.Args = text[lo:hi]
		f.Lookups = lookups(f.Args, lo)
	}
	return f
}

// splitPipes splits a trimmed span on top-level '|' and trims each segment.
func splitPipes(text string, span ast.Span) []ast.Span {
	var out []ast.Span
	segStart := span.Start
	var quote byte
	for i := span.Start; i < span.End; i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '|':
			lo, hi := trimSpan(text, ast.Span{Start: segStart, End: i})
			out = append(out, ast.Span{Start: lo, End: hi})
			segStart = i + 1
		}
	}
	lo, hi := trimSpan(text, ast.Span{Start: segStart, End: span.End})
	return append(out, ast.Span{Start: lo, End: hi})
}

func trimSpan(text string, span ast.Span) (int, int) {
	lo, hi := span.Start, span.End
	for lo < hi && isSpace(text[lo]) {
		lo++
	}
	for hi > lo && isSpace(text[hi-1]) {
		hi--
	}
	return lo, hi
}

func (p *liquidParser) parseTag() error {
	start := p.pos
	inner, end, wsStart, wsEnd, err := p.delimited("%}", "tag")
	if err != nil {
		return err
	}
	lo, hi := trimSpan(p.text, inner)
	nameEnd := lo
	if nameEnd < hi && p.text[nameEnd] == '#' {
		nameEnd++
	} else {
		for nameEnd < hi && isIdentPart(p.text[nameEnd]) {
			nameEnd++
		}
	}
	name := p.text[lo:nameEnd]
	if name == "" {
		return errorf(start, end, "Tag name expected")
	}
	mlo, mhi := trimSpan(p.text, ast.Span{Start: nameEnd, End: hi})
	markupLoc := ast.Span{Start: mlo, End: mhi}
	open := ast.Span{Start: start, End: end}
	p.pos = end

	if strings.HasPrefix(name, "end") && len(name) > 3 {
		return p.closeBlock(name[3:], open)
	}
	if parents, ok := branchParents[name]; ok {
		return p.branch(name, parents, open, markupLoc)
	}

	tag := &ast.LiquidTag{
		Loc:             open,
		Name:            name,
		Markup:          p.text[markupLoc.Start:markupLoc.End],
		MarkupLoc:       markupLoc,
		OpenLoc:         open,
		WhitespaceStart: wsStart,
		WhitespaceEnd:   wsEnd,
	}
	tag.Lookups = tagLookups(p.text, name, markupLoc)

	if _, ok := rawTags[name]; ok {
		return p.rawBody(tag)
	}
	if _, ok := blockTags[name]; ok {
		p.stack = append(p.stack, &openBlock{tag: tag})
		return nil
	}
	p.emit(tag)
	return nil
}

func tagLookups(text, name string, markup ast.Span) []*ast.VariableLookup {
	m := text[markup.Start:markup.End]
	switch name {
	case "#", "liquid", "capture", "increment", "decrement", "layout":
		return nil
	case "assign":
		eq := strings.IndexByte(m, '=')
		if eq < 0 {
			return nil
		}
		v := parseVariable(text, ast.Span{Start: markup.Start + eq + 1, End: markup.End})
		if v == nil {
			return nil
		}
		out := v.Lookups
		for _, f := range v.Filters {
			out = append(out, f.Lookups...)
		}
		return out
	case "echo":
		v := parseVariable(text, markup)
		if v == nil {
			return nil
		}
		out := v.Lookups
		for _, f := range v.Filters {
			out = append(out, f.Lookups...)
		}
		return out
	case "for", "tablerow":
		in := strings.Index(m, " in ")
		if in < 0 {
			return nil
		}
		return lookups(m[in+4:], markup.Start+in+4)
	default:
		return lookups(m, markup.Start)
	}
}

func (p *liquidParser) closeBlock(name string, loc ast.Span) error {
	if len(p.stack) == 0 {
		return errorf(loc.Start, loc.End, "Unexpected closing tag 'end%s'", name)
	}
	top := p.stack[len(p.stack)-1]
	if top.tag.Name != name {
		return errorf(loc.Start, loc.End, "Attempting to close tag '%s' with 'end%s'", top.tag.Name, name)
	}
	p.stack = p.stack[:len(p.stack)-1]
	end := loc
	top.tag.BlockEnd = &end
	top.tag.Body = top.body
	top.tag.Loc = ast.Span{Start: top.tag.OpenLoc.Start, End: loc.End}
	p.emit(top.tag)
	return nil
}

func (p *liquidParser) branch(name string, parents []string, loc, markup ast.Span) error {
	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		for _, parent := range parents {
			if top.tag.Name != parent {
				continue
			}
			top.body = append(top.body, &ast.LiquidBranch{
				Loc:       loc,
				Name:      name,
				Markup:    p.text[markup.Start:markup.End],
				MarkupLoc: markup,
				Lookups:   lookups(p.text[markup.Start:markup.End], markup.Start),
			})
			return nil
		}
	}
	return errorf(loc.Start, loc.End, "Unexpected tag '%s'", name)
}

var rawEndCache = map[string]*regexp.Regexp{}

func init() {
	for name := range rawTags {
		rawEndCache[name] = regexp.MustCompile(`\{%-?\s*end` + name + `\s*-?%\}`)
	}
}

func (p *liquidParser) rawBody(tag *ast.LiquidTag) error {
	loc := rawEndCache[tag.Name].FindStringIndex(p.text[p.pos:])
	if loc == nil {
		return errorf(tag.OpenLoc.Start, tag.OpenLoc.End, "Unclosed tag '%s'", tag.Name)
	}
	bodyStart := p.pos
	bodyEnd := p.pos + loc[0]
	if bodyEnd > bodyStart {
		tag.Body = []ast.Node{&ast.TextNode{
			Loc:   ast.Span{Start: bodyStart, End: bodyEnd},
			Value: p.text[bodyStart:bodyEnd],
		}}
	}
	end := ast.Span{Start: bodyEnd, End: p.pos + loc[1]}
	tag.BlockEnd = &end
	tag.Loc = ast.Span{Start: tag.OpenLoc.Start, End: end.End}
	p.pos = end.End
	p.emit(tag)
	return nil
}
