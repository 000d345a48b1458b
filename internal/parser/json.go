package parser

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"themecheck/internal/ast"
)

// MaxJSONDepth bounds nesting so a hostile document cannot exhaust the stack.
const MaxJSONDepth = 512

type jsonParser struct {
	text  string
	pos   int
	depth int
}

// ParseJSON parses a JSON document into offset-tagged nodes. Line and block
// comments are accepted as whitespace, as theme data files carry them.
func ParseJSON(text string) (ast.Node, error) {
	p := &jsonParser{text: text}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.pos >= len(text) {
		return nil, errorf(p.pos, p.pos, "Unexpected end of JSON input")
	}
	root, err := p.value()
	if err != nil {
		return nil, err
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.pos < len(text) {
		return nil, errorf(p.pos, p.pos+1, "Unexpected token after end of document")
	}
	return root, nil
}

func (p *jsonParser) skipSpace() error {
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		switch {
		case isSpace(c):
			p.pos++
		case c == '/' && strings.HasPrefix(p.text[p.pos:], "//"):
			nl := strings.IndexByte(p.text[p.pos:], '\n')
			if nl < 0 {
				p.pos = len(p.text)
			} else {
				p.pos += nl + 1
			}
		case c == '/' && strings.HasPrefix(p.text[p.pos:], "/*"):
			end := strings.Index(p.text[p.pos+2:], "*/")
			if end < 0 {
				return errorf(p.pos, len(p.text), "Unterminated comment")
			}
			p.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

func (p *jsonParser) value() (ast.Node, error) {
	if p.pos >= len(p.text) {
		return nil, errorf(p.pos, p.pos, "Unexpected end of JSON input")
	}
	switch c := p.text[p.pos]; {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"':
		start := p.pos
		s, err := p.str()
		if err != nil {
			return nil, err
		}
		return &ast.Literal{Loc: ast.Span{Start: start, End: p.pos}, Value: s, Raw: p.text[start:p.pos]}, nil
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		for _, kw := range [...]struct {
			word  string
			value any
		}{{"true", true}, {"false", false}, {"null", nil}} {
			if strings.HasPrefix(p.text[p.pos:], kw.word) {
				start := p.pos
				p.pos += len(kw.word)
				return &ast.Literal{Loc: ast.Span{Start: start, End: p.pos}, Value: kw.value, Raw: kw.word}, nil
			}
		}
		return nil, p.unexpected()
	}
}

func (p *jsonParser) unexpected() error {
	if p.pos >= len(p.text) {
		return errorf(p.pos, p.pos, "Unexpected end of JSON input")
	}
	r, size := utf8.DecodeRuneInString(p.text[p.pos:])
	return errorf(p.pos, p.pos+size, "Unexpected token %q", r)
}

func (p *jsonParser) enter() error {
	p.depth++
	if p.depth > MaxJSONDepth {
		return errorf(p.pos, p.pos+1, "Maximum nesting depth exceeded")
	}
	return nil
}

func (p *jsonParser) object() (ast.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	obj := &ast.Object{Loc: ast.Span{Start: p.pos}}
	p.pos++ // {
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.pos < len(p.text) && p.text[p.pos] == '}' {
		p.pos++
		obj.Loc.End = p.pos
		return obj, nil
	}
	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.text) || p.text[p.pos] != '"' {
			return nil, p.unexpected()
		}
		keyStart := p.pos
		key, err := p.str()
		if err != nil {
			return nil, err
		}
		ident := &ast.Identifier{Loc: ast.Span{Start: keyStart, End: p.pos}, Value: key}
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.text) || p.text[p.pos] != ':' {
			return nil, p.unexpected()
		}
		p.pos++
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		obj.Properties = append(obj.Properties, &ast.Property{
			Loc:   ast.Span{Start: keyStart, End: val.Span().End},
			Key:   ident,
			Value: val,
		})
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.text) {
			return nil, p.unexpected()
		}
		switch p.text[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			obj.Loc.End = p.pos
			return obj, nil
		default:
			return nil, p.unexpected()
		}
	}
}

func (p *jsonParser) array() (ast.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	arr := &ast.Array{Loc: ast.Span{Start: p.pos}}
	p.pos++ // [
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.pos < len(p.text) && p.text[p.pos] == ']' {
		p.pos++
		arr.Loc.End = p.pos
		return arr, nil
	}
	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		item, err := p.value()
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, item)
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.pos >= len(p.text) {
			return nil, p.unexpected()
		}
		switch p.text[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			arr.Loc.End = p.pos
			return arr, nil
		default:
			return nil, p.unexpected()
		}
	}
}

func (p *jsonParser) number() (ast.Node, error) {
	start := p.pos
	i := p.pos
	if i < len(p.text) && p.text[i] == '-' {
		i++
	}
	digits := func() int {
		n := 0
		for i < len(p.text) && p.text[i] >= '0' && p.text[i] <= '9' {
			i++
			n++
		}
		return n
	}
	if digits() == 0 {
		p.pos = i
		return nil, p.unexpected()
	}
	if i < len(p.text) && p.text[i] == '.' {
		i++
		if digits() == 0 {
			p.pos = i
			return nil, p.unexpected()
		}
	}
	if i < len(p.text) && (p.text[i] == 'e' || p.text[i] == 'E') {
		i++
		if i < len(p.text) && (p.text[i] == '+' || p.text[i] == '-') {
			i++
		}
		if digits() == 0 {
			p.pos = i
			return nil, p.unexpected()
		}
	}
	raw := p.text[start:i]
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errorf(start, i, "Invalid number %s", raw)
	}
	p.pos = i
	return &ast.Literal{Loc: ast.Span{Start: start, End: i}, Value: f, Raw: raw}, nil
}

// str decodes a string literal starting at the opening quote.
func (p *jsonParser) str() (string, error) {
	start := p.pos
	p.pos++
	var b strings.Builder
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		switch {
		case c == '"':
			p.pos++
			return b.String(), nil
		case c == '\\':
			if p.pos+1 >= len(p.text) {
				return "", errorf(start, len(p.text), "Unterminated string")
			}
			esc := p.text[p.pos+1]
			p.pos += 2
			switch esc {
			case '"', '\\', '/':
				b.WriteByte(esc)
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'u':
				r, ok := p.hex4()
				if !ok {
					return "", errorf(p.pos-2, p.pos, "Invalid unicode escape")
				}
				if utf16.IsSurrogate(r) && strings.HasPrefix(p.text[p.pos:], `\u`) {
					save := p.pos
					p.pos += 2
					if r2, ok := p.hex4(); ok {
						if dec := utf16.DecodeRune(r, r2); dec != utf8.RuneError {
							b.WriteRune(dec)
							continue
						}
					}
					p.pos = save
				}
				b.WriteRune(r)
			default:
				return "", errorf(p.pos-2, p.pos, "Invalid escape character")
			}
		case c < 0x20:
			return "", errorf(p.pos, p.pos+1, "Invalid control character in string")
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", errorf(start, len(p.text), "Unterminated string")
}

func (p *jsonParser) hex4() (rune, bool) {
	if p.pos+4 > len(p.text) {
		return 0, false
	}
	v, err := strconv.ParseUint(p.text[p.pos:p.pos+4], 16, 32)
	if err != nil {
		return 0, false
	}
	p.pos += 4
	return rune(v), true
}
