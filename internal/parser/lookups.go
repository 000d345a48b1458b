package parser

import (
	"themecheck/internal/ast"
)

var keywords = map[string]struct{}{
	"and": {}, "or": {}, "contains": {}, "in": {}, "with": {}, "as": {},
	"for": {}, "true": {}, "false": {}, "nil": {}, "null": {}, "empty": {},
	"blank": {}, "reversed": {}, "limit": {}, "offset": {}, "cols": {},
	"by": {},
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '-' || c == '?' || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// lookups extracts root variable references from a Liquid expression. base is
// the offset of expr in the document. Quoted strings, numbers, keywords,
// property segments after '.' and named-argument keys are skipped.
func lookups(expr string, base int) []*ast.VariableLookup {
	var out []*ast.VariableLookup
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == '\'' || c == '"':
			j := i + 1
			for j < len(expr) && expr[j] != c {
				j++
			}
			i = j + 1
		case c >= '0' && c <= '9':
			for i < len(expr) && (expr[i] == '.' || (expr[i] >= '0' && expr[i] <= '9')) {
				i++
			}
		case isIdentStart(c):
			j := i + 1
			for j < len(expr) && isIdentPart(expr[j]) {
				j++
			}
			name := expr[i:j]
			if !afterDot(expr, i) && !beforeColon(expr, j) {
				if _, kw := keywords[name]; !kw {
					out = append(out, &ast.VariableLookup{
						Loc:  ast.Span{Start: base + i, End: base + j},
						Name: name,
					})
				}
			}
			i = j
		default:
			i++
		}
	}
	return out
}

func afterDot(expr string, i int) bool {
	for k := i - 1; k >= 0; k-- {
		if isSpace(expr[k]) {
			continue
		}
		return expr[k] == '.'
	}
	return false
}

func beforeColon(expr string, j int) bool {
	for k := j; k < len(expr); k++ {
		if isSpace(expr[k]) {
			continue
		}
		return expr[k] == ':'
	}
	return false
}
