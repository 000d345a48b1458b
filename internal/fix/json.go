package fix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"themecheck/internal/ast"
	"themecheck/internal/parser"
)

// object is a JSON object that remembers key order.
type object struct {
	keys   []string
	values map[string]any
}

func newObject() *object {
	return &object{values: make(map[string]any)}
}

func (o *object) get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *object) set(key string, v any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *object) delete(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// JSONCorrector edits a decoded copy of a JSON document. However many calls
// are made, Fix reports one Description rewriting the whole document.
type JSONCorrector struct {
	source  string
	root    any
	touched bool
}

// NewJSONCorrector decodes source, keeping object key order.
func NewJSONCorrector(source string) (*JSONCorrector, error) {
	node, err := parser.ParseJSON(source)
	if err != nil {
		return nil, fmt.Errorf("fix: json corrector: %w", err)
	}
	return &JSONCorrector{source: source, root: fromNode(node)}, nil
}

func (c *JSONCorrector) Source() string {
	return c.source
}

func fromNode(n ast.Node) any {
	switch v := n.(type) {
	case *ast.Object:
		obj := newObject()
		for _, prop := range v.Properties {
			obj.set(prop.Key.Value, fromNode(prop.Value))
		}
		return obj
	case *ast.Array:
		out := make([]any, 0, len(v.Items))
		for _, item := range v.Items {
			out = append(out, fromNode(item))
		}
		return out
	case *ast.Literal:
		if _, ok := v.Value.(float64); ok {
			return json.Number(v.Raw)
		}
		return v.Value
	default:
		return nil
	}
}

// normalize turns an arbitrary Go value into the corrector's value model.
func normalize(v any) any {
	switch val := v.(type) {
	case nil, string, bool, json.Number, *object:
		return val
	case float64:
		return json.Number(strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		return json.Number(strconv.Itoa(val))
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := newObject()
		for _, k := range keys {
			obj.set(k, normalize(val[k]))
		}
		return obj
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, normalize(item))
		}
		return out
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		node, err := parser.ParseJSON(string(raw))
		if err != nil {
			return nil
		}
		return fromNode(node)
	}
}

// Add sets the value at a dot-separated path. Missing ancestors are created
// and non-object ancestors are overwritten. An object value is deep-merged
// into an existing object at the path. A document whose root is not an
// object is left as is.
func (c *JSONCorrector) Add(path string, value any) {
	root, ok := c.root.(*object)
	if !ok {
		return
	}
	c.touched = true
	segs := strings.Split(path, ".")
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.values[seg].(*object)
		if !ok {
			next = newObject()
			cur.set(seg, next)
		}
		cur = next
	}
	last := segs[len(segs)-1]
	value = normalize(value)
	existing, _ := cur.get(last)
	if dst, ok := existing.(*object); ok {
		if src, ok := value.(*object); ok {
			merge(dst, src)
			return
		}
	}
	cur.set(last, value)
}

func merge(dst, src *object) {
	for _, k := range src.keys {
		sv := src.values[k]
		if dv, ok := dst.values[k].(*object); ok {
			if so, ok := sv.(*object); ok {
				merge(dv, so)
				continue
			}
		}
		dst.set(k, sv)
	}
}

// Remove deletes the value at a dot-separated path. A missing path is a
// no-op; the emptied parent object is kept.
func (c *JSONCorrector) Remove(path string) {
	segs := strings.Split(path, ".")
	cur, ok := c.root.(*object)
	if !ok {
		return
	}
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.values[seg].(*object)
		if !ok {
			return
		}
		cur = next
	}
	if cur.delete(segs[len(segs)-1]) {
		c.touched = true
	}
}

// Fix returns an empty Many when nothing was edited.
func (c *JSONCorrector) Fix() Fix {
	if !c.touched {
		return Many{}
	}
	var buf bytes.Buffer
	writeValue(&buf, c.root, 0)
	if strings.HasSuffix(c.source, "\n") {
		buf.WriteByte('\n')
	}
	return Description{StartIndex: 0, EndIndex: len(c.source), InsertText: buf.String()}
}

const indentUnit = "  "

func writeValue(buf *bytes.Buffer, v any, depth int) {
	switch val := v.(type) {
	case *object:
		if len(val.keys) == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteString("{\n")
		for i, k := range val.keys {
			buf.WriteString(strings.Repeat(indentUnit, depth+1))
			writeString(buf, k)
			buf.WriteString(": ")
			writeValue(buf, val.values[k], depth+1)
			if i < len(val.keys)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(strings.Repeat(indentUnit, depth))
		buf.WriteByte('}')
	case []any:
		if len(val) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteString("[\n")
		for i, item := range val {
			buf.WriteString(strings.Repeat(indentUnit, depth+1))
			writeValue(buf, item, depth+1)
			if i < len(val)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(strings.Repeat(indentUnit, depth))
		buf.WriteByte(']')
	case string:
		writeString(buf, val)
	case json.Number:
		buf.WriteString(val.String())
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case nil:
		buf.WriteString("null")
	default:
		buf.WriteString("null")
	}
}

func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encode always terminates with '\n'
	buf.Truncate(buf.Len() - 1)
}
