package source

import (
	"path"
	"strings"
)

// Kind is the document kind a source file parses into.
type Kind uint8

const (
	KindUnknown  Kind = iota
	KindTemplate      // *.liquid
	KindData          // *.json
)

func (k Kind) String() string {
	switch k {
	case KindTemplate:
		return "template"
	case KindData:
		return "data"
	default:
		return "unknown"
	}
}

// KindForURI picks the kind from the file extension of a uri or path.
// Query strings and fragments are ignored.
func KindForURI(uri string) Kind {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	switch strings.ToLower(path.Ext(uri)) {
	case ".liquid":
		return KindTemplate
	case ".json":
		return KindData
	default:
		return KindUnknown
	}
}

// ParseKind parses the names printed by Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "template", "liquid":
		return KindTemplate, true
	case "data", "json":
		return KindData, true
	default:
		return KindUnknown, false
	}
}
