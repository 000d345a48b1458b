// Package report renders offenses for the command line.
package report

import (
	"fmt"
	"strings"

	"themecheck/internal/source"
)

// Format selects the output encoding of a batch run.
type Format string

const (
	FormatPretty  Format = "pretty"
	FormatJSON    Format = "json"
	FormatMsgPack Format = "msgpack"
)

// ParseFormat accepts the values of the --format flag.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPretty:
		return FormatPretty, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMsgPack, "mp":
		return FormatMsgPack, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected pretty|json|msgpack)", s)
	}
}

// Options configures every output format.
type Options struct {
	Color bool
	// Root is the theme uri; paths below it are printed relative.
	Root string
	// Max truncates the listing, 0 - без ограничений.
	Max int
	// Text returns the current text of a document for context lines.
	Text func(uri string) (string, bool)
	// Context shows the offending line with an underline.
	Context bool
}

func (o Options) path(uri string) string {
	if o.Root != "" {
		if rel := source.RelativePath(o.Root, uri); rel != uri {
			return rel
		}
	}
	if p := source.URIToPath(uri); p != "" {
		return p
	}
	return uri
}
