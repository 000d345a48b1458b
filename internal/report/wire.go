package report

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"themecheck/internal/diag"
	"themecheck/internal/source"
)

// OffenseWire is the serialized form of one offense.
type OffenseWire struct {
	Check       string          `json:"check" msgpack:"check"`
	Message     string          `json:"message" msgpack:"message"`
	Severity    string          `json:"severity" msgpack:"severity"`
	URI         string          `json:"uri" msgpack:"uri"`
	Path        string          `json:"path,omitempty" msgpack:"path,omitempty"`
	Start       source.Position `json:"start" msgpack:"start"`
	End         source.Position `json:"end" msgpack:"end"`
	Fixable     bool            `json:"fixable" msgpack:"fixable"`
	Suggestions []string        `json:"suggestions" msgpack:"suggestions"`
}

// Counts tallies offenses by severity.
type Counts struct {
	Errors   int `json:"errors" msgpack:"errors"`
	Warnings int `json:"warnings" msgpack:"warnings"`
	Info     int `json:"info" msgpack:"info"`
	Fixable  int `json:"fixable" msgpack:"fixable"`
	Files    int `json:"files" msgpack:"files"`
}

// Total is the number of counted offenses.
func (c Counts) Total() int {
	return c.Errors + c.Warnings + c.Info
}

// Output is the root document of the json and msgpack formats.
type Output struct {
	Offenses []OffenseWire `json:"offenses" msgpack:"offenses"`
	Count    int           `json:"count" msgpack:"count"`
	// Truncated is the number of offenses dropped by Options.Max.
	Truncated int    `json:"truncated,omitempty" msgpack:"truncated,omitempty"`
	Summary   Counts `json:"summary" msgpack:"summary"`
}

// Count tallies items.
func Count(items []diag.Offense) Counts {
	var c Counts
	files := make(map[string]struct{})
	for i := range items {
		switch items[i].Severity {
		case diag.SevError:
			c.Errors++
		case diag.SevWarning:
			c.Warnings++
		default:
			c.Info++
		}
		if items[i].Fixable() {
			c.Fixable++
		}
		files[items[i].URI] = struct{}{}
	}
	c.Files = len(files)
	return c
}

// Wire converts one offense.
func Wire(o *diag.Offense, opts Options) OffenseWire {
	w := OffenseWire{
		Check:       o.Check,
		Message:     o.Message,
		Severity:    strings.ToLower(o.Severity.String()),
		URI:         o.URI,
		Start:       o.Start,
		End:         o.End,
		Fixable:     o.Fixable(),
		Suggestions: make([]string, 0, len(o.Suggestions)),
	}
	if opts.Root != "" {
		w.Path = opts.path(o.URI)
	}
	for _, s := range o.Suggestions {
		w.Suggestions = append(w.Suggestions, s.Message)
	}
	return w
}

// Build forms the output structure without serializing it.
func Build(items []diag.Offense, opts Options) Output {
	shown := items
	if opts.Max > 0 && opts.Max < len(shown) {
		shown = shown[:opts.Max]
	}
	out := Output{
		Offenses:  make([]OffenseWire, 0, len(shown)),
		Count:     len(shown),
		Truncated: len(items) - len(shown),
		Summary:   Count(items),
	}
	for i := range shown {
		out.Offenses = append(out.Offenses, Wire(&shown[i], opts))
	}
	return out
}

// JSON writes items as indented JSON.
func JSON(w io.Writer, items []diag.Offense, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Build(items, opts))
}

// MsgPack writes items as a single msgpack document.
func MsgPack(w io.Writer, items []diag.Offense, opts Options) error {
	return msgpack.NewEncoder(w).Encode(Build(items, opts))
}

// Write dispatches on format.
func Write(w io.Writer, format Format, items []diag.Offense, opts Options) error {
	switch format {
	case FormatJSON:
		return JSON(w, items, opts)
	case FormatMsgPack:
		return MsgPack(w, items, opts)
	default:
		return Pretty(w, items, opts)
	}
}
