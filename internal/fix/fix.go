package fix

import (
	"errors"
	"sort"
)

var (
	// ErrOverlappingRanges is returned when two descriptions of one batch overlap.
	ErrOverlappingRanges = errors.New("Overlapping ranges are not allowed")
	// ErrOverboard is returned when a description reaches outside the text.
	ErrOverboard = errors.New("Fix description is going overboard")
)

// Fix is either a Description or a Many.
type Fix interface {
	isFix()
}

// Description replaces [StartIndex, EndIndex) of the original text with
// InsertText. Indices are byte offsets.
type Description struct {
	StartIndex int    `json:"startIndex" msgpack:"startIndex"`
	EndIndex   int    `json:"endIndex" msgpack:"endIndex"`
	InsertText string `json:"insertText" msgpack:"insertText"`
}

// Many groups fixes that are applied together.
type Many []Fix

func (Description) isFix() {}
func (Many) isFix()        {}

// Flatten yields every Description of f in depth-first order.
func Flatten(f Fix) []Description {
	var out []Description
	var walk func(Fix)
	walk = func(f Fix) {
		switch v := f.(type) {
		case Description:
			out = append(out, v)
		case *Description:
			if v != nil {
				out = append(out, *v)
			}
		case Many:
			for _, child := range v {
				walk(child)
			}
		}
	}
	walk(f)
	return out
}

// Sorted flattens f and orders the result by (StartIndex, EndIndex). Equal
// keys keep their flattened order.
func Sorted(f Fix) []Description {
	descs := Flatten(f)
	sort.SliceStable(descs, func(i, j int) bool {
		if descs[i].StartIndex != descs[j].StartIndex {
			return descs[i].StartIndex < descs[j].StartIndex
		}
		return descs[i].EndIndex < descs[j].EndIndex
	})
	return descs
}

// Validate reports ErrOverlappingRanges for sorted descriptions that overlap.
// Touching ranges and repeated insertions at one index are allowed.
func Validate(sorted []Description) error {
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i].EndIndex > sorted[i+1].StartIndex {
			return ErrOverlappingRanges
		}
	}
	return nil
}

// Apply patches source with every description of f. It never mutates its
// inputs and either applies all descriptions or none.
func Apply(source string, f Fix) (string, error) {
	descs := Sorted(f)
	if err := Validate(descs); err != nil {
		return "", err
	}
	out := source
	offset := 0
	for _, d := range descs {
		start := d.StartIndex + offset
		end := d.EndIndex + offset
		if start < 0 || end > len(out) || start > end {
			return "", ErrOverboard
		}
		out = out[:start] + d.InsertText + out[end:]
		offset += len(d.InsertText) - (d.EndIndex - d.StartIndex)
	}
	return out, nil
}
