package fix

import (
	"errors"
	"fmt"

	"themecheck/internal/source"
)

// ErrCorrectorMismatch is returned by a Builder handed the wrong corrector
// variant for its document kind.
var ErrCorrectorMismatch = errors.New("fix: corrector does not match document kind")

// Corrector accumulates edits against one source text.
type Corrector interface {
	Source() string
	Fix() Fix
}

// Builder is a deferred fix. It is only invoked when the fix is requested.
type Builder func(Corrector) error

// StringFix binds fn to a StringCorrector.
func StringFix(fn func(c *StringCorrector)) Builder {
	return func(c Corrector) error {
		sc, ok := c.(*StringCorrector)
		if !ok {
			return fmt.Errorf("%w: want string corrector, got %T", ErrCorrectorMismatch, c)
		}
		fn(sc)
		return nil
	}
}

// JSONFix binds fn to a JSONCorrector.
func JSONFix(fn func(c *JSONCorrector)) Builder {
	return func(c Corrector) error {
		jc, ok := c.(*JSONCorrector)
		if !ok {
			return fmt.Errorf("%w: want json corrector, got %T", ErrCorrectorMismatch, c)
		}
		fn(jc)
		return nil
	}
}

// NewCorrector picks the corrector variant for kind.
func NewCorrector(kind source.Kind, text string) (Corrector, error) {
	switch kind {
	case source.KindTemplate:
		return NewStringCorrector(text), nil
	case source.KindData:
		return NewJSONCorrector(text)
	default:
		return nil, fmt.Errorf("fix: no corrector for %s documents", kind)
	}
}

// StringCorrector records raw text edits.
type StringCorrector struct {
	source string
	fixes  Many
}

func NewStringCorrector(source string) *StringCorrector {
	return &StringCorrector{source: source}
}

func (c *StringCorrector) Source() string {
	return c.source
}

func (c *StringCorrector) Insert(index int, text string) {
	c.fixes = append(c.fixes, Description{StartIndex: index, EndIndex: index, InsertText: text})
}

func (c *StringCorrector) Replace(start, end int, text string) {
	c.fixes = append(c.fixes, Description{StartIndex: start, EndIndex: end, InsertText: text})
}

func (c *StringCorrector) Remove(start, end int) {
	c.fixes = append(c.fixes, Description{StartIndex: start, EndIndex: end})
}

func (c *StringCorrector) Fix() Fix {
	out := make(Many, len(c.fixes))
	copy(out, c.fixes)
	return out
}
