package parser

import (
	"errors"
	"fmt"

	"themecheck/internal/ast"
)

// Error is a parse failure with the byte range it was detected at.
type Error struct {
	Message string
	Start   int
	End     int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d", e.Message, e.Start)
}

func (e *Error) Span() ast.Span {
	return ast.Span{Start: e.Start, End: e.End}
}

// AsError unwraps a *Error from err.
func AsError(err error) (*Error, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

func errorf(start, end int, format string, args ...any) *Error {
	if end < start {
		end = start
	}
	return &Error{Message: fmt.Sprintf(format, args...), Start: start, End: end}
}
