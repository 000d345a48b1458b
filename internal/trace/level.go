package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff      Level = iota // no tracing
	LevelRun                   // run boundaries
	LevelDocument              // + per-document spans
	LevelCheck                 // + per-check spans
	LevelDebug                 // everything
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelRun:
		return "run"
	case LevelDocument:
		return "document"
	case LevelCheck:
		return "check"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a flag or setting value to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff, nil
	case "run", "messages":
		return LevelRun, nil
	case "document":
		return LevelDocument, nil
	case "check", "verbose":
		return LevelCheck, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|run|document|check|debug)", s)
	}
}

// ShouldEmit reports whether events of scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	if l == LevelOff {
		return false
	}
	return uint8(scope) <= uint8(l)
}
