package source

import (
	"unicode/utf8"

	"fortio.org/safecast"
)

// Position is a location in a document: a byte offset plus the 0-based line and
// UTF-16 character the editor protocol expects.
type Position struct {
	Index     int `json:"index" msgpack:"index"`
	Line      int `json:"line" msgpack:"line"`
	Character int `json:"character" msgpack:"character"`
}

// LineIndex maps byte offsets to line/character pairs and back.
type LineIndex struct {
	text  string
	lines []uint32 // смещения '\n'
}

func NewLineIndex(text string) *LineIndex {
	return &LineIndex{text: text, lines: buildLineIndex(text)}
}

func buildLineIndex(text string) []uint32 {
	out := make([]uint32, 0, 64)
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}
		off, err := safecast.Conv[uint32](i)
		if err != nil {
			// дальше 4GiB не индексируем, всё остальное считается последней строкой
			break
		}
		out = append(out, off)
	}
	return out
}

// LineCount is the number of lines, counting a trailing empty line.
func (li *LineIndex) LineCount() int {
	return len(li.lines) + 1
}

// LineStart returns the byte offset of the first byte of line (0-based).
// Lines past the end clamp to the end of the text.
func (li *LineIndex) LineStart(line int) int {
	if line <= 0 {
		return 0
	}
	if line > len(li.lines) {
		return len(li.text)
	}
	return int(li.lines[line-1]) + 1
}

// LineEnd returns the offset of the newline terminating line, or the text
// length for the last line.
func (li *LineIndex) LineEnd(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(li.lines) {
		return len(li.text)
	}
	return int(li.lines[line])
}

// Line returns the text of line without its terminating newline.
func (li *LineIndex) Line(line int) string {
	return li.text[li.LineStart(line):li.LineEnd(line)]
}

func (li *LineIndex) lineOf(index int) int {
	off, err := safecast.Conv[uint32](index)
	if err != nil {
		return len(li.lines)
	}
	// бинпоиск: количество '\n' строго до off
	lo, hi := 0, len(li.lines)
	for lo < hi {
		mid := (lo + hi) >> 1
		if li.lines[mid] < off {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Position converts a byte offset, clamped to [0, len(text)].
func (li *LineIndex) Position(index int) Position {
	if index < 0 {
		index = 0
	}
	if index > len(li.text) {
		index = len(li.text)
	}
	line := li.lineOf(index)
	start := li.LineStart(line)
	return Position{Index: index, Line: line, Character: utf16Len(li.text[start:index])}
}

// Offset converts a line and UTF-16 character to a byte offset. Characters
// past the end of the line clamp to the line end.
func (li *LineIndex) Offset(line, character int) int {
	if line < 0 {
		return 0
	}
	if line > len(li.lines) {
		return len(li.text)
	}
	i := li.LineStart(line)
	end := li.LineEnd(line)
	units := 0
	for i < end && units < character {
		r, size := utf8.DecodeRuneInString(li.text[i:])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > character {
			break
		}
		units += need
		i += size
	}
	return i
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
