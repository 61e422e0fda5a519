package text

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOffsetOutOfRange is returned when a byte offset falls outside the document.
var ErrOffsetOutOfRange = errors.New("offset out of range")

// JoinLines joins a slice of strings with newlines.
// Each line gets a trailing \n, matching the byte layout Neovim reports offsets
// against and the line terminator format diffmatchpatch expects:
// - ["a", "b"] → "a\nb\n" (2 lines)
// - ["a", ""] → "a\n\n" (2 lines, second is empty)
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// ByteLength returns the size of the document as laid out by JoinLines.
func ByteLength(lines []string) int {
	n := 0
	for _, line := range lines {
		n += len(line) + 1
	}
	return n
}

// LineAt returns the 1-indexed line that contains the byte offset.
// The newline terminating a line belongs to that line. The offset just past
// the final newline maps to the last line, since that is where text appended
// at the end of the buffer lands.
func LineAt(lines []string, offset int) (int, error) {
	total := ByteLength(lines)
	if offset < 0 || offset > total {
		return 0, fmt.Errorf("%w: offset %d, document size %d", ErrOffsetOutOfRange, offset, total)
	}

	pos := 0
	for i, line := range lines {
		end := pos + len(line)
		if offset <= end {
			return i + 1, nil
		}
		pos = end + 1
	}

	return max(len(lines), 1), nil
}

// CountNewlines returns the number of \n characters in s.
func CountNewlines(s string) int {
	return strings.Count(s, "\n")
}
