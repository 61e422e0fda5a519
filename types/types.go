package types

import "time"

// EditEvent is one atomic text operation reported by the editor.
type EditEvent struct {
	Offset         int    // Byte offset of the change start in the document
	Text           string // Inserted text (empty for pure deletions)
	ReplacedLength int    // Bytes of existing text the insertion replaced
	CursorLine     int    // 1-indexed cursor line when the edit happened
	StartLine      int    // 1-indexed line of the change at edit time (0 = resolve from Offset)
}

// LineRange is a candidate or consolidated span of inserted lines.
type LineRange struct {
	StartLine int // 1-indexed
	EndLine   int // 1-indexed, inclusive, always >= StartLine
	Text      string
}

// Span returns the bounds of the range without its text.
func (r LineRange) Span() Span {
	return Span{StartLine: r.StartLine, EndLine: r.EndLine}
}

// Span is a bare pair of line bounds, used for duplicate suppression.
type Span struct {
	StartLine int
	EndLine   int
}

// Record is one finalized report of a likely autocompleted span.
type Record struct {
	StartLine  int
	EndLine    int
	File       string
	Project    string
	MachineID  string
	LineDiff   int // EndLine - StartLine, floored at 1
	TotalLines int
	Text       string
	Time       time.Time
}

// LineDiffOf returns the reported line-count difference for a span.
func LineDiffOf(startLine, endLine int) int {
	return max(endLine-startLine, 1)
}
