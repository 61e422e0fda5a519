package classify

import (
	"testing"

	"cpdetect/assert"
	"cpdetect/types"
)

func TestClassify_KeywordInsertionOnLine(t *testing.T) {
	h := NewHeuristic(Config{})
	ev := &types.EditEvent{Offset: 120, Text: "function foo() {}", StartLine: 7}

	r, ok := h.Classify(ev)

	assert.True(t, ok, "keyword insertion qualifies")
	assert.Equal(t, 7, r.StartLine, "start line")
	assert.Equal(t, 7, r.EndLine, "no newline keeps end on start")
	assert.Equal(t, "function foo() {}", r.Text, "text")
}

func TestClassify_MultiLineInsertion(t *testing.T) {
	h := NewHeuristic(Config{})
	ev := &types.EditEvent{Text: "if x {\n\treturn y\n}", StartLine: 10}

	r, ok := h.Classify(ev)

	assert.True(t, ok, "block insertion qualifies")
	assert.Equal(t, 10, r.StartLine, "start line")
	assert.Equal(t, 12, r.EndLine, "end line counts newlines")
}

func TestClassify_Rejects(t *testing.T) {
	h := NewHeuristic(Config{})

	tests := []struct {
		name string
		ev   *types.EditEvent
	}{
		{"nil event", nil},
		{"empty text", &types.EditEvent{Text: "", StartLine: 1}},
		{"pure deletion", &types.EditEvent{Text: "", ReplacedLength: 4, StartLine: 3}},
		{"single keystroke", &types.EditEvent{Text: "a", StartLine: 1}},
		{"two characters", &types.EditEvent{Text: "ab", StartLine: 1}},
		{"short plain word", &types.EditEvent{Text: "abc", StartLine: 1}},
		{"newline run without code shape", &types.EditEvent{Text: "ab\ncd", StartLine: 1}},
		{"unresolved line", &types.EditEvent{Text: "const x = 1;", StartLine: 0}},
	}

	for _, tt := range tests {
		_, ok := h.Classify(tt.ev)
		assert.False(t, ok, tt.name)
	}
}

func TestLikely_Signals(t *testing.T) {
	h := NewHeuristic(Config{})

	tests := []struct {
		text string
		want bool
	}{
		{"let", true},              // keyword, length 3
		{"x = y;", true},           // terminator
		{"}\n", false},             // too short even with terminator
		{"a;\n  ", true},           // terminator followed by whitespace
		{"hello", true},            // significant single-line insertion
		{"abcd\nefgh", false},      // multi-line, no keyword or terminator
		{"classify", true},         // significant length
		{"ab\nclassic\ncd", false}, // keyword must be a whole word
		{"x\nconst y\nz", true},    // whole-word keyword across lines
		{"e\u0301e\u0301", false},  // grapheme count is 2
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, h.Likely(tt.text), "Likely("+tt.text+")")
	}
}

func TestNewHeuristic_CustomConfig(t *testing.T) {
	h := NewHeuristic(Config{
		MinLength:         5,
		SignificantLength: 20,
		Keywords:          []string{"func", "type"},
	})

	assert.False(t, h.Likely("hello"), "length not above min")
	assert.False(t, h.Likely("abcdefghij"), "below significant length")
	assert.True(t, h.Likely("func main()"), "custom keyword")
	assert.False(t, h.Likely("function foo"), "default keywords replaced")
	assert.True(t, h.Likely("return err;"), "terminator still applies")
}

func TestIsReplacement(t *testing.T) {
	assert.True(t, IsReplacement(&types.EditEvent{Text: "Println", ReplacedLength: 3}), "overwrite")
	assert.False(t, IsReplacement(&types.EditEvent{Text: "Println"}), "plain insertion")
	assert.False(t, IsReplacement(&types.EditEvent{Text: "x", ReplacedLength: 1}), "single char")
}
