// Package classify decides whether a single edit looks like an accepted
// completion rather than manual typing, and turns qualifying edits into
// candidate line ranges.
package classify

import (
	"regexp"
	"strings"

	"cpdetect/text"
	"cpdetect/types"

	"github.com/rivo/uniseg"
)

// Classifier is the strategy used by the detector to judge one edit.
// Implementations must be pure: no state is shared between calls.
type Classifier interface {
	// Classify returns the candidate range for ev and true when ev looks
	// autocompleted. ev.StartLine must already be resolved (1-indexed).
	Classify(ev *types.EditEvent) (types.LineRange, bool)
}

// DefaultKeywords are the language keywords that mark an insertion as code-shaped.
var DefaultKeywords = []string{"function", "class", "const", "let", "var"}

const (
	DefaultMinLength         = 2
	DefaultSignificantLength = 3
)

// Config tunes the heuristic. Zero values fall back to the defaults.
type Config struct {
	MinLength         int      // Inserted text must be longer than this
	SignificantLength int      // Single-line insertions longer than this qualify on their own
	Keywords          []string // Whole-word keywords that qualify an insertion
}

// Heuristic classifies by insertion shape only.
type Heuristic struct {
	minLength         int
	significantLength int
	keywordPattern    *regexp.Regexp
}

var terminatorPattern = regexp.MustCompile(`[;}]\s*$`)

func NewHeuristic(config Config) *Heuristic {
	minLength := config.MinLength
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	significant := config.SignificantLength
	if significant <= 0 {
		significant = DefaultSignificantLength
	}
	keywords := config.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}

	return &Heuristic{
		minLength:         minLength,
		significantLength: significant,
		keywordPattern:    regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`),
	}
}

func (h *Heuristic) Classify(ev *types.EditEvent) (types.LineRange, bool) {
	if ev == nil || ev.StartLine < 1 || !h.Likely(ev.Text) {
		return types.LineRange{}, false
	}

	start := ev.StartLine
	end := max(start+text.CountNewlines(ev.Text), start)

	return types.LineRange{
		StartLine: start,
		EndLine:   end,
		Text:      ev.Text,
	}, true
}

// Likely reports whether inserted text has the shape of an accepted suggestion.
func (h *Heuristic) Likely(inserted string) bool {
	length := uniseg.GraphemeClusterCount(inserted)
	if length <= h.minLength {
		return false
	}

	if h.keywordPattern.MatchString(inserted) {
		return true
	}
	if terminatorPattern.MatchString(inserted) {
		return true
	}
	return length > h.significantLength && !strings.Contains(inserted, "\n")
}

// IsReplacement reports a multi-character insertion that overwrote existing
// text, the shape a Tab-accept over a partially typed word produces.
func IsReplacement(ev *types.EditEvent) bool {
	return len(ev.Text) > 1 && ev.ReplacedLength != 0
}
