// Package span merges candidate line ranges into minimal disjoint spans.
package span

import (
	"sort"
	"strings"

	"cpdetect/types"
)

// Consolidate merges overlapping and touching ranges. The result is sorted
// ascending by StartLine and pairwise disjoint; merged texts are joined with
// a newline in sorted order. The input slice is left untouched.
//
// Each pass is a stable sort followed by a linear sweep. Passes repeat until
// one leaves the count unchanged; since the count never grows, there are at
// most len(ranges) passes.
func Consolidate(ranges []types.LineRange) []types.LineRange {
	if len(ranges) == 0 {
		return nil
	}

	current := make([]types.LineRange, len(ranges))
	copy(current, ranges)

	for {
		merged := mergePass(current)
		if len(merged) == len(current) {
			return merged
		}
		current = merged
	}
}

func mergePass(ranges []types.LineRange) []types.LineRange {
	sorted := make([]types.LineRange, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartLine < sorted[j].StartLine
	})

	result := make([]types.LineRange, 0, len(sorted))
	cur := normalize(sorted[0])

	for _, next := range sorted[1:] {
		next = normalize(next)
		if next.StartLine <= cur.EndLine {
			cur.EndLine = max(cur.EndLine, next.EndLine)
			cur.Text += "\n" + next.Text
			continue
		}
		result = append(result, cur)
		cur = next
	}

	return append(result, cur)
}

func normalize(r types.LineRange) types.LineRange {
	if r.EndLine < r.StartLine {
		r.EndLine = r.StartLine
	}
	return r
}

// IsBlank reports whether s is empty or only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Covered returns the set of lines covered by ranges.
func Covered(ranges []types.LineRange) map[int]bool {
	lines := make(map[int]bool)
	for _, r := range ranges {
		for l := r.StartLine; l <= max(r.EndLine, r.StartLine); l++ {
			lines[l] = true
		}
	}
	return lines
}
