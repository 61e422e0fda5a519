package text

import (
	"cpdetect/types"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffEdits compares two snapshots of a document and returns one EditEvent per
// inserted region. Offsets are byte offsets into the new snapshot. A deletion
// directly followed by an insertion is reported as a replacement; a deletion
// with nothing inserted produces no event.
func DiffEdits(oldLines, newLines []string) []types.EditEvent {
	oldText := JoinLines(oldLines)
	newText := JoinLines(newLines)

	if oldText == newText {
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, true)

	var edits []types.EditEvent
	offset := 0
	replaced := 0

	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			offset += len(diff.Text)
			replaced = 0

		case diffmatchpatch.DiffDelete:
			replaced += len(diff.Text)

		case diffmatchpatch.DiffInsert:
			edits = append(edits, types.EditEvent{
				Offset:         offset,
				Text:           diff.Text,
				ReplacedLength: replaced,
			})
			offset += len(diff.Text)
			replaced = 0
		}
	}

	return edits
}
