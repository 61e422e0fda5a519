package engine

import (
	"time"

	"cpdetect/classify"
	"cpdetect/logger"
	"cpdetect/span"
	"cpdetect/text"
	"cpdetect/types"
)

// Detector accumulates candidate ranges for one document and reports the
// consolidated spans once activity pauses.
//
// A Detector is not safe for concurrent use; the engine drives it from its
// event loop only.
type Detector struct {
	doc        Document
	classifier classify.Classifier
	reporter   Reporter
	clock      Clock
	pause      *Debouncer

	snapshot []string
	seeded   bool
	pending  []types.LineRange
	last     *types.Span
}

// NewDetector returns a detector with an empty pending buffer and nothing
// reported yet. fire is invoked from the timer goroutine with the pause
// generation; the owner must route it back to Claim and Flush.
func NewDetector(doc Document, classifier classify.Classifier, reporter Reporter, clock Clock, delay time.Duration, fire func(gen uint64)) *Detector {
	return &Detector{
		doc:        doc,
		classifier: classifier,
		reporter:   reporter,
		clock:      clock,
		pause:      NewDebouncer(clock, delay, fire),
	}
}

// Reset drops pending ranges, forgets the last report and cancels the pause.
func (d *Detector) Reset() {
	d.pause.Cancel()
	d.pending = nil
	d.last = nil
	d.snapshot = nil
	d.seeded = false
}

// Seed syncs the document and records its content as the diff baseline.
func (d *Detector) Seed() error {
	if err := d.doc.Sync(); err != nil {
		return err
	}
	d.snapshot = copyLines(d.doc.Lines())
	d.seeded = true
	return nil
}

// OnEdit handles one edit operation reported by the editor. An edit that
// carries its start line is taken as is, since the document may have changed
// since. Otherwise the offset is resolved against a fresh snapshot.
func (d *Detector) OnEdit(ev types.EditEvent) {
	if ev.StartLine >= 1 {
		if !d.seeded {
			if err := d.Seed(); err != nil {
				logger.Debug("edit skipped, sync failed: %v", err)
				return
			}
		}
		d.ingest(ev)
		return
	}

	if err := d.doc.Sync(); err != nil {
		logger.Debug("edit skipped, sync failed: %v", err)
		return
	}
	d.snapshot = copyLines(d.doc.Lines())
	d.seeded = true
	if resolved, ok := resolveLine(ev, d.snapshot); ok {
		d.ingest(resolved)
	}
}

// OnSnapshot diffs the document against the previous snapshot and handles
// every inserted region as its own edit.
func (d *Detector) OnSnapshot() {
	old, seeded := d.snapshot, d.seeded
	if err := d.doc.Sync(); err != nil {
		logger.Debug("snapshot skipped, sync failed: %v", err)
		return
	}
	current := copyLines(d.doc.Lines())
	d.snapshot = current
	d.seeded = true

	if !seeded {
		return
	}

	for _, ev := range text.DiffEdits(old, current) {
		if resolved, ok := resolveLine(ev, current); ok {
			d.ingest(resolved)
		}
	}
}

// OnCursor handles a cursor or selection movement.
func (d *Detector) OnCursor(line int) {
	d.pause.Schedule()
}

// resolveLine sets ev.StartLine from ev.Offset within lines.
func resolveLine(ev types.EditEvent, lines []string) (types.EditEvent, bool) {
	line, err := text.LineAt(lines, ev.Offset)
	if err != nil {
		logger.Debug("malformed edit skipped: %v", err)
		return ev, false
	}
	ev.StartLine = line
	return ev, true
}

func (d *Detector) ingest(ev types.EditEvent) {
	if classify.IsReplacement(&ev) {
		logger.Debug("replacement insert at line %d (%d bytes over %d)", ev.StartLine, len(ev.Text), ev.ReplacedLength)
	}

	r, ok := d.classifier.Classify(&ev)
	if !ok {
		return
	}

	d.pending = append(d.pending, r)
	d.pause.Schedule()
}

// Claim reports whether the pause with the given generation should flush.
func (d *Detector) Claim(gen uint64) bool {
	return d.pause.Claim(gen)
}

// Flush consolidates pending ranges and reports each new, non-blank span.
// The pending buffer is always drained. Returns the number of records reported.
func (d *Detector) Flush() int {
	if len(d.pending) == 0 {
		return 0
	}
	defer logger.Trace("detector.Flush")()

	pending := d.pending
	d.pending = nil

	totalLines, err := d.doc.LineCount()
	if err != nil {
		logger.Debug("document unavailable, dropping %d pending ranges: %v", len(pending), err)
		return 0
	}

	reported := 0
	for _, r := range span.Consolidate(pending) {
		if span.IsBlank(r.Text) {
			continue
		}
		bounds := r.Span()
		if d.last != nil && *d.last == bounds {
			logger.Debug("span %d-%d already reported", r.StartLine, r.EndLine)
			continue
		}

		d.reporter.Report(&types.Record{
			StartLine:  r.StartLine,
			EndLine:    r.EndLine,
			File:       d.doc.Path(),
			LineDiff:   types.LineDiffOf(r.StartLine, r.EndLine),
			TotalLines: totalLines,
			Text:       r.Text,
			Time:       d.clock.Now(),
		})
		d.last = &bounds
		reported++
	}

	return reported
}

// Pending returns a copy of the pending candidate ranges.
func (d *Detector) Pending() []types.LineRange {
	if d.pending == nil {
		return nil
	}
	out := make([]types.LineRange, len(d.pending))
	copy(out, d.pending)
	return out
}

// LastReported returns the bounds of the most recent report, or nil.
func (d *Detector) LastReported() *types.Span {
	if d.last == nil {
		return nil
	}
	s := *d.last
	return &s
}

// PausePending reports whether a pause is armed.
func (d *Detector) PausePending() bool {
	return d.pause.Pending()
}

// Stop cancels the pause without touching accumulated state.
func (d *Detector) Stop() {
	d.pause.Cancel()
}

// copyLines creates a deep copy of a string slice
func copyLines(lines []string) []string {
	if lines == nil {
		return nil
	}
	result := make([]string, len(lines))
	copy(result, lines)
	return result
}
