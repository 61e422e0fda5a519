package engine

import (
	"errors"
	"sync"
	"time"

	"cpdetect/types"
)

// --- Mock implementations ---

var errGone = errors.New("buffer gone")

// mockDocument implements the Document interface for testing
type mockDocument struct {
	mu       sync.Mutex
	lines    []string
	path     string
	syncErr  error
	countErr error

	// Track method calls
	syncCalls  int
	countCalls int
}

func newMockDocument(lines ...string) *mockDocument {
	return &mockDocument{
		lines: lines,
		path:  "src/main.js",
	}
}

func (d *mockDocument) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syncCalls++
	return d.syncErr
}

func (d *mockDocument) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines
}

func (d *mockDocument) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

func (d *mockDocument) LineCount() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.countCalls++
	if d.countErr != nil {
		return 0, d.countErr
	}
	return len(d.lines), nil
}

func (d *mockDocument) setLines(lines ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = lines
}

// mockEditor implements the Editor interface for testing
type mockEditor struct {
	mu       sync.Mutex
	docs     map[int]*mockDocument
	project  string
	notified []string
	handlers Handlers
}

func newMockEditor() *mockEditor {
	return &mockEditor{
		docs:    make(map[int]*mockDocument),
		project: "demo",
	}
}

func (e *mockEditor) Document(buf int) Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc, ok := e.docs[buf]
	if !ok {
		doc = newMockDocument()
		e.docs[buf] = doc
	}
	return doc
}

func (e *mockEditor) ProjectName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project
}

func (e *mockEditor) Notify(msg string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notified = append(e.notified, msg)
	return nil
}

func (e *mockEditor) RegisterHandlers(h Handlers) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = h
	return nil
}

func (e *mockEditor) notifications() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.notified...)
}

// recordingReporter collects every record it receives
type recordingReporter struct {
	mu      sync.Mutex
	records []types.Record
}

func (r *recordingReporter) Report(rec *types.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
}

func (r *recordingReporter) all() []types.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Record(nil), r.records...)
}

// mockClock implements Clock for testing
type mockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

func newMockClock() *mockClock {
	return &mockClock{
		now: time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC),
	}
}

func (c *mockClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTimer{
		fireTime: c.now.Add(d),
		f:        f,
	}
	c.timers = append(c.timers, t)
	return t
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves time forward and fires every due timer once, in order.
func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	// Copy timers to avoid holding lock during callback
	var toFire, remaining []*mockTimer
	for _, t := range c.timers {
		if !t.fireTime.After(c.now) {
			toFire = append(toFire, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
	c.mu.Unlock()

	for _, t := range toFire {
		t.fire()
	}
}

// armed returns the number of timers that have not fired or been stopped.
func (c *mockClock) armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

type mockTimer struct {
	mu       sync.Mutex
	fireTime time.Time
	f        func()
	stopped  bool
}

func (t *mockTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

func (t *mockTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *mockTimer) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	f := t.f
	t.mu.Unlock()
	f()
}

// offsetOfLine returns the byte offset where 1-based line n starts.
func offsetOfLine(lines []string, n int) int {
	offset := 0
	for i := 0; i < n-1 && i < len(lines); i++ {
		offset += len(lines[i]) + 1
	}
	return offset
}

// numberedLines returns n placeholder lines.
func numberedLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "// line"
	}
	return lines
}
