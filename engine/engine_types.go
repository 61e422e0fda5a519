package engine

import (
	"time"

	"cpdetect/types"
)

// Document is the engine's view of one editor buffer.
// Implemented by buffer.NvimDocument for Neovim integration.
type Document interface {
	Sync() error             // Refresh the cached snapshot; fails when the buffer is gone
	Lines() []string         // Cached snapshot from the last Sync
	Path() string            // File identifier from the last Sync
	LineCount() (int, error) // Live line count; fails when the buffer is gone
}

// Editor is the host editor connection.
// Implemented by buffer.NvimEditor.
type Editor interface {
	Document(buf int) Document
	ProjectName() string
	Notify(msg string) error
	RegisterHandlers(h Handlers) error
}

// Handlers receives editor notifications. Callbacks run on the editor's
// goroutine and must only hand work to the event loop.
type Handlers struct {
	OnEvent  func(event string, buf int)
	OnEdit   func(buf int, ev types.EditEvent)
	OnCursor func(buf, line int)
}

// Reporter receives finalized records. Implementations must not block the
// event loop.
type Reporter interface {
	Report(rec *types.Record)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(rec *types.Record)

func (f ReporterFunc) Report(rec *types.Record) { f(rec) }

// Reporters fans a record out to every non-nil reporter in order.
type Reporters []Reporter

func (rs Reporters) Report(rec *types.Record) {
	for _, r := range rs {
		if r != nil {
			r.Report(rec)
		}
	}
}

// Clock abstracts time so debounce behaviour can be driven by tests.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// Timer is the handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

const (
	DefaultPauseDelay   = 1000 * time.Millisecond
	DefaultMaxDocuments = 16
)

type EngineConfig struct {
	PauseDelay   time.Duration // Quiescence before pending ranges are consolidated
	MaxDocuments int           // Detectors kept alive at once (least recently used are dropped)
	MachineID    string        // Stamped onto every record
}

// docKey identifies a buffer of one editor connection. Editor values must be
// comparable.
type docKey struct {
	editor Editor
	buf    int
}

// docState tracks one document's detector and when it was last touched.
type docState struct {
	detector     *Detector
	lastAccessNs int64
}
