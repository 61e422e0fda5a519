package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"cpdetect/classify"
	"cpdetect/logger"
	"cpdetect/types"
)

type Engine struct {
	classifier classify.Classifier
	reporter   Reporter
	clock      Clock
	config     EngineConfig

	eventChan chan Event

	// Main context and cancel for the engine lifecycle
	mainCtx    context.Context
	mainCancel context.CancelFunc
	stopped    atomic.Bool
	stopOnce   sync.Once

	// Per-buffer detectors keyed by connection, owned by the event loop
	docs map[docKey]*docState
}

func NewEngine(classifier classify.Classifier, reporter Reporter, config EngineConfig, clock Clock) (*Engine, error) {
	if classifier == nil {
		classifier = classify.NewHeuristic(classify.Config{})
	}
	if reporter == nil {
		reporter = Reporters(nil)
	}
	if clock == nil {
		clock = RealClock()
	}
	if config.PauseDelay <= 0 {
		config.PauseDelay = DefaultPauseDelay
	}
	if config.MaxDocuments <= 0 {
		config.MaxDocuments = DefaultMaxDocuments
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		classifier: classifier,
		reporter:   reporter,
		clock:      clock,
		config:     config,
		eventChan:  make(chan Event, 100),
		mainCtx:    ctx,
		mainCancel: cancel,
		docs:       make(map[docKey]*docState),
	}, nil
}

func (e *Engine) Start(ctx context.Context) {
	if e.stopped.Load() {
		return
	}

	// Tie the engine lifecycle to the caller's context
	e.mainCtx, e.mainCancel = context.WithCancel(ctx)

	go e.eventLoop(e.mainCtx)
	logger.Info("engine started")
}

// Stop gracefully shuts down the engine. Pending ranges are discarded.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		logger.Info("stopping engine...")

		e.stopped.Store(true)
		if e.mainCancel != nil {
			e.mainCancel()
		}

		logger.Info("engine stopped")
	})
}

// post hands an event to the event loop. It never blocks past shutdown.
func (e *Engine) post(event Event) {
	if e.stopped.Load() {
		return
	}
	select {
	case e.eventChan <- event:
	case <-e.mainCtx.Done():
	}
}

// SetEditor attaches an editor connection. Every event it sends is tagged with
// it, so buffers of concurrent connections never share a detector.
func (e *Engine) SetEditor(editor Editor) {
	if e.stopped.Load() {
		return
	}

	err := editor.RegisterHandlers(Handlers{
		OnEvent: func(event string, buf int) {
			eventType := EventTypeFromString(event)
			if eventType == "" {
				logger.Debug("unknown editor event %q", event)
				return
			}
			e.post(Event{Type: eventType, Editor: editor, Buf: buf})
		},
		OnEdit: func(buf int, ev types.EditEvent) {
			e.post(Event{Type: EventEdit, Editor: editor, Buf: buf, Data: ev})
		},
		OnCursor: func(buf, line int) {
			e.post(Event{Type: EventCursorMoved, Editor: editor, Buf: buf, Data: line})
		},
	})
	if err != nil {
		logger.Error("error registering event handlers for new connection: %v", err)
	}
}

// DetachEditor forgets a closed connection. Its detectors are dropped through
// the event loop with their pending ranges.
func (e *Engine) DetachEditor(editor Editor) {
	e.post(Event{Type: eventEditorDetached, Editor: editor})
}

// detectorFor returns the detector for the event's buffer, creating it on
// first use. Returns nil when the event carries no editor.
func (e *Engine) detectorFor(event Event) *Detector {
	key := docKey{editor: event.Editor, buf: event.Buf}
	if state, exists := e.docs[key]; exists {
		state.lastAccessNs = e.clock.Now().UnixNano()
		return state.detector
	}

	editor := event.Editor
	if editor == nil {
		return nil
	}

	buf := event.Buf
	d := NewDetector(
		editor.Document(buf),
		e.classifier,
		ReporterFunc(func(rec *types.Record) { e.emit(editor, rec) }),
		e.clock,
		e.config.PauseDelay,
		func(gen uint64) {
			e.post(Event{Type: EventPause, Editor: editor, Buf: buf, Data: gen})
		},
	)
	e.docs[key] = &docState{
		detector:     d,
		lastAccessNs: e.clock.Now().UnixNano(),
	}
	e.trimDocs(e.config.MaxDocuments)
	return d
}

func (e *Engine) lookup(event Event) (*docState, bool) {
	state, exists := e.docs[docKey{editor: event.Editor, buf: event.Buf}]
	return state, exists
}

// emit stamps workspace and machine identity onto a record and reports it.
func (e *Engine) emit(editor Editor, rec *types.Record) {
	rec.MachineID = e.config.MachineID
	rec.Project = UnknownProject
	if name := editor.ProjectName(); name != "" {
		rec.Project = name
	}
	logger.Debug("span %d-%d in %s (%d lines)", rec.StartLine, rec.EndLine, rec.File, rec.LineDiff)
	e.reporter.Report(rec)
}

// UnknownProject labels records when the editor has no workspace.
const UnknownProject = "Unknown Project"
