package engine

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"cpdetect/logger"
	"cpdetect/types"
)

// EventType represents the type of event in the engine
type EventType string

// Event type constants
const (
	EventStart       EventType = "start"
	EventTextChanged EventType = "text_changed"
	EventCursorMoved EventType = "cursor_moved"
	EventBufClosed   EventType = "buf_closed"

	// Posted by the engine itself, not by name from the editor
	EventEdit  EventType = "edit"
	EventPause EventType = "pause"

	eventEditorDetached EventType = "editor_detached"
)

// Event represents an event in the engine. Buf is a buffer id of Editor.
type Event struct {
	Type   EventType
	Editor Editor
	Buf    int
	Data   any
}

var eventTypeMap map[string]EventType

func init() {
	eventTypeMap = buildEventTypeMap()
	handlerMap = make(map[EventType]func(*Engine, Event), len(handlerTable))
	for _, h := range handlerTable {
		handlerMap[h.Event] = h.Action
	}
}

func buildEventTypeMap() map[string]EventType {
	eventMap := make(map[string]EventType)

	// Only events the editor may send by name
	allEventTypes := []EventType{
		EventStart,
		EventTextChanged,
		EventCursorMoved,
		EventBufClosed,
	}

	for _, eventType := range allEventTypes {
		eventMap[string(eventType)] = eventType
	}

	return eventMap
}

// EventTypeFromString converts a string to EventType
func EventTypeFromString(s string) EventType {
	if eventType, exists := eventTypeMap[s]; exists {
		return eventType
	}
	return ""
}

type eventHandler struct {
	Event  EventType
	Action func(*Engine, Event)
}

// handlerTable maps every event to its action.
//
//	start         → create detector (notify once), seed snapshot
//	edit          → classify, append candidate, re-arm pause
//	text_changed  → diff snapshot, classify each insertion, re-arm pause
//	cursor_moved  → re-arm pause
//	pause         → claim generation, consolidate, report, drain
//	buf_closed    → final flush, drop detector
//	editor_detached → drop every detector of a closed connection
var handlerTable = []eventHandler{
	{EventStart, (*Engine).doStart},
	{EventEdit, (*Engine).doEdit},
	{EventTextChanged, (*Engine).doTextChanged},
	{EventCursorMoved, (*Engine).doCursorMoved},
	{EventPause, (*Engine).doPause},
	{EventBufClosed, (*Engine).doBufClosed},
	{eventEditorDetached, (*Engine).doEditorDetached},
}

var handlerMap map[EventType]func(*Engine, Event)

// dispatch finds and executes the handler for an event.
func (e *Engine) dispatch(event Event) bool {
	action, ok := handlerMap[event.Type]
	if !ok {
		logger.Debug("no handler: event=%s", event.Type)
		return false
	}
	action(e, event)
	return true
}

// eventLoopRestarts tracks the number of event loop restarts for panic recovery
var eventLoopRestarts atomic.Int32

const maxEventLoopRestarts = 3

func (e *Engine) eventLoop(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			restarts := eventLoopRestarts.Add(1)
			logger.Error("event loop panic [%d/%d]: %v\n%s",
				restarts, maxEventLoopRestarts, r, debug.Stack())

			if int(restarts) < maxEventLoopRestarts {
				e.eventLoop(ctx)
			} else {
				logger.Error("max event loop restarts reached, stopping engine")
				go e.Stop()
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-e.eventChan:
			if e.stopped.Load() {
				return
			}

			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("event handler panic recovered for event %v: %v", event.Type, r)
					}
				}()
				e.handleEvent(event)
			}()
		}
	}
}

func (e *Engine) handleEvent(event Event) {
	if e.stopped.Load() {
		return
	}

	logger.Debug("handle event: %v (buf=%d)", event.Type, event.Buf)
	e.dispatch(event)
}

// Action functions

func (e *Engine) doStart(event Event) {
	if state, exists := e.lookup(event); exists {
		state.lastAccessNs = e.clock.Now().UnixNano()
		return
	}

	d := e.detectorFor(event)
	if d == nil {
		return
	}
	if err := d.Seed(); err != nil {
		logger.Debug("seed failed for buf %d: %v", event.Buf, err)
	}

	if err := event.Editor.Notify("Copilot detector started!"); err != nil {
		logger.Debug("notify failed: %v", err)
	}
}

func (e *Engine) doEdit(event Event) {
	ev, ok := event.Data.(types.EditEvent)
	if !ok {
		logger.Warn("edit event without payload for buf %d", event.Buf)
		return
	}
	if d := e.detectorFor(event); d != nil {
		d.OnEdit(ev)
	}
}

func (e *Engine) doTextChanged(event Event) {
	if d := e.detectorFor(event); d != nil {
		d.OnSnapshot()
	}
}

func (e *Engine) doCursorMoved(event Event) {
	line, _ := event.Data.(int)
	if d := e.detectorFor(event); d != nil {
		d.OnCursor(line)
	}
}

func (e *Engine) doPause(event Event) {
	gen, ok := event.Data.(uint64)
	if !ok {
		return
	}
	state, exists := e.lookup(event)
	if !exists {
		return
	}
	if !state.detector.Claim(gen) {
		logger.Debug("stale pause generation %d for buf %d", gen, event.Buf)
		return
	}
	if n := state.detector.Flush(); n > 0 {
		logger.Info("reported %d span(s) for buf %d", n, event.Buf)
	}
}

// doBufClosed runs on BufDelete, while the buffer is still readable, so
// pending ranges are reported before the detector goes away.
func (e *Engine) doBufClosed(event Event) {
	state, exists := e.lookup(event)
	if !exists {
		return
	}
	state.detector.Stop()
	if n := state.detector.Flush(); n > 0 {
		logger.Info("reported %d span(s) for closed buf %d", n, event.Buf)
	}
	delete(e.docs, docKey{editor: event.Editor, buf: event.Buf})
}

func (e *Engine) doEditorDetached(event Event) {
	if n := e.dropDocs(event.Editor); n > 0 {
		logger.Debug("editor detached, dropped %d detector(s)", n)
	}
}
