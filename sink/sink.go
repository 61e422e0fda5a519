// Package sink persists detection records as plain text lines in an
// append-only file, one file per daemon session.
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"cpdetect/logger"
	"cpdetect/types"

	"github.com/google/uuid"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	queueSize  = 256
)

// Format renders a record as a single line without the trailing newline.
func Format(rec *types.Record) string {
	return fmt.Sprintf(
		"%s: Copilot possibly being used from line %d to line %d in file %q, project %q, machine %q. Total lines in file: %d. Difference between start and end lines: %d.",
		rec.Time.Format(timeLayout),
		rec.StartLine,
		rec.EndLine,
		rec.File,
		rec.Project,
		rec.MachineID,
		rec.TotalLines,
		rec.LineDiff,
	)
}

// FileName returns the sink file name for a session started at t.
func FileName(session string, t time.Time) string {
	return fmt.Sprintf("cpdetect-%s-%s.log", t.Format("20060102"), session)
}

// File appends records to a session file from a background writer.
// Report never blocks; a full queue drops the record.
type File struct {
	session string
	path    string
	f       *os.File

	mu      sync.RWMutex
	closed  bool
	queue   chan string
	dropped atomic.Int64
	wg      sync.WaitGroup
}

// NewFile creates dir if needed and opens a new session file in it.
func NewFile(dir string, now time.Time) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating sink dir: %w", err)
	}

	session := uuid.NewString()
	path := filepath.Join(dir, FileName(session, now))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening sink file: %w", err)
	}

	s := &File{
		session: session,
		path:    path,
		f:       f,
		queue:   make(chan string, queueSize),
	}
	s.wg.Add(1)
	go s.writeLoop()

	logger.Info("recording spans to %s", path)
	return s, nil
}

func (s *File) Session() string { return s.session }

func (s *File) Path() string { return s.path }

// Dropped returns the number of records lost to a full queue or a closed sink.
func (s *File) Dropped() int64 { return s.dropped.Load() }

// Report implements engine.Reporter.
func (s *File) Report(rec *types.Record) {
	line := Format(rec) + "\n"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropped.Add(1)
		return
	}

	select {
	case s.queue <- line:
	default:
		s.dropped.Add(1)
		logger.Warn("sink queue full, dropping span %d-%d in %s", rec.StartLine, rec.EndLine, rec.File)
	}
}

func (s *File) writeLoop() {
	defer s.wg.Done()
	for line := range s.queue {
		if _, err := s.f.WriteString(line); err != nil {
			logger.Error("error writing to sink %s: %v", s.path, err)
		}
	}
}

// Close drains queued records and closes the file. Safe to call twice.
func (s *File) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}
