package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"cpdetect/logger"
	"cpdetect/types"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
)

const EventSpanDetected = "span_detected"

// SpanRequest is the body posted for each reported span. Inserted text is
// never sent.
type SpanRequest struct {
	EventType  string `json:"event_type"`
	EventID    string `json:"event_id"`
	DeviceID   string `json:"device_id"`
	File       string `json:"file"`
	Project    string `json:"project"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	LineDiff   int    `json:"line_diff"`
	TotalLines int    `json:"total_lines"`
	Timestamp  int64  `json:"timestamp"` // unix milliseconds
}

// Tracker posts span events to a collector, fire-and-forget.
// A nil *Tracker is valid and does nothing.
type Tracker struct {
	url        string
	apiKey     string
	deviceID   string
	httpClient *http.Client
	inflight   sync.WaitGroup
}

// NewTracker returns nil when url is empty.
func NewTracker(url, apiKey, deviceID string) *Tracker {
	if url == "" {
		return nil
	}
	return &Tracker{
		url:        url,
		apiKey:     apiKey,
		deviceID:   deviceID,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Report implements engine.Reporter.
func (t *Tracker) Report(rec *types.Record) {
	if t == nil {
		return
	}
	t.sendRequest(&SpanRequest{
		EventType:  EventSpanDetected,
		EventID:    uuid.NewString(),
		DeviceID:   t.deviceID,
		File:       rec.File,
		Project:    rec.Project,
		StartLine:  rec.StartLine,
		EndLine:    rec.EndLine,
		LineDiff:   rec.LineDiff,
		TotalLines: rec.TotalLines,
		Timestamp:  rec.Time.UnixMilli(),
	})
}

// Wait blocks until every in-flight request has finished.
func (t *Tracker) Wait() {
	if t == nil {
		return
	}
	t.inflight.Wait()
}

func (t *Tracker) sendRequest(req *SpanRequest) {
	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := t.post(ctx, req); err != nil {
			logger.Debug("metrics: %v", err)
			return
		}
		logger.Debug("metrics: sent %s (id=%s)", req.EventType, req.EventID)
	}()
}

func (t *Tracker) post(ctx context.Context, req *SpanRequest) error {
	body, err := encodeBody(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", t.url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Content-Encoding", "br")
	if t.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %d for %s", resp.StatusCode, req.EventType)
	}
	return nil
}

// encodeBody marshals req and compresses it with brotli (quality 1 for speed).
func encodeBody(req *SpanRequest) (*bytes.Buffer, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	var compressedBuf bytes.Buffer
	brotliWriter := brotli.NewWriterLevel(&compressedBuf, 1)
	if _, err := brotliWriter.Write(jsonData); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := brotliWriter.Close(); err != nil {
		return nil, fmt.Errorf("close brotli writer: %w", err)
	}
	return &compressedBuf, nil
}
