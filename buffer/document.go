package buffer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"cpdetect/logger"

	"github.com/neovim/go-client/nvim"
)

// ErrBufferUnavailable is returned when the buffer was closed or wiped.
var ErrBufferUnavailable = errors.New("buffer unavailable")

// NvimDocument implements engine.Document for one Neovim buffer.
type NvimDocument struct {
	client *nvim.Nvim
	id     nvim.Buffer

	// Snapshot from the last Sync
	lines []string
	path  string
}

func NewDocument(n *nvim.Nvim, buf int) *NvimDocument {
	return &NvimDocument{
		client: n,
		id:     nvim.Buffer(buf),
		lines:  []string{},
	}
}

func (d *NvimDocument) Lines() []string { return d.lines }

func (d *NvimDocument) Path() string { return d.path }

// Sync reads the buffer content and name in a single round-trip.
func (d *NvimDocument) Sync() error {
	defer logger.Trace("buffer.Sync")()
	if d.client == nil {
		return fmt.Errorf("nvim client not set")
	}

	batch := d.client.NewBatch()

	var valid bool
	var path string
	var lines [][]byte
	var nvimCwd string

	batch.IsBufferValid(d.id, &valid)
	batch.BufferName(d.id, &path)
	batch.BufferLines(d.id, 0, -1, false, &lines)
	batch.ExecLua(`return vim.fn.getcwd()`, &nvimCwd, nil)

	if err := batch.Execute(); err != nil {
		// An invalid buffer fails the name and lines calls
		return fmt.Errorf("%w: buf %d: %v", ErrBufferUnavailable, d.id, err)
	}
	if !valid {
		return fmt.Errorf("%w: buf %d", ErrBufferUnavailable, d.id)
	}

	linesStr := make([]string, len(lines))
	for i, line := range lines {
		linesStr[i] = string(line)
	}

	d.lines = linesStr
	d.path = makeRelativeToWorkspace(path, nvimCwd)
	return nil
}

// LineCount queries the live line count.
func (d *NvimDocument) LineCount() (int, error) {
	if d.client == nil {
		return 0, fmt.Errorf("nvim client not set")
	}
	n, err := d.client.BufferLineCount(d.id)
	if err != nil {
		return 0, fmt.Errorf("%w: buf %d: %v", ErrBufferUnavailable, d.id, err)
	}
	return n, nil
}

// Helper function to convert absolute path to relative workspace path
func makeRelativeToWorkspace(absolutePath, workspacePath string) string {
	if absolutePath == "" || workspacePath == "" {
		return absolutePath
	}
	absolutePath = filepath.Clean(absolutePath)
	workspacePath = filepath.Clean(workspacePath)

	// If the file is within the workspace, make it relative
	if relativePath, found := strings.CutPrefix(absolutePath, workspacePath+string(filepath.Separator)); found {
		return relativePath
	}

	return absolutePath
}
