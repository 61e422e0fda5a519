package buffer

import (
	_ "embed"
	"fmt"
	"path/filepath"

	"cpdetect/engine"
	"cpdetect/logger"
	"cpdetect/types"

	"github.com/neovim/go-client/nvim"
)

// RPC notification names sent by attach.lua
const (
	MethodEvent  = "cpdetect_event"
	MethodEdit   = "cpdetect_edit"
	MethodCursor = "cpdetect_cursor"
)

//go:embed attach.lua
var attachLua string

// NvimEditor implements engine.Editor for one Neovim connection.
type NvimEditor struct {
	client *nvim.Nvim
}

func NewEditor(n *nvim.Nvim) *NvimEditor {
	return &NvimEditor{client: n}
}

func (e *NvimEditor) Document(buf int) engine.Document {
	return NewDocument(e.client, buf)
}

// ProjectName returns the name of Neovim's working directory.
func (e *NvimEditor) ProjectName() string {
	if e.client == nil {
		return ""
	}
	var cwd string
	if err := e.client.ExecLua(`return vim.fn.getcwd()`, &cwd); err != nil {
		logger.Debug("error reading cwd: %v", err)
		return ""
	}
	return projectNameFromCwd(cwd)
}

func (e *NvimEditor) Notify(msg string) error {
	if e.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	return e.client.ExecLua(`vim.notify(..., vim.log.levels.INFO)`, nil, msg)
}

// RegisterHandlers routes editor notifications to h and installs the
// autocommands that produce them.
func (e *NvimEditor) RegisterHandlers(h engine.Handlers) error {
	if e.client == nil {
		return fmt.Errorf("nvim client not set")
	}

	if err := e.client.RegisterHandler(MethodEvent, func(_ *nvim.Nvim, event string, buf int) {
		if h.OnEvent != nil {
			h.OnEvent(event, buf)
		}
	}); err != nil {
		return err
	}

	// line is the 1-indexed row of the change at edit time
	if err := e.client.RegisterHandler(MethodEdit, func(_ *nvim.Nvim, buf, offset int, text string, replaced, cursor, line int) {
		if h.OnEdit != nil {
			h.OnEdit(buf, types.EditEvent{
				Offset:         offset,
				Text:           text,
				ReplacedLength: replaced,
				CursorLine:     cursor,
				StartLine:      line,
			})
		}
	}); err != nil {
		return err
	}

	if err := e.client.RegisterHandler(MethodCursor, func(_ *nvim.Nvim, buf, line int) {
		if h.OnCursor != nil {
			h.OnCursor(buf, line)
		}
	}); err != nil {
		return err
	}

	// Handlers must be in place before the autocommands start notifying
	go func() {
		if err := e.client.ExecLua(attachLua, nil, e.client.ChannelID()); err != nil {
			logger.Error("error installing autocommands: %v", err)
		}
	}()
	return nil
}

func projectNameFromCwd(cwd string) string {
	if cwd == "" {
		return ""
	}
	name := filepath.Base(filepath.Clean(cwd))
	if name == "/" || name == "." {
		return ""
	}
	return name
}
