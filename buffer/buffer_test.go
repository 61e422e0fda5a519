package buffer

import (
	"errors"
	"strings"
	"testing"

	"cpdetect/assert"
	"cpdetect/engine"
)

var (
	_ engine.Editor   = (*NvimEditor)(nil)
	_ engine.Document = (*NvimDocument)(nil)
)

func TestMakeRelativeToWorkspace(t *testing.T) {
	tests := []struct {
		name          string
		absolutePath  string
		workspacePath string
		want          string
	}{
		{
			name:          "file in workspace",
			absolutePath:  "/home/user/project/src/main.js",
			workspacePath: "/home/user/project",
			want:          "src/main.js",
		},
		{
			name:          "file outside workspace",
			absolutePath:  "/other/path/file.js",
			workspacePath: "/home/user/project",
			want:          "/other/path/file.js",
		},
		{
			name:          "file at workspace root",
			absolutePath:  "/home/user/project/main.js",
			workspacePath: "/home/user/project",
			want:          "main.js",
		},
		{
			name:          "sibling directory with shared prefix",
			absolutePath:  "/home/user/project2/main.js",
			workspacePath: "/home/user/project",
			want:          "/home/user/project2/main.js",
		},
		{
			name:          "unnamed buffer",
			absolutePath:  "",
			workspacePath: "/home/user/project",
			want:          "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := makeRelativeToWorkspace(tt.absolutePath, tt.workspacePath)
			assert.Equal(t, tt.want, got, "relative path mismatch")
		})
	}
}

func TestProjectNameFromCwd(t *testing.T) {
	assert.Equal(t, "project", projectNameFromCwd("/home/user/project"), "basename")
	assert.Equal(t, "project", projectNameFromCwd("/home/user/project/"), "trailing slash")
	assert.Equal(t, "", projectNameFromCwd("/"), "root has no name")
	assert.Equal(t, "", projectNameFromCwd(""), "empty cwd")
}

func TestDocument_WithoutClient(t *testing.T) {
	doc := NewDocument(nil, 3)

	assert.Error(t, doc.Sync(), "sync without client")
	_, err := doc.LineCount()
	assert.Error(t, err, "line count without client")
	assert.False(t, errors.Is(err, ErrBufferUnavailable), "missing client is not a closed buffer")
	assert.Len(t, 0, doc.Lines(), "empty snapshot")
	assert.Equal(t, "", doc.Path(), "no path before sync")
}

func TestEditor_WithoutClient(t *testing.T) {
	ed := NewEditor(nil)

	assert.Equal(t, "", ed.ProjectName(), "project name")
	assert.Error(t, ed.Notify("hi"), "notify")
	assert.Error(t, ed.RegisterHandlers(engine.Handlers{}), "register")
}

func TestAttachLuaNotifiesRegisteredMethods(t *testing.T) {
	for _, method := range []string{MethodEvent, MethodEdit, MethodCursor} {
		assert.True(t, strings.Contains(attachLua, `"`+method+`"`), method)
	}
	for _, event := range []string{"start", "text_changed", "buf_closed"} {
		assert.True(t, engine.EventTypeFromString(event) != "", event)
		assert.True(t, strings.Contains(attachLua, `"`+event+`"`), event)
	}
}
