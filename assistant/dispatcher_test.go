package assistant

import (
	"strings"
	"testing"

	"github.com/hmallory/codeforge/modelchannel"
)

func TestDispatchNeverPropagatesErrors(t *testing.T) {
	d := NewDispatcher(newFakeFS(), nil)

	tests := []struct {
		name string
		call modelchannel.ToolCall
	}{
		{"unknown tool", modelchannel.ToolCall{ID: "1", Name: "nope", Arguments: `{}`}},
		{"malformed json", modelchannel.ToolCall{ID: "2", Name: "read_file", Arguments: `{"file_path"`}},
		{"schema violation", modelchannel.ToolCall{ID: "3", Name: "read_file", Arguments: `{}`}},
		{"missing file", modelchannel.ToolCall{ID: "4", Name: "read_file", Arguments: `{"file_path":"ghost.go"}`}},
		{"failed edit", modelchannel.ToolCall{ID: "5", Name: "edit_file", Arguments: `{"file_path":"ghost.go","original_snippet":"x","new_snippet":"y"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.Dispatch(tt.call)
			if !result.IsError {
				t.Errorf("result = %+v, want IsError", result)
			}
			if result.CallID != tt.call.ID {
				t.Errorf("CallID = %q, want %q", result.CallID, tt.call.ID)
			}
			if !strings.HasPrefix(result.Content, "Error:") {
				t.Errorf("Content = %q, want Error: prefix", result.Content)
			}
		})
	}
}

func TestDispatchReadFile(t *testing.T) {
	fs := newFakeFS()
	fs.files["main.go"] = "package main\n"
	d := NewDispatcher(fs, nil)

	result := d.Dispatch(modelchannel.ToolCall{ID: "1", Name: "read_file", Arguments: `{"file_path":"main.go"}`})
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Content)
	}
	if !strings.Contains(result.Content, "package main") {
		t.Errorf("Content = %q", result.Content)
	}
	if result.ToolName != "read_file" {
		t.Errorf("ToolName = %q", result.ToolName)
	}
}

func TestDispatchReadMultipleFilesPartialFailure(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.go"] = "alpha"
	d := NewDispatcher(fs, nil)

	result := d.Dispatch(modelchannel.ToolCall{
		ID: "1", Name: "read_multiple_files",
		Arguments: `{"file_paths":["a.go","missing.go"]}`,
	})
	if result.IsError {
		t.Fatalf("per-file failures should not fail the whole result: %s", result.Content)
	}
	if !strings.Contains(result.Content, "alpha") {
		t.Error("readable file content missing from result")
	}
	if !strings.Contains(result.Content, "Error reading missing.go") {
		t.Error("per-file error note missing from result")
	}
}

func TestDispatchCreateFile(t *testing.T) {
	fs := newFakeFS()
	d := NewDispatcher(fs, nil)

	result := d.Dispatch(modelchannel.ToolCall{
		ID: "1", Name: "create_file",
		Arguments: `{"file_path":"new.go","content":"package new\n"}`,
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
	if fs.files["new.go"] != "package new\n" {
		t.Errorf("file content = %q", fs.files["new.go"])
	}
}

func TestDispatchSensitiveWriteDeclined(t *testing.T) {
	fs := newFakeFS()
	d := NewDispatcher(fs, nil)
	d.ConfirmWrite = func(string) bool { return false }

	result := d.Dispatch(modelchannel.ToolCall{
		ID: "1", Name: "create_file",
		Arguments: `{"file_path":"/etc/hosts","content":"x"}`,
	})
	if !result.IsError {
		t.Fatal("declined sensitive write must produce an error result")
	}
	if !strings.Contains(result.Content, "/etc/hosts") {
		t.Errorf("Content = %q, want the declined path named", result.Content)
	}
	if fs.writes != 0 {
		t.Errorf("writes = %d, want 0", fs.writes)
	}
}

func TestDispatchConfirmOnlySensitivePaths(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.go"] = "old"
	d := NewDispatcher(fs, nil)
	d.ConfirmWrite = func(string) bool { return false }

	// Ordinary workspace writes never consult the confirmation hook.
	create := d.Dispatch(modelchannel.ToolCall{
		ID: "1", Name: "create_file",
		Arguments: `{"file_path":"new.go","content":"x"}`,
	})
	edit := d.Dispatch(modelchannel.ToolCall{
		ID: "2", Name: "edit_file",
		Arguments: `{"file_path":"a.go","original_snippet":"old","new_snippet":"new"}`,
	})
	if create.IsError || edit.IsError {
		t.Fatalf("workspace writes blocked: %s / %s", create.Content, edit.Content)
	}
	if fs.files["new.go"] != "x" || fs.files["a.go"] != "new" {
		t.Errorf("files = %v", fs.files)
	}
}

func TestDispatchCreateMultipleFiles(t *testing.T) {
	fs := newFakeFS()
	d := NewDispatcher(fs, nil)

	result := d.Dispatch(modelchannel.ToolCall{
		ID: "1", Name: "create_multiple_files",
		Arguments: `{"files":[{"file_path":"a.go","content":"a"},{"file_path":"b.go","content":"b"}]}`,
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
	if fs.files["a.go"] != "a" || fs.files["b.go"] != "b" {
		t.Errorf("files = %v", fs.files)
	}
}

func TestDispatchEditFileRefreshesContext(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.go"] = "before"
	d := NewDispatcher(fs, nil)

	var refreshedPath, refreshedContent string
	d.OnFileWritten = func(path, content string) {
		refreshedPath, refreshedContent = path, content
	}

	result := d.Dispatch(modelchannel.ToolCall{
		ID: "1", Name: "edit_file",
		Arguments: `{"file_path":"a.go","original_snippet":"before","new_snippet":"after"}`,
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
	if refreshedPath != "a.go" || refreshedContent != "after" {
		t.Errorf("refresh callback got (%q, %q), want (a.go, after)", refreshedPath, refreshedContent)
	}
}

func TestDispatchEditFileReportsMissingSnippet(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.txt"] = "actual content\n"
	d := NewDispatcher(fs, nil)

	result := d.Dispatch(modelchannel.ToolCall{
		ID: "1", Name: "edit_file",
		Arguments: `{"file_path":"a.txt","original_snippet":"text that is not there","new_snippet":"y"}`,
	})
	if !result.IsError {
		t.Fatal("expected error result for missing snippet")
	}
	// The model needs to see what failed to match to correct the edit.
	if !strings.Contains(result.Content, "text that is not there") {
		t.Errorf("Content = %q, want the expected snippet included", result.Content)
	}
}

func TestDispatchEditFileAmbiguousWarns(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.go"] = "x\nx\n"
	d := NewDispatcher(fs, nil)

	result := d.Dispatch(modelchannel.ToolCall{
		ID: "1", Name: "edit_file",
		Arguments: `{"file_path":"a.go","original_snippet":"x","new_snippet":"z"}`,
	})
	if result.IsError {
		t.Fatalf("ambiguous edit should succeed with a warning: %s", result.Content)
	}
	if !strings.Contains(result.Content, "Warning") {
		t.Errorf("Content = %q, want ambiguity warning", result.Content)
	}
	if fs.files["a.go"] != "z\nx\n" {
		t.Errorf("content = %q, want leftmost occurrence replaced", fs.files["a.go"])
	}
}

func TestDispatchEditFileNoChange(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.go"] = "same"
	d := NewDispatcher(fs, nil)

	refreshed := false
	d.OnFileWritten = func(string, string) { refreshed = true }

	result := d.Dispatch(modelchannel.ToolCall{
		ID: "1", Name: "edit_file",
		Arguments: `{"file_path":"a.go","original_snippet":"same","new_snippet":"same"}`,
	})
	if result.IsError {
		t.Fatalf("no-change edit should succeed: %s", result.Content)
	}
	if !strings.Contains(result.Content, "No changes") {
		t.Errorf("Content = %q", result.Content)
	}
	if fs.writes != 0 {
		t.Errorf("writes = %d, want 0", fs.writes)
	}
	if refreshed {
		t.Error("no-change edit must not refresh context")
	}
}

func TestDispatchListDirectory(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.go"] = "aaa"
	d := NewDispatcher(fs, nil)

	result := d.Dispatch(modelchannel.ToolCall{ID: "1", Name: "list_directory_contents", Arguments: `{}`})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "a.go") {
		t.Errorf("Content = %q", result.Content)
	}
}
