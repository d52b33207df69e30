package assistant

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hmallory/codeforge/modelchannel"
)

// ToolResult is the outcome of one tool invocation, destined for the
// transcript. Failures are results too: IsError marks them so the model can
// read what went wrong and adjust, rather than the turn crashing.
type ToolResult struct {
	CallID   string
	ToolName string
	Content  string
	IsError  bool
}

// Entry converts the result into a transcript entry.
func (r ToolResult) Entry() Entry {
	return Entry{
		Kind:     EntryToolResult,
		Content:  r.Content,
		CallID:   r.CallID,
		ToolName: r.ToolName,
		IsError:  r.IsError,
	}
}

// Dispatcher parses, validates, and executes tool invocations against a
// workspace filesystem. Every failure mode, from malformed JSON to a
// filesystem error, is converted into an error-flagged ToolResult; Dispatch
// never returns a Go error to its caller.
type Dispatcher struct {
	fs  Filesystem
	log *zap.SugaredLogger

	// OnFileWritten is called after a create or edit lands on disk, with
	// the path and its new full content. The session uses it to refresh
	// pinned file context.
	OnFileWritten func(path, content string)

	// ConfirmWrite, when set, is consulted before any write to a
	// sensitive system path. Declining aborts that write with a
	// permission-denied result; other calls in the batch still run.
	ConfirmWrite func(path string) bool
}

// NewDispatcher creates a Dispatcher over the given filesystem.
func NewDispatcher(fs Filesystem, log *zap.SugaredLogger) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Dispatcher{fs: fs, log: log}
}

// Parse converts a tool call into an Operation without executing it. The
// confirmation gate uses this to show the user what would run.
func (d *Dispatcher) Parse(call modelchannel.ToolCall) (Operation, error) {
	return ParseOperation(call.Name, call.Arguments)
}

// Dispatch parses and executes a tool call, returning its result.
func (d *Dispatcher) Dispatch(call modelchannel.ToolCall) ToolResult {
	op, err := d.Parse(call)
	if err != nil {
		d.log.Warnw("tool call rejected", "tool", call.Name, "error", err)
		return ToolResult{CallID: call.ID, ToolName: call.Name, Content: "Error: " + err.Error(), IsError: true}
	}
	return d.Execute(call.ID, op)
}

// Execute runs a parsed operation. The switch is exhaustive over OpKind.
func (d *Dispatcher) Execute(callID string, op Operation) ToolResult {
	d.log.Debugw("executing tool", "op", op.Describe())

	var content string
	var err error
	switch op.Kind {
	case OpReadFile:
		content, err = d.readFile(op.Path)
	case OpReadMultipleFiles:
		content, err = d.readMultipleFiles(op.Paths)
	case OpCreateFile:
		content, err = d.createFile(op.Path, op.Content)
	case OpCreateMultipleFiles:
		content, err = d.createMultipleFiles(op.Files)
	case OpEditFile:
		content, err = d.editFile(op.Path, op.Snippet, op.Replacement)
	case OpListDirectory:
		content, err = d.listDirectory(op.Path)
	default:
		err = &UnknownOperationError{Name: op.Kind.String()}
	}

	name := op.Kind.String()
	if err != nil {
		d.log.Warnw("tool failed", "op", name, "error", err)
		return ToolResult{CallID: callID, ToolName: name, Content: "Error: " + err.Error(), IsError: true}
	}
	return ToolResult{CallID: callID, ToolName: name, Content: TruncateResult(content, name)}
}

func (d *Dispatcher) readFile(path string) (string, error) {
	content, err := d.fs.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Content of file %s:\n%s", path, content), nil
}

func (d *Dispatcher) readMultipleFiles(paths []string) (string, error) {
	var sb strings.Builder
	for i, path := range paths {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		content, err := d.fs.ReadFile(path)
		if err != nil {
			fmt.Fprintf(&sb, "Error reading %s: %v", path, err)
			continue
		}
		fmt.Fprintf(&sb, "Content of file %s:\n%s", path, content)
	}
	return sb.String(), nil
}

// confirmSensitive asks before a write to a sensitive system path.
func (d *Dispatcher) confirmSensitive(path string) error {
	if !IsSensitivePath(path) || d.ConfirmWrite == nil || d.ConfirmWrite(path) {
		return nil
	}
	return &PermissionDeniedError{Reason: fmt.Sprintf("user declined the write to sensitive path %s", path)}
}

func (d *Dispatcher) createFile(path, content string) (string, error) {
	if err := d.confirmSensitive(path); err != nil {
		return "", err
	}
	if err := d.fs.WriteFile(path, content); err != nil {
		return "", err
	}
	if d.OnFileWritten != nil {
		d.OnFileWritten(path, content)
	}
	result := fmt.Sprintf("Created file %s (%d bytes)", path, len(content))
	if note := d.locationNote(path); note != "" {
		result += "\n" + note
	}
	return result, nil
}

func (d *Dispatcher) createMultipleFiles(files []FileSpec) (string, error) {
	var created []string
	for _, f := range files {
		err := d.confirmSensitive(f.Path)
		if err == nil {
			err = d.fs.WriteFile(f.Path, f.Content)
		}
		if err != nil {
			if len(created) > 0 {
				return "", fmt.Errorf("created %s, then failed on %s: %w",
					strings.Join(created, ", "), f.Path, err)
			}
			return "", err
		}
		if d.OnFileWritten != nil {
			d.OnFileWritten(f.Path, f.Content)
		}
		created = append(created, f.Path)
	}
	return fmt.Sprintf("Created %d files: %s", len(created), strings.Join(created, ", ")), nil
}

func (d *Dispatcher) editFile(path, snippet, replacement string) (string, error) {
	if err := d.confirmSensitive(path); err != nil {
		return "", err
	}
	result, err := ApplySnippet(d.fs, path, snippet, replacement)
	if err != nil {
		return "", err
	}

	if result.Outcome == PatchNoChange {
		return fmt.Sprintf("No changes made to %s: the replacement is identical to the current content.", path), nil
	}

	if d.OnFileWritten != nil {
		if content, readErr := d.fs.ReadFile(path); readErr == nil {
			d.OnFileWritten(path, content)
		}
	}

	msg := fmt.Sprintf("Applied edit to %s", path)
	if result.Ambiguous() {
		msg += fmt.Sprintf("\nWarning: the snippet occurred %d times; the first occurrence was replaced. "+
			"Include more surrounding context to target a specific occurrence.", result.Occurrences)
	}
	return msg, nil
}

func (d *Dispatcher) listDirectory(path string) (string, error) {
	entries, err := d.fs.ListDirectory(path)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = "."
	}
	if len(entries) == 0 {
		return fmt.Sprintf("%s is empty.", path), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Contents of %s:\n", path)
	for _, e := range entries {
		if e.IsDir {
			fmt.Fprintf(&sb, "  %s/\n", e.Name)
		} else {
			fmt.Fprintf(&sb, "  %s (%d bytes)\n", e.Name, e.Size)
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// locationNote flags writes that land outside the workspace root. The write
// still happens; the note just surfaces the fact in the result.
func (d *Dispatcher) locationNote(path string) string {
	ws, ok := d.fs.(*Workspace)
	if !ok {
		return ""
	}
	resolved, err := ws.Resolve(path)
	if err != nil || ws.Contains(resolved) {
		return ""
	}
	return fmt.Sprintf("Note: %s is outside the workspace root %s.", path, ws.Root())
}
