package assistant

import "fmt"

// SnippetNotFoundError reports that an edit's target snippet does not occur
// anywhere in the file. The edit is aborted without writing.
type SnippetNotFoundError struct {
	Path    string
	Snippet string
}

func (e *SnippetNotFoundError) Error() string {
	return fmt.Sprintf("snippet not found in %s; expected to find exactly:\n%s", e.Path, e.Snippet)
}

// SizeExceededError reports content larger than a configured byte limit.
type SizeExceededError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("%s is %d bytes, exceeding the %d byte limit", e.Path, e.Size, e.Limit)
}

// BinaryFileError reports an attempt to load a binary file as text context.
type BinaryFileError struct {
	Path string
}

func (e *BinaryFileError) Error() string {
	return fmt.Sprintf("%s appears to be a binary file", e.Path)
}

// IgnoredPathError reports a path excluded by ignore patterns.
type IgnoredPathError struct {
	Path    string
	Pattern string
}

func (e *IgnoredPathError) Error() string {
	return fmt.Sprintf("%s is excluded by ignore pattern %q", e.Path, e.Pattern)
}

// ArgumentParseError reports tool call argument text that is not valid JSON.
type ArgumentParseError struct {
	Tool  string
	Cause error
}

func (e *ArgumentParseError) Error() string {
	return fmt.Sprintf("arguments for %s are not valid JSON: %v", e.Tool, e.Cause)
}

func (e *ArgumentParseError) Unwrap() error { return e.Cause }

// SchemaValidationError reports arguments that parsed but fail the tool's
// schema (missing or mistyped fields).
type SchemaValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("invalid %s argument %q: %s", e.Tool, e.Field, e.Reason)
}

// PermissionDeniedError reports an action the user declined: a whole
// tool batch at review time, or a single sensitive-path write at
// execution time. A declined write fails only its own invocation.
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	if e.Reason == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Reason
}

// UnknownOperationError reports a tool name outside the supported set.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}
