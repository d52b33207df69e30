package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hmallory/codeforge/modelchannel"
)

// OpKind tags the closed set of operations the dispatcher executes. There
// is no extension point: every invocation parses to one of these or fails.
type OpKind int

const (
	OpReadFile OpKind = iota
	OpReadMultipleFiles
	OpCreateFile
	OpCreateMultipleFiles
	OpEditFile
	OpListDirectory
)

// String returns the wire name of the operation.
func (k OpKind) String() string {
	switch k {
	case OpReadFile:
		return "read_file"
	case OpReadMultipleFiles:
		return "read_multiple_files"
	case OpCreateFile:
		return "create_file"
	case OpCreateMultipleFiles:
		return "create_multiple_files"
	case OpEditFile:
		return "edit_file"
	case OpListDirectory:
		return "list_directory_contents"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Mutates reports whether the operation writes to the workspace. Mutating
// operations pass through the confirmation gate before execution.
func (k OpKind) Mutates() bool {
	switch k {
	case OpCreateFile, OpCreateMultipleFiles, OpEditFile:
		return true
	default:
		return false
	}
}

// FileSpec is one file in a create_multiple_files operation.
type FileSpec struct {
	Path    string `json:"file_path"`
	Content string `json:"content"`
}

// Operation is a parsed, validated tool invocation. Which fields are
// populated depends on Kind.
type Operation struct {
	Kind        OpKind
	Path        string     // read_file, create_file, edit_file, list_directory_contents
	Paths       []string   // read_multiple_files
	Content     string     // create_file
	Files       []FileSpec // create_multiple_files
	Snippet     string     // edit_file: exact text to find
	Replacement string     // edit_file: text to substitute
}

// Describe renders a short human-readable summary for confirmation prompts.
func (op Operation) Describe() string {
	switch op.Kind {
	case OpReadFile:
		return fmt.Sprintf("read_file(%s)", op.Path)
	case OpReadMultipleFiles:
		return fmt.Sprintf("read_multiple_files(%s)", strings.Join(op.Paths, ", "))
	case OpCreateFile:
		return fmt.Sprintf("create_file(%s, %d bytes)", op.Path, len(op.Content))
	case OpCreateMultipleFiles:
		paths := make([]string, len(op.Files))
		for i, f := range op.Files {
			paths[i] = f.Path
		}
		return fmt.Sprintf("create_multiple_files(%s)", strings.Join(paths, ", "))
	case OpEditFile:
		return fmt.Sprintf("edit_file(%s, replace %d bytes with %d bytes)", op.Path, len(op.Snippet), len(op.Replacement))
	case OpListDirectory:
		path := op.Path
		if path == "" {
			path = "."
		}
		return fmt.Sprintf("list_directory_contents(%s)", path)
	default:
		return op.Kind.String()
	}
}

// ParseOperation parses a tool call's name and argument text into an
// Operation. Unknown names, malformed JSON, and schema violations each
// return a distinct typed error.
func ParseOperation(name string, rawArgs string) (Operation, error) {
	if rawArgs == "" {
		rawArgs = "{}"
	}

	switch name {
	case "read_file":
		var args struct {
			FilePath string `json:"file_path"`
		}
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return Operation{}, &ArgumentParseError{Tool: name, Cause: err}
		}
		if args.FilePath == "" {
			return Operation{}, &SchemaValidationError{Tool: name, Field: "file_path", Reason: "required"}
		}
		return Operation{Kind: OpReadFile, Path: args.FilePath}, nil

	case "read_multiple_files":
		var args struct {
			FilePaths []string `json:"file_paths"`
		}
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return Operation{}, &ArgumentParseError{Tool: name, Cause: err}
		}
		if len(args.FilePaths) == 0 {
			return Operation{}, &SchemaValidationError{Tool: name, Field: "file_paths", Reason: "must be a non-empty array"}
		}
		for _, p := range args.FilePaths {
			if p == "" {
				return Operation{}, &SchemaValidationError{Tool: name, Field: "file_paths", Reason: "entries must be non-empty strings"}
			}
		}
		return Operation{Kind: OpReadMultipleFiles, Paths: args.FilePaths}, nil

	case "create_file":
		var args struct {
			FilePath string  `json:"file_path"`
			Content  *string `json:"content"`
		}
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return Operation{}, &ArgumentParseError{Tool: name, Cause: err}
		}
		if args.FilePath == "" {
			return Operation{}, &SchemaValidationError{Tool: name, Field: "file_path", Reason: "required"}
		}
		if args.Content == nil {
			return Operation{}, &SchemaValidationError{Tool: name, Field: "content", Reason: "required"}
		}
		return Operation{Kind: OpCreateFile, Path: args.FilePath, Content: *args.Content}, nil

	case "create_multiple_files":
		var args struct {
			Files []FileSpec `json:"files"`
		}
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return Operation{}, &ArgumentParseError{Tool: name, Cause: err}
		}
		if len(args.Files) == 0 {
			return Operation{}, &SchemaValidationError{Tool: name, Field: "files", Reason: "must be a non-empty array"}
		}
		for i, f := range args.Files {
			if f.Path == "" {
				return Operation{}, &SchemaValidationError{
					Tool: name, Field: fmt.Sprintf("files[%d].file_path", i), Reason: "required",
				}
			}
		}
		return Operation{Kind: OpCreateMultipleFiles, Files: args.Files}, nil

	case "edit_file":
		var args struct {
			FilePath        string  `json:"file_path"`
			OriginalSnippet *string `json:"original_snippet"`
			NewSnippet      *string `json:"new_snippet"`
		}
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return Operation{}, &ArgumentParseError{Tool: name, Cause: err}
		}
		if args.FilePath == "" {
			return Operation{}, &SchemaValidationError{Tool: name, Field: "file_path", Reason: "required"}
		}
		if args.OriginalSnippet == nil || *args.OriginalSnippet == "" {
			return Operation{}, &SchemaValidationError{Tool: name, Field: "original_snippet", Reason: "required"}
		}
		if args.NewSnippet == nil {
			return Operation{}, &SchemaValidationError{Tool: name, Field: "new_snippet", Reason: "required"}
		}
		return Operation{Kind: OpEditFile, Path: args.FilePath, Snippet: *args.OriginalSnippet, Replacement: *args.NewSnippet}, nil

	case "list_directory_contents":
		var args struct {
			DirectoryPath string `json:"directory_path"`
		}
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return Operation{}, &ArgumentParseError{Tool: name, Cause: err}
		}
		return Operation{Kind: OpListDirectory, Path: args.DirectoryPath}, nil

	default:
		return Operation{}, &UnknownOperationError{Name: name}
	}
}

// OperationDefinitions returns the tool definitions advertised to the model.
func OperationDefinitions() []modelchannel.ToolDefinition {
	return []modelchannel.ToolDefinition{
		{
			Name:        "read_file",
			Description: "Read the content of a single file in the workspace.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"file_path": map[string]interface{}{
						"type":        "string",
						"description": "Path of the file to read, relative to the workspace root.",
					},
				},
				"required": []string{"file_path"},
			},
		},
		{
			Name:        "read_multiple_files",
			Description: "Read the contents of several files at once.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"file_paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Paths of the files to read.",
					},
				},
				"required": []string{"file_paths"},
			},
		},
		{
			Name:        "create_file",
			Description: "Create a new file or overwrite an existing one with the given content.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"file_path": map[string]interface{}{
						"type":        "string",
						"description": "Path of the file to create.",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Full content of the file.",
					},
				},
				"required": []string{"file_path", "content"},
			},
		},
		{
			Name:        "create_multiple_files",
			Description: "Create several files in one operation.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"files": map[string]interface{}{
						"type":        "array",
						"description": "Files to create.",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"file_path": map[string]interface{}{"type": "string"},
								"content":   map[string]interface{}{"type": "string"},
							},
							"required": []string{"file_path", "content"},
						},
					},
				},
				"required": []string{"files"},
			},
		},
		{
			Name: "edit_file",
			Description: "Edit an existing file by replacing an exact snippet of its current " +
				"content. The snippet must match the file text exactly, including whitespace.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"file_path": map[string]interface{}{
						"type":        "string",
						"description": "Path of the file to edit.",
					},
					"original_snippet": map[string]interface{}{
						"type":        "string",
						"description": "Exact text currently in the file.",
					},
					"new_snippet": map[string]interface{}{
						"type":        "string",
						"description": "Replacement text.",
					},
				},
				"required": []string{"file_path", "original_snippet", "new_snippet"},
			},
		},
		{
			Name:        "list_directory_contents",
			Description: "List the files and directories at a path in the workspace.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"directory_path": map[string]interface{}{
						"type":        "string",
						"description": "Directory to list. Defaults to the workspace root.",
					},
				},
			},
		},
	}
}
