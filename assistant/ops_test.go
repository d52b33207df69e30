package assistant

import (
	"errors"
	"testing"
)

func TestParseOperationHappyPath(t *testing.T) {
	tests := []struct {
		name string
		args string
		kind OpKind
	}{
		{"read_file", `{"file_path":"a.go"}`, OpReadFile},
		{"read_multiple_files", `{"file_paths":["a.go","b.go"]}`, OpReadMultipleFiles},
		{"create_file", `{"file_path":"a.go","content":""}`, OpCreateFile},
		{"create_multiple_files", `{"files":[{"file_path":"a.go","content":"x"}]}`, OpCreateMultipleFiles},
		{"edit_file", `{"file_path":"a.go","original_snippet":"x","new_snippet":"y"}`, OpEditFile},
		{"list_directory_contents", `{}`, OpListDirectory},
		{"list_directory_contents", ``, OpListDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := ParseOperation(tt.name, tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if op.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", op.Kind, tt.kind)
			}
		})
	}
}

func TestParseOperationUnknownName(t *testing.T) {
	_, err := ParseOperation("launch_missiles", `{}`)
	var unknown *UnknownOperationError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownOperationError, got %T: %v", err, err)
	}
}

func TestParseOperationMalformedJSON(t *testing.T) {
	_, err := ParseOperation("read_file", `{"file_path": "a.go`)
	var parseErr *ArgumentParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ArgumentParseError, got %T: %v", err, err)
	}
}

func TestParseOperationSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"read_file", `{}`},
		{"read_file", `{"file_path":""}`},
		{"read_multiple_files", `{"file_paths":[]}`},
		{"read_multiple_files", `{"file_paths":["a.go",""]}`},
		{"create_file", `{"file_path":"a.go"}`},
		{"create_file", `{"content":"x"}`},
		{"create_multiple_files", `{"files":[]}`},
		{"create_multiple_files", `{"files":[{"content":"x"}]}`},
		{"edit_file", `{"file_path":"a.go","new_snippet":"y"}`},
		{"edit_file", `{"file_path":"a.go","original_snippet":"","new_snippet":"y"}`},
		{"edit_file", `{"file_path":"a.go","original_snippet":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.args, func(t *testing.T) {
			_, err := ParseOperation(tt.name, tt.args)
			var validation *SchemaValidationError
			if !errors.As(err, &validation) {
				t.Errorf("expected SchemaValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestEditFileAllowsEmptyReplacement(t *testing.T) {
	op, err := ParseOperation("edit_file", `{"file_path":"a.go","original_snippet":"x","new_snippet":""}`)
	if err != nil {
		t.Fatalf("empty new_snippet is a deletion, not an error: %v", err)
	}
	if op.Replacement != "" {
		t.Errorf("Replacement = %q, want empty", op.Replacement)
	}
}

func TestOpKindMutates(t *testing.T) {
	mutating := map[OpKind]bool{
		OpReadFile:            false,
		OpReadMultipleFiles:   false,
		OpCreateFile:          true,
		OpCreateMultipleFiles: true,
		OpEditFile:            true,
		OpListDirectory:       false,
	}
	for kind, want := range mutating {
		if kind.Mutates() != want {
			t.Errorf("%v.Mutates() = %v, want %v", kind, kind.Mutates(), want)
		}
	}
}
