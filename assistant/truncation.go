package assistant

import "fmt"

// TruncationMode specifies how oversized tool output is shortened.
type TruncationMode string

const (
	TruncateHeadTail TruncationMode = "head_tail"
	TruncateTail     TruncationMode = "tail"
)

// Default character limits per operation.
var defaultOpCharLimits = map[string]int{
	"read_file":               50000,
	"read_multiple_files":     80000,
	"list_directory_contents": 20000,
	"create_file":             1000,
	"create_multiple_files":   2000,
	"edit_file":               10000,
}

// Default truncation modes per operation.
var defaultOpTruncationModes = map[string]TruncationMode{
	"read_file":               TruncateHeadTail,
	"read_multiple_files":     TruncateHeadTail,
	"list_directory_contents": TruncateTail,
	"create_file":             TruncateTail,
	"create_multiple_files":   TruncateTail,
	"edit_file":               TruncateTail,
}

// TruncateOutput applies character-based truncation to output.
func TruncateOutput(output string, maxChars int, mode TruncationMode) string {
	if len(output) <= maxChars {
		return output
	}

	removed := len(output) - maxChars
	switch mode {
	case TruncateTail:
		return fmt.Sprintf("[WARNING: Tool output was truncated. First %d characters were removed.]\n\n", removed) +
			output[len(output)-maxChars:]
	default:
		half := maxChars / 2
		return output[:half] +
			fmt.Sprintf("\n\n[WARNING: Tool output was truncated. %d characters were removed from the middle. "+
				"Re-run the tool with more targeted parameters if you need the rest.]\n\n", removed) +
			output[len(output)-half:]
	}
}

// TruncateResult shortens a tool result according to the per-operation
// limits before it enters the transcript.
func TruncateResult(output string, opName string) string {
	maxChars, ok := defaultOpCharLimits[opName]
	if !ok {
		maxChars = 30000
	}
	mode, ok := defaultOpTruncationModes[opName]
	if !ok {
		mode = TruncateHeadTail
	}
	return TruncateOutput(output, maxChars, mode)
}
