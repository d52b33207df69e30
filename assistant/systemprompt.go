package assistant

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// BuildDirective generates the system directive that anchors every
// conversation. It is installed at transcript index 0 and refreshed in
// place when the workspace or model changes.
func BuildDirective(workspaceRoot, model string) string {
	var sb strings.Builder

	sb.WriteString("You are a careful coding assistant operating on a project workspace. ")
	sb.WriteString("You read, create, and edit files through the tools provided; you never ")
	sb.WriteString("pretend a tool ran or invent file contents.\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("- Read a file before editing it. Edits replace an exact snippet of the current content.\n")
	sb.WriteString("- Make the snippet unique: include enough surrounding lines that it matches exactly once.\n")
	sb.WriteString("- Prefer small, targeted edits over rewriting whole files.\n")
	sb.WriteString("- Paths are relative to the workspace root unless absolute.\n")
	sb.WriteString("- Tool failures come back as error results; read them and adjust instead of repeating the call.\n\n")

	sb.WriteString("<environment>\n")
	fmt.Fprintf(&sb, "Workspace root: %s\n", workspaceRoot)
	fmt.Fprintf(&sb, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&sb, "Today's date: %s\n", time.Now().Format("2006-01-02"))
	if model != "" {
		fmt.Fprintf(&sb, "Model: %s\n", model)
	}
	sb.WriteString("</environment>")

	return sb.String()
}
