// Package assistant implements the conversational core of codeforge: a
// transcript-backed tool orchestration loop that connects a language model
// to a sandboxed project workspace.
//
// # Architecture
//
// The package is organized around a handful of collaborating pieces:
//
//   - Transcript: the append-only conversation record. Entries are never
//     reordered or rewritten; trimming drops old entries while keeping the
//     system directive and pinned file context intact.
//   - CallAssembler: accumulates streamed tool call fragments by slot index
//     and finalizes them into complete invocations.
//   - Dispatcher: parses, validates, and executes tool invocations against
//     the workspace. Execution failures never escape as Go errors; they
//     become error-flagged tool results the model can read.
//   - ConfirmationGate: routes proposed invocations through user review
//     before anything touches the filesystem.
//   - Session: the turn controller. It drives the request/stream/dispatch
//     cycle, bounded by a per-turn iteration cap.
//
// # Quick start
//
//	client := modelchannel.NewClientFromEnv()
//	sess, err := assistant.NewSession(assistant.SessionConfig{
//		Channel:       client,
//		WorkspaceRoot: "/path/to/project",
//		Model:         "claude-sonnet-4-5",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sess.Close()
//
//	result, err := sess.RunTurn(ctx, "rename the Config struct to Settings")
//
// # Errors
//
// Workspace and dispatch failures use typed errors (SnippetNotFoundError,
// SizeExceededError, PermissionDeniedError and friends) so callers can
// distinguish them with errors.As. Model channel failures carry the
// modelchannel taxonomy and terminate the turn without recording a
// partial assistant entry.
package assistant
