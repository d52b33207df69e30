package assistant

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hmallory/codeforge/modelchannel"
)

// Verdict is the user's decision on a batch of proposed tool calls.
type Verdict int

const (
	// VerdictAccepted runs the batch as proposed.
	VerdictAccepted Verdict = iota

	// VerdictRejected runs nothing. The session reports the rejection back
	// to the model as a synthetic user entry.
	VerdictRejected

	// VerdictEdited modifies one argument of one invocation, then runs the
	// batch without asking again.
	VerdictEdited
)

// Decision carries the verdict plus its parameters.
type Decision struct {
	Verdict Verdict
	Reason  string // rejection: optional explanation relayed to the model

	// Edit parameters: which invocation (by position in the batch), which
	// argument field, and the replacement value as typed by the user.
	EditIndex int
	EditField string
	EditValue string
}

// ProposedCall pairs a raw tool call with its parsed operation for display.
type ProposedCall struct {
	Call      modelchannel.ToolCall
	Op        Operation
	Summary   string
	Sensitive bool
}

// Prompter presents proposed tool calls to the user and collects a
// decision. The terminal frontend implements this; tests script it.
//
// ConfirmWrite is the second, write-time confirmation for sensitive
// system paths: even after the batch is approved, each sensitive write
// asks again before touching the path. Declining fails only that write.
type Prompter interface {
	Review(calls []ProposedCall) (Decision, error)
	ConfirmWrite(path string) bool
}

// GateOutcome is what came of a batch of proposed calls. Exactly one of
// Results and Denied is set.
type GateOutcome struct {
	Results []ToolResult
	Denied  *PermissionDeniedError
}

// ConfirmationGate routes proposed tool invocations through user review
// before execution. Read-only batches skip review when AutoApproveReads is
// set; any mutating call, and any call touching a sensitive path, forces a
// prompt.
type ConfirmationGate struct {
	prompter   Prompter
	dispatcher *Dispatcher
	log        *zap.SugaredLogger

	// AutoApproveReads dispatches batches with no mutating operations
	// without prompting.
	AutoApproveReads bool
}

// NewConfirmationGate creates a gate in front of the dispatcher and
// plugs the prompter's write-time confirmation into it.
func NewConfirmationGate(prompter Prompter, dispatcher *Dispatcher, log *zap.SugaredLogger) *ConfirmationGate {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if prompter != nil && dispatcher != nil {
		dispatcher.ConfirmWrite = prompter.ConfirmWrite
	}
	return &ConfirmationGate{prompter: prompter, dispatcher: dispatcher, log: log}
}

// Process reviews and executes a batch of tool calls. Calls that fail to
// parse are answered with error results without consuming a prompt.
func (g *ConfirmationGate) Process(calls []modelchannel.ToolCall) GateOutcome {
	proposed := make([]ProposedCall, 0, len(calls))
	needsReview := false

	for _, call := range calls {
		pc := ProposedCall{Call: call}
		op, err := g.dispatcher.Parse(call)
		if err != nil {
			// Unparseable calls stay in the batch so positions line up for
			// edits; dispatch converts them to error results.
			pc.Summary = fmt.Sprintf("%s (invalid: %v)", call.Name, err)
		} else {
			pc.Op = op
			pc.Summary = op.Describe()
			pc.Sensitive = op.Kind.Mutates() && g.isSensitive(op)
			if op.Kind.Mutates() || pc.Sensitive {
				needsReview = true
			}
		}
		proposed = append(proposed, pc)
	}

	if needsReview || !g.AutoApproveReads {
		if len(proposed) > 0 {
			decision, err := g.prompter.Review(proposed)
			if err != nil {
				g.log.Warnw("confirmation prompt failed, rejecting batch", "error", err)
				return GateOutcome{Denied: &PermissionDeniedError{Reason: "confirmation unavailable"}}
			}
			switch decision.Verdict {
			case VerdictRejected:
				g.log.Infow("tool batch rejected by user", "calls", len(calls))
				return GateOutcome{Denied: &PermissionDeniedError{Reason: decision.Reason}}
			case VerdictEdited:
				edited, err := g.applyEdit(calls, decision)
				if err != nil {
					g.log.Warnw("edit rejected", "error", err)
					return GateOutcome{Denied: &PermissionDeniedError{Reason: err.Error()}}
				}
				calls = edited
			}
		}
	}

	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, g.dispatcher.Dispatch(call))
	}
	return GateOutcome{Results: results}
}

func (g *ConfirmationGate) isSensitive(op Operation) bool {
	if IsSensitivePath(op.Path) {
		return true
	}
	for _, f := range op.Files {
		if IsSensitivePath(f.Path) {
			return true
		}
	}
	return false
}

// applyEdit rewrites one argument of one call in the batch. The edited
// batch dispatches without a second confirmation round.
func (g *ConfirmationGate) applyEdit(calls []modelchannel.ToolCall, d Decision) ([]modelchannel.ToolCall, error) {
	if d.EditIndex < 0 || d.EditIndex >= len(calls) {
		return nil, fmt.Errorf("edit position %d is out of range (batch has %d calls)", d.EditIndex, len(calls))
	}
	if d.EditField == "" {
		return nil, fmt.Errorf("edit requires a field name")
	}

	target := calls[d.EditIndex]
	raw := target.Arguments
	if raw == "" {
		raw = "{}"
	}
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("cannot edit %s: arguments are not a JSON object", target.Name)
	}

	args[d.EditField] = CoerceValue(d.EditValue)
	updated, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}

	// Re-validate before dispatch so a bad edit fails here, not mid-batch.
	if _, err := ParseOperation(target.Name, string(updated)); err != nil {
		return nil, fmt.Errorf("edit produces an invalid invocation: %w", err)
	}

	out := make([]modelchannel.ToolCall, len(calls))
	copy(out, calls)
	out[d.EditIndex].Arguments = string(updated)
	g.log.Debugw("applied user edit", "tool", target.Name, "field", d.EditField)
	return out, nil
}

// CoerceValue interprets user-typed text as the most specific matching
// type, tried in a fixed order: boolean, integer, float, then string.
// Booleans match only the literals "true" and "false" (case-insensitive),
// so numeric text like "1" coerces to an integer rather than a boolean.
func CoerceValue(s string) interface{} {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
