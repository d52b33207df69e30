package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hmallory/codeforge/modelchannel"
)

// DefaultMaxIterations caps how many model request cycles one turn may run.
// Each cycle is one request, one streamed reply, and one dispatched batch.
const DefaultMaxIterations = 5

// SessionFormatVersion tags saved session files.
const SessionFormatVersion = 1

// ErrIterationLimit is returned by RunTurn when the model kept requesting
// tools past the per-turn cap. Completed cycles remain in the transcript.
var ErrIterationLimit = errors.New("turn reached the tool iteration limit")

// ModelChannel is the slice of the model client the session needs. It is
// satisfied by *modelchannel.Client; tests substitute scripted channels.
type ModelChannel interface {
	Stream(ctx context.Context, req modelchannel.Request) (<-chan modelchannel.StreamEvent, error)
}

// SessionConfig configures a new Session.
type SessionConfig struct {
	Channel       ModelChannel
	WorkspaceRoot string
	Model         string
	Provider      string
	Prompter      Prompter
	Logger        *zap.SugaredLogger

	// MaxIterations overrides DefaultMaxIterations when positive.
	MaxIterations int

	// AutoApproveReads lets read-only tool batches run without prompting.
	AutoApproveReads bool

	// RetainedEntries overrides DefaultRetainedEntries when positive.
	RetainedEntries int

	EventBufferSize int
}

// Session owns one conversation: the transcript, the workspace, the tool
// pipeline, and the turn loop that connects them to the model.
type Session struct {
	ID string

	channel    ModelChannel
	transcript *Transcript
	ws         *Workspace
	dispatcher *Dispatcher
	gate       *ConfirmationGate
	loader     *ContextLoader
	emitter    *EventEmitter
	log        *zap.SugaredLogger

	model         string
	provider      string
	maxIterations int
	retained      int
}

// NewSession creates a session rooted at the configured workspace.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Channel == nil {
		return nil, fmt.Errorf("session requires a model channel")
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	ws, err := NewWorkspace(cfg.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	retained := cfg.RetainedEntries
	if retained <= 0 {
		retained = DefaultRetainedEntries
	}

	prompter := cfg.Prompter
	if prompter == nil {
		prompter = acceptAllPrompter{}
	}

	transcript := NewTranscript()
	transcript.SetDirective(BuildDirective(ws.Root(), cfg.Model))

	dispatcher := NewDispatcher(ws, log)
	gate := NewConfirmationGate(prompter, dispatcher, log)
	gate.AutoApproveReads = cfg.AutoApproveReads
	loader := NewContextLoader(ws, transcript)
	dispatcher.OnFileWritten = loader.Refresh

	s := &Session{
		ID:            uuid.New().String(),
		channel:       cfg.Channel,
		transcript:    transcript,
		ws:            ws,
		dispatcher:    dispatcher,
		gate:          gate,
		loader:        loader,
		log:           log,
		model:         cfg.Model,
		provider:      cfg.Provider,
		maxIterations: maxIterations,
		retained:      retained,
	}
	s.emitter = NewEventEmitter(s.ID, cfg.EventBufferSize)
	s.emitter.Emit(EventSessionStart, map[string]interface{}{"workspace": ws.Root(), "model": cfg.Model})
	return s, nil
}

// acceptAllPrompter approves every batch. Used when no Prompter is wired,
// e.g. non-interactive runs.
type acceptAllPrompter struct{}

func (acceptAllPrompter) Review([]ProposedCall) (Decision, error) {
	return Decision{Verdict: VerdictAccepted}, nil
}

func (acceptAllPrompter) ConfirmWrite(string) bool { return true }

// Transcript returns the session's conversation record.
func (s *Session) Transcript() *Transcript { return s.transcript }

// Workspace returns the session's project workspace.
func (s *Session) Workspace() *Workspace { return s.ws }

// Context returns the file context loader for /add style commands.
func (s *Session) Context() *ContextLoader { return s.loader }

// Events returns the session's event stream.
func (s *Session) Events() <-chan SessionEvent { return s.emitter.Events() }

// Model returns the active model identifier.
func (s *Session) Model() string { return s.model }

// SetModel switches the active model and refreshes the system directive.
func (s *Session) SetModel(model string) {
	s.model = model
	s.transcript.SetDirective(BuildDirective(s.ws.Root(), model))
}

// Close releases session resources.
func (s *Session) Close() {
	s.emitter.Emit(EventSessionEnd, nil)
	s.emitter.Close()
}

// RunTurn sends user input through the full request/stream/dispatch cycle
// and returns the model's final text reply.
//
// A turn runs at most maxIterations cycles; if the model is still asking
// for tools after the last one, RunTurn returns ErrIterationLimit with
// whatever text accumulated. A channel failure ends the turn immediately:
// the failed cycle contributes nothing to the transcript, while the user
// entry and any completed cycles remain.
func (s *Session) RunTurn(ctx context.Context, userInput string) (string, error) {
	s.emitter.Emit(EventUserInput, map[string]interface{}{"text": userInput})

	s.transcript.Append(Entry{Kind: EntryUser, Content: userInput})
	s.transcript.Trim(s.retained)

	var lastText string
	for iteration := 0; iteration < s.maxIterations; iteration++ {
		text, calls, err := s.requestCycle(ctx)
		if err != nil {
			s.emitter.Emit(EventError, map[string]interface{}{"error": err.Error()})
			return "", err
		}

		// The cycle is recorded only now that the stream finished cleanly.
		s.transcript.Append(Entry{Kind: EntryAssistant, Content: text, ToolCalls: calls})
		lastText = text

		if len(calls) == 0 {
			s.emitter.Emit(EventAssistantEnd, map[string]interface{}{"text": text})
			s.transcript.Trim(s.retained)
			return text, nil
		}

		for _, call := range calls {
			s.emitter.Emit(EventToolProposed, map[string]interface{}{"tool": call.Name, "id": call.ID})
		}

		outcome := s.gate.Process(calls)
		if outcome.Denied != nil {
			reason := outcome.Denied.Reason
			if reason == "" {
				reason = "no reason given"
			}
			s.emitter.Emit(EventToolRejected, map[string]interface{}{"reason": reason})
			s.transcript.Append(Entry{
				Kind: EntryUser,
				Content: fmt.Sprintf("I rejected the proposed tool calls (%s). "+
					"Do not retry them as-is; ask me or take a different approach.", reason),
			})
		} else {
			for _, result := range outcome.Results {
				s.emitter.Emit(EventToolResult, map[string]interface{}{
					"tool": result.ToolName, "is_error": result.IsError,
				})
				s.transcript.Append(result.Entry())
			}
		}

		s.transcript.Trim(s.retained)
	}

	s.log.Warnw("turn hit iteration limit", "limit", s.maxIterations)
	s.emitter.Emit(EventIterationLimit, map[string]interface{}{"limit": s.maxIterations})
	return lastText, ErrIterationLimit
}

// requestCycle performs one model request and consumes its stream. It
// returns the reply text and the finalized tool calls. Any channel error,
// including a mid-stream one, fails the whole cycle.
func (s *Session) requestCycle(ctx context.Context) (string, []modelchannel.ToolCall, error) {
	req := modelchannel.Request{
		Model:    s.model,
		Provider: s.provider,
		Messages: s.transcript.Messages(),
		ToolDefs: OperationDefinitions(),
	}

	events, err := s.channel.Stream(ctx, req)
	if err != nil {
		return "", nil, err
	}

	asm := NewCallAssembler()
	var text strings.Builder
	finished := false

	for ev := range events {
		switch ev.Type {
		case modelchannel.EventTextDelta:
			text.WriteString(ev.Delta)
			s.emitter.Emit(EventAssistantDelta, map[string]interface{}{"delta": ev.Delta})
		case modelchannel.EventCallFragment:
			if ev.Fragment != nil {
				asm.Add(*ev.Fragment)
			}
		case modelchannel.EventError:
			if ev.Error != nil {
				return "", nil, ev.Error
			}
			return "", nil, fmt.Errorf("model stream failed")
		case modelchannel.EventFinish:
			finished = true
		}
	}

	if !finished {
		return "", nil, fmt.Errorf("model stream ended without a finish event")
	}
	return text.String(), asm.Finalize(), nil
}

// sessionSnapshot is the on-disk session format.
type sessionSnapshot struct {
	Version       int     `json:"version"`
	Model         string  `json:"model"`
	WorkspaceRoot string  `json:"workspace_root"`
	Entries       []Entry `json:"entries"`
}

// Save writes the session state to a JSON file.
func (s *Session) Save(path string) error {
	snap := sessionSnapshot{
		Version:       SessionFormatVersion,
		Model:         s.model,
		WorkspaceRoot: s.ws.Root(),
		Entries:       s.transcript.Snapshot(),
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load replaces the session's transcript and model from a saved file. The
// workspace root is not changed; a saved session can be resumed against a
// different checkout.
func (s *Session) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snap sessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("invalid session file: %w", err)
	}
	if snap.Version != SessionFormatVersion {
		return fmt.Errorf("unsupported session format version %d", snap.Version)
	}
	s.transcript.Restore(snap.Entries)
	if snap.Model != "" {
		s.SetModel(snap.Model)
	}
	return nil
}
