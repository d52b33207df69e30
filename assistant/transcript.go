package assistant

import (
	"fmt"
	"sync"
	"time"

	"github.com/hmallory/codeforge/modelchannel"
)

// EntryKind classifies transcript entries for retention purposes.
type EntryKind string

const (
	// EntryDirective is the system directive. At most one exists, always at
	// index 0.
	EntryDirective EntryKind = "directive"

	// EntryFileContext is pinned file content loaded into the conversation.
	// File context survives trimming regardless of age.
	EntryFileContext EntryKind = "file_context"

	// EntryUser is user-authored input, including synthetic entries the
	// assistant appends on the user's behalf (e.g. tool rejections).
	EntryUser EntryKind = "user"

	// EntryAssistant is a model reply, possibly carrying tool calls.
	EntryAssistant EntryKind = "assistant"

	// EntryToolResult is the outcome of one tool invocation.
	EntryToolResult EntryKind = "tool_result"
)

// DefaultRetainedEntries is how many non-pinned entries Trim keeps.
const DefaultRetainedEntries = 30

// Entry is one record in the conversation transcript.
type Entry struct {
	Kind      EntryKind               `json:"kind"`
	Content   string                  `json:"content"`
	ToolCalls []modelchannel.ToolCall `json:"tool_calls,omitempty"`
	CallID    string                  `json:"call_id,omitempty"`
	ToolName  string                  `json:"tool_name,omitempty"`
	IsError   bool                    `json:"is_error,omitempty"`
	Path      string                  `json:"path,omitempty"` // file context source
	Timestamp time.Time               `json:"timestamp"`
}

// Transcript is the append-only conversation record. Entries are appended,
// never reordered; trimming removes old entries but preserves the relative
// order of everything it keeps.
type Transcript struct {
	entries []Entry
	mu      sync.RWMutex
}

// NewTranscript creates an empty Transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds an entry to the end of the transcript.
func (t *Transcript) Append(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	t.entries = append(t.entries, e)
}

// SetDirective installs or replaces the system directive at index 0. The
// directive is updated in place so its position never changes.
func (t *Transcript) SetDirective(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.entries) > 0 && t.entries[0].Kind == EntryDirective {
		t.entries[0].Content = text
		return
	}
	entry := Entry{Kind: EntryDirective, Content: text, Timestamp: time.Now()}
	t.entries = append([]Entry{entry}, t.entries...)
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Entries returns a copy of all entries.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// AddFileContext pins a file's content into the transcript. If the path is
// already pinned, the existing entry is refreshed in place so its position
// in the conversation does not move.
func (t *Transcript) AddFileContext(path, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	body := fmt.Sprintf("Content of file %s:\n%s", path, content)
	for i := range t.entries {
		if t.entries[i].Kind == EntryFileContext && t.entries[i].Path == path {
			t.entries[i].Content = body
			t.entries[i].Timestamp = time.Now()
			return
		}
	}
	t.entries = append(t.entries, Entry{
		Kind:      EntryFileContext,
		Content:   body,
		Path:      path,
		Timestamp: time.Now(),
	})
}

// DropFileContext removes the pinned entry for a path. It reports whether
// an entry was removed.
func (t *Transcript) DropFileContext(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].Kind == EntryFileContext && t.entries[i].Path == path {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// FileContextPaths lists the paths currently pinned, in pin order.
func (t *Transcript) FileContextPaths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var paths []string
	for _, e := range t.entries {
		if e.Kind == EntryFileContext {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// Clear removes everything except the system directive.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.entries) > 0 && t.entries[0].Kind == EntryDirective {
		t.entries = t.entries[:1]
		return
	}
	t.entries = nil
}

// Trim bounds transcript growth. It keeps the system directive, every file
// context entry, and the most recent maxOthers remaining entries, dropping
// older ones. Relative order of kept entries is preserved.
func (t *Transcript) Trim(maxOthers int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	others := 0
	for _, e := range t.entries {
		if e.Kind != EntryDirective && e.Kind != EntryFileContext {
			others++
		}
	}
	if others <= maxOthers {
		return
	}

	drop := others - maxOthers
	kept := make([]Entry, 0, len(t.entries)-drop)
	for _, e := range t.entries {
		if e.Kind == EntryDirective || e.Kind == EntryFileContext {
			kept = append(kept, e)
			continue
		}
		if drop > 0 {
			drop--
			continue
		}
		kept = append(kept, e)
	}
	t.entries = kept
}

// Messages converts the transcript into the model channel message sequence.
func (t *Transcript) Messages() []modelchannel.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	msgs := make([]modelchannel.Message, 0, len(t.entries))
	for _, e := range t.entries {
		switch e.Kind {
		case EntryDirective:
			msgs = append(msgs, modelchannel.SystemMessage(e.Content))
		case EntryFileContext, EntryUser:
			msgs = append(msgs, modelchannel.UserMessage(e.Content))
		case EntryAssistant:
			msgs = append(msgs, modelchannel.AssistantMessage(e.Content, e.ToolCalls))
		case EntryToolResult:
			msgs = append(msgs, modelchannel.ToolResultMessage(e.CallID, e.ToolName, e.Content, e.IsError))
		}
	}
	return msgs
}

// Snapshot returns the entries for persistence. Restore replaces the
// transcript wholesale from a saved snapshot.
func (t *Transcript) Snapshot() []Entry {
	return t.Entries()
}

// Restore replaces the transcript content from a saved snapshot.
func (t *Transcript) Restore(entries []Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make([]Entry, len(entries))
	copy(t.entries, entries)
}
