package assistant

import (
	"strings"
	"testing"

	"github.com/hmallory/codeforge/modelchannel"
)

// scriptedPrompter returns queued decisions and records what it was shown.
// Write confirmations come from the confirms queue, defaulting to yes.
type scriptedPrompter struct {
	decisions []Decision
	reviewed  [][]ProposedCall
	confirms  []bool
	confirmed []string
}

func (p *scriptedPrompter) Review(calls []ProposedCall) (Decision, error) {
	p.reviewed = append(p.reviewed, calls)
	if len(p.decisions) == 0 {
		return Decision{Verdict: VerdictAccepted}, nil
	}
	d := p.decisions[0]
	p.decisions = p.decisions[1:]
	return d, nil
}

func (p *scriptedPrompter) ConfirmWrite(path string) bool {
	p.confirmed = append(p.confirmed, path)
	if len(p.confirms) == 0 {
		return true
	}
	ok := p.confirms[0]
	p.confirms = p.confirms[1:]
	return ok
}

func editCall() modelchannel.ToolCall {
	return modelchannel.ToolCall{
		ID: "c1", Name: "edit_file",
		Arguments: `{"file_path":"a.go","original_snippet":"old","new_snippet":"new"}`,
	}
}

func TestGateAcceptExecutesBatch(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.go"] = "old"
	prompter := &scriptedPrompter{decisions: []Decision{{Verdict: VerdictAccepted}}}
	gate := NewConfirmationGate(prompter, NewDispatcher(fs, nil), nil)

	outcome := gate.Process([]modelchannel.ToolCall{editCall()})
	if outcome.Denied != nil {
		t.Fatalf("accepted batch denied: %v", outcome.Denied)
	}
	if len(outcome.Results) != 1 || outcome.Results[0].IsError {
		t.Fatalf("results = %+v", outcome.Results)
	}
	if fs.files["a.go"] != "new" {
		t.Errorf("file = %q, want new", fs.files["a.go"])
	}
}

func TestGateRejectRunsNothing(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.go"] = "old"
	prompter := &scriptedPrompter{decisions: []Decision{{Verdict: VerdictRejected, Reason: "not like this"}}}
	gate := NewConfirmationGate(prompter, NewDispatcher(fs, nil), nil)

	outcome := gate.Process([]modelchannel.ToolCall{editCall()})
	if outcome.Denied == nil {
		t.Fatal("expected denial")
	}
	if outcome.Denied.Reason != "not like this" {
		t.Errorf("reason = %q", outcome.Denied.Reason)
	}
	if len(outcome.Results) != 0 {
		t.Errorf("results = %d, want 0", len(outcome.Results))
	}
	if fs.files["a.go"] != "old" {
		t.Error("rejected batch must leave the filesystem untouched")
	}
	if fs.writes != 0 {
		t.Errorf("writes = %d, want 0", fs.writes)
	}
}

func TestGateSensitiveWriteDeclinedFailsOnlyThatCall(t *testing.T) {
	fs := newFakeFS()
	prompter := &scriptedPrompter{
		decisions: []Decision{{Verdict: VerdictAccepted}},
		confirms:  []bool{false},
	}
	gate := NewConfirmationGate(prompter, NewDispatcher(fs, nil), nil)

	outcome := gate.Process([]modelchannel.ToolCall{
		{ID: "c1", Name: "create_file", Arguments: `{"file_path":"notes.txt","content":"ok"}`},
		{ID: "c2", Name: "create_file", Arguments: `{"file_path":"/etc/hosts","content":"bad"}`},
	})
	if outcome.Denied != nil {
		t.Fatalf("accepted batch denied: %v", outcome.Denied)
	}
	if len(outcome.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(outcome.Results))
	}
	if outcome.Results[0].IsError {
		t.Errorf("sibling call failed: %s", outcome.Results[0].Content)
	}
	if !outcome.Results[1].IsError || !strings.Contains(outcome.Results[1].Content, "permission denied") {
		t.Errorf("sensitive result = %+v, want permission denied error", outcome.Results[1])
	}
	if fs.files["notes.txt"] != "ok" {
		t.Error("declined sensitive write must not block its siblings")
	}
	if _, ok := fs.files["/etc/hosts"]; ok {
		t.Error("declined sensitive write landed anyway")
	}
	if len(prompter.confirmed) != 1 || prompter.confirmed[0] != "/etc/hosts" {
		t.Errorf("confirmed = %v, want only the sensitive path", prompter.confirmed)
	}
}

func TestGateEditModifiesOneInvocation(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.go"] = "old"
	fs.files["b.go"] = "old"
	prompter := &scriptedPrompter{decisions: []Decision{{
		Verdict:   VerdictEdited,
		EditIndex: 1,
		EditField: "new_snippet",
		EditValue: "edited",
	}}}
	gate := NewConfirmationGate(prompter, NewDispatcher(fs, nil), nil)

	calls := []modelchannel.ToolCall{
		{ID: "c1", Name: "edit_file", Arguments: `{"file_path":"a.go","original_snippet":"old","new_snippet":"new"}`},
		{ID: "c2", Name: "edit_file", Arguments: `{"file_path":"b.go","original_snippet":"old","new_snippet":"new"}`},
	}
	outcome := gate.Process(calls)
	if outcome.Denied != nil {
		t.Fatalf("edited batch denied: %v", outcome.Denied)
	}
	if fs.files["a.go"] != "new" {
		t.Errorf("untouched call changed: a.go = %q", fs.files["a.go"])
	}
	if fs.files["b.go"] != "edited" {
		t.Errorf("edited call result: b.go = %q, want edited", fs.files["b.go"])
	}
	// Edit runs once, no re-confirmation round.
	if len(prompter.reviewed) != 1 {
		t.Errorf("prompts = %d, want 1", len(prompter.reviewed))
	}
}

func TestGateEditOutOfRangeRejects(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.go"] = "old"
	prompter := &scriptedPrompter{decisions: []Decision{{
		Verdict: VerdictEdited, EditIndex: 5, EditField: "new_snippet", EditValue: "x",
	}}}
	gate := NewConfirmationGate(prompter, NewDispatcher(fs, nil), nil)

	outcome := gate.Process([]modelchannel.ToolCall{editCall()})
	if outcome.Denied == nil {
		t.Fatal("out of range edit must deny the batch")
	}
	if fs.writes != 0 {
		t.Error("nothing should run after a failed edit")
	}
}

func TestGateAutoApproveReads(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.go"] = "content"
	prompter := &scriptedPrompter{}
	gate := NewConfirmationGate(prompter, NewDispatcher(fs, nil), nil)
	gate.AutoApproveReads = true

	outcome := gate.Process([]modelchannel.ToolCall{
		{ID: "c1", Name: "read_file", Arguments: `{"file_path":"a.go"}`},
	})
	if outcome.Denied != nil || len(outcome.Results) != 1 {
		t.Fatalf("outcome = %+v", outcome)
	}
	if len(prompter.reviewed) != 0 {
		t.Errorf("read-only batch prompted %d times, want 0", len(prompter.reviewed))
	}

	// A mutating call in the batch forces a prompt even with auto-approve.
	gate.Process([]modelchannel.ToolCall{
		{ID: "c2", Name: "read_file", Arguments: `{"file_path":"a.go"}`},
		editCall(),
	})
	if len(prompter.reviewed) != 1 {
		t.Errorf("mixed batch prompted %d times, want 1", len(prompter.reviewed))
	}
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		in   string
		want interface{}
	}{
		{"true", true},
		{"False", false},
		{"TRUE", true},
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"3.14", 3.14},
		{"1", int64(1)}, // numeric text is an integer, not a boolean
		{"0", int64(0)},
		{"hello", "hello"},
		{"1.2.3", "1.2.3"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CoerceValue(tt.in); got != tt.want {
				t.Errorf("CoerceValue(%q) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
			}
		})
	}
}
