package assistant

import (
	"sort"

	"github.com/hmallory/codeforge/modelchannel"
)

// CallAssembler accumulates streamed tool call fragments into complete
// invocations. Providers deliver calls as interleaved fragments keyed by a
// slot index; each fragment may carry a call identifier, a piece of the tool
// name, a piece of the argument text, or any combination.
//
// Per slot, the identifier is write-once (the first non-empty value wins)
// and name and argument text grow by concatenation in arrival order.
type CallAssembler struct {
	slots map[int]*callSlot
}

type callSlot struct {
	id   string
	name string
	args string
}

// NewCallAssembler creates an empty assembler.
func NewCallAssembler() *CallAssembler {
	return &CallAssembler{slots: make(map[int]*callSlot)}
}

// Add folds one fragment into the accumulator.
func (a *CallAssembler) Add(f modelchannel.CallFragment) {
	slot, ok := a.slots[f.Index]
	if !ok {
		slot = &callSlot{}
		a.slots[f.Index] = slot
	}
	if slot.id == "" && f.ID != "" {
		slot.id = f.ID
	}
	slot.name += f.NameDelta
	slot.args += f.ArgsDelta
}

// Len returns the number of slots seen so far.
func (a *CallAssembler) Len() int {
	return len(a.slots)
}

// Finalize converts the accumulated slots into tool calls, ordered by slot
// index. Slots that never received an identifier or a non-empty name are
// incomplete and are dropped. Finalize does not modify the accumulator.
func (a *CallAssembler) Finalize() []modelchannel.ToolCall {
	indexes := make([]int, 0, len(a.slots))
	for idx := range a.slots {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var calls []modelchannel.ToolCall
	for _, idx := range indexes {
		slot := a.slots[idx]
		if slot.id == "" || slot.name == "" {
			continue
		}
		calls = append(calls, modelchannel.ToolCall{
			ID:        slot.id,
			Name:      slot.name,
			Arguments: slot.args,
		})
	}
	return calls
}

// Reset clears the accumulator for reuse.
func (a *CallAssembler) Reset() {
	a.slots = make(map[int]*callSlot)
}
