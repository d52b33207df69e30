package modelchannel

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a fully-assembled tool invocation echoed back to the model as
// part of an assistant message. Arguments holds the raw argument text exactly
// as the model produced it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is the fundamental unit of conversation sent to the channel.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
	IsError    bool       `json:"is_error,omitempty"`
}

// SystemMessage creates a system Message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user Message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant Message, optionally carrying the
// tool calls the assistant proposed in that turn.
func AssistantMessage(text string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// ToolResultMessage creates a tool result Message bound to the invocation
// that produced it.
func ToolResultMessage(callID, toolName, content string, isError bool) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: callID,
		ToolName:   toolName,
		IsError:    isError,
	}
}

// ToolDefinition describes one operation the model may request.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// ToolChoice controls whether and how the model uses tools.
type ToolChoice struct {
	Mode string `json:"mode"` // "auto", "none", "required"
}

// Request is the input to Client.Stream.
type Request struct {
	Model       string           `json:"model"`
	Provider    string           `json:"provider,omitempty"`
	Messages    []Message        `json:"messages"`
	ToolDefs    []ToolDefinition `json:"tools,omitempty"`
	ToolChoice  *ToolChoice      `json:"tool_choice,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
}

// Usage tracks token consumption for one response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// CallFragment is one partial piece of a proposed tool call. Fragments for
// the same slot index arrive in order; fragments for different slots may
// interleave. ID is set at most once per slot; NameDelta and ArgsDelta are
// concatenated by the consumer.
type CallFragment struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	NameDelta string `json:"name_delta,omitempty"`
	ArgsDelta string `json:"args_delta,omitempty"`
}

// EventType identifies the kind of stream event.
type EventType string

const (
	EventStreamStart  EventType = "stream_start"
	EventTextDelta    EventType = "text_delta"
	EventCallFragment EventType = "call_fragment"
	EventFinish       EventType = "finish"
	EventError        EventType = "error"
)

// StreamEvent is a single event from a streaming response. After an
// EventError no further events are delivered; a well-formed stream ends with
// exactly one EventFinish.
type StreamEvent struct {
	Type     EventType     `json:"type"`
	Delta    string        `json:"delta,omitempty"`
	Fragment *CallFragment `json:"fragment,omitempty"`
	Usage    *Usage        `json:"usage,omitempty"`
	Error    error         `json:"-"`
}
