// Package llm defines the chat completion types the agent works with and the
// Provider interface backends implement.
package llm

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	// Role is one of RoleSystem, RoleUser, RoleAssistant or RoleTool.
	Role    string
	Content string
	// ToolCalls is set on assistant messages that request tools.
	ToolCalls []ToolCall
	// ToolCallID identifies the call a RoleTool message answers.
	ToolCallID string
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	// Arguments is the JSON-encoded argument object.
	Arguments string
}

// ToolDefinition describes a tool offered to the model.
type ToolDefinition struct {
	Name        string
	Description string
	// Parameters is the JSON Schema of the argument object.
	Parameters map[string]any
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest must carry at least one message.
type CompletionRequest struct {
	Messages     []Message
	Tools        []ToolDefinition
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

type CompletionResponse struct {
	// Content is empty when the model only requests tools.
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

// Provider is a chat completion backend. Implementations must be safe for
// concurrent use and honour ctx cancellation.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
