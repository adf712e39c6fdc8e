package ws

import (
	"energy_profile/internal/llm"
)

// Bridge implements agent.Observer and broadcasts tool activity to every
// connected client.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) ToolCall(call llm.ToolCall) {
	msg, err := NewEnvelope(TypeToolCall, ToolCallPayload{
		ID:        call.ID,
		Name:      call.Name,
		Arguments: call.Arguments,
	})
	if err != nil {
		b.hub.logger.Error("marshaling tool call", "err", err)
		return
	}
	b.hub.Broadcast(msg)
}

func (b *Bridge) ToolResult(call llm.ToolCall, result string, failed bool) {
	msg, err := NewEnvelope(TypeToolResult, ToolResultPayload{
		ID:     call.ID,
		Name:   call.Name,
		Result: result,
		Failed: failed,
	})
	if err != nil {
		b.hub.logger.Error("marshaling tool result", "err", err)
		return
	}
	b.hub.Broadcast(msg)
}
