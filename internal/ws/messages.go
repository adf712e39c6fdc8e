package ws

import (
	"encoding/json"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> Server messages

type ChatMessagePayload struct {
	Text string `json:"text"`
}

// Server -> Client messages

type SessionReadyPayload struct {
	Tools []ToolInfo `json:"tools"`
}

type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ChatReplyPayload struct {
	Text  string `json:"text"`
	Steps int    `json:"steps"`
}

type ChatErrorPayload struct {
	Message string `json:"message"`
}

type ToolCallPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ToolResultPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Result string `json:"result"`
	Failed bool   `json:"failed"`
}

// Message type constants
const (
	// Client -> Server
	TypeChatMessage = "chat:message"
	TypeChatReset   = "chat:reset"

	// Server -> Client
	TypeSessionReady = "session:ready"
	TypeChatReply    = "chat:reply"
	TypeChatError    = "chat:error"
	TypeToolCall     = "tool:call"
	TypeToolResult   = "tool:result"
)

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
