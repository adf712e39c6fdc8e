package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_profile/internal/llm"
)

func TestConvertMessage_Roles(t *testing.T) {
	sys, err := convertMessage(llm.Message{Role: llm.RoleSystem, Content: "be brief"})
	require.NoError(t, err)
	assert.NotNil(t, sys.OfSystem)

	user, err := convertMessage(llm.Message{Role: llm.RoleUser, Content: "hi"})
	require.NoError(t, err)
	assert.NotNil(t, user.OfUser)

	tool, err := convertMessage(llm.Message{Role: llm.RoleTool, Content: "42", ToolCallID: "call_1"})
	require.NoError(t, err)
	require.NotNil(t, tool.OfTool)
	assert.Equal(t, "call_1", tool.OfTool.ToolCallID)

	_, err = convertMessage(llm.Message{Role: "narrator"})
	assert.Error(t, err)
}

func TestConvertMessage_AssistantWithToolCalls(t *testing.T) {
	msg := llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "read_csv", Arguments: `{"file_path":"data/output.csv"}`},
		},
	}

	p, err := convertMessage(msg)
	require.NoError(t, err)
	require.NotNil(t, p.OfAssistant)
	require.Len(t, p.OfAssistant.ToolCalls, 1)
	tc := p.OfAssistant.ToolCalls[0]
	assert.Equal(t, "call_1", tc.ID)
	assert.Equal(t, "read_csv", tc.Function.Name)
	assert.Equal(t, `{"file_path":"data/output.csv"}`, tc.Function.Arguments)
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", "model")
	assert.Error(t, err)
	_, err = New("key", "")
	assert.Error(t, err)
}

const completionWithTool = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "Qwen/Qwen2.5-72B-Instruct",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": "",
      "tool_calls": [{
        "id": "call_abc",
        "type": "function",
        "function": {"name": "estimate_pv_output", "arguments": "{\"latitude\":45}"}
      }]
    }
  }],
  "usage": {"prompt_tokens": 120, "completion_tokens": 18, "total_tokens": 138}
}`

func TestComplete_RequestAndToolCalls(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionWithTool)
	}))
	defer srv.Close()

	p, err := New("hf_test", "Qwen/Qwen2.5-72B-Instruct", WithBaseURL(srv.URL+"/v1/"))
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "You are an energy analyst.",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "How much PV in Turin?"}},
		Temperature:  0.1,
		MaxTokens:    512,
		Tools: []llm.ToolDefinition{{
			Name:        "estimate_pv_output",
			Description: "Estimate annual PV output",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Qwen/Qwen2.5-72B-Instruct", body["model"])
	assert.EqualValues(t, 512, body["max_tokens"])
	assert.InDelta(t, 0.1, body["temperature"], 1e-9)
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	tools, ok := body["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, llm.ToolCall{ID: "call_abc", Name: "estimate_pv_output", Arguments: `{"latitude":45}`}, resp.ToolCalls[0])
	assert.Equal(t, 138, resp.Usage.TotalTokens)
}

func TestComplete_HTTPError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": {"message": "Invalid credentials"}}`)
	}))
	defer srv.Close()

	p, err := New("bad", "m", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), llm.CompletionRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "x"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai: chat completion")
	assert.Equal(t, 1, calls)
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	p, err := New("k", "m", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), llm.CompletionRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "x"}}})
	assert.ErrorContains(t, err, "empty choices")
}

func TestComplete_NoMessages(t *testing.T) {
	p, err := New("k", "m")
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), llm.CompletionRequest{})
	assert.ErrorContains(t, err, "no messages")
}
