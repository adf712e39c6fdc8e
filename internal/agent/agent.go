// Package agent runs a tool-calling loop between a chat model and the tool
// catalogue.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"energy_profile/internal/llm"
)

// ErrMaxSteps is returned when the model keeps requesting tools and never
// produces an answer.
var ErrMaxSteps = errors.New("agent: step limit reached without a final answer")

// Executor runs one tool call and returns its text result.
type Executor interface {
	Definitions() []llm.ToolDefinition
	Call(ctx context.Context, name, args string) (result string, failed bool)
}

// Observer is told about every tool call the agent makes.
type Observer interface {
	ToolCall(call llm.ToolCall)
	ToolResult(call llm.ToolCall, result string, failed bool)
}

type Config struct {
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	// MaxSteps bounds the number of tool-calling rounds. Values below 1 mean 1.
	MaxSteps int
	Logger   *slog.Logger
}

type Agent struct {
	provider llm.Provider
	tools    Executor
	cfg      Config
}

func New(provider llm.Provider, tools Executor, cfg Config) *Agent {
	if cfg.MaxSteps < 1 {
		cfg.MaxSteps = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Agent{provider: provider, tools: tools, cfg: cfg}
}

// Result is the outcome of one Run.
type Result struct {
	Reply string
	// Messages is history plus everything added during the run, for the next turn.
	Messages []llm.Message
	// Steps counts completion calls.
	Steps int
}

// Run appends prompt to history and loops until the model answers without
// calling tools. obs may be nil.
func (a *Agent) Run(ctx context.Context, history []llm.Message, prompt string, obs Observer) (*Result, error) {
	messages := append(append([]llm.Message(nil), history...), llm.Message{Role: llm.RoleUser, Content: prompt})
	defs := a.tools.Definitions()

	for step := 1; step <= a.cfg.MaxSteps+1; step++ {
		req := llm.CompletionRequest{
			Messages:     messages,
			SystemPrompt: a.cfg.SystemPrompt,
			Temperature:  a.cfg.Temperature,
			MaxTokens:    a.cfg.MaxTokens,
		}
		// The last round withholds tools to force an answer.
		final := step > a.cfg.MaxSteps
		if !final {
			req.Tools = defs
		}

		resp, err := a.provider.Complete(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("agent: step %d: %w", step, err)
		}
		a.cfg.Logger.Debug("agent step", "step", step, "tool_calls", len(resp.ToolCalls), "tokens", resp.Usage.TotalTokens)

		if len(resp.ToolCalls) == 0 || final {
			if final && resp.Content == "" {
				return nil, ErrMaxSteps
			}
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
			return &Result{Reply: resp.Content, Messages: messages, Steps: step}, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if obs != nil {
				obs.ToolCall(call)
			}
			out, failed := a.tools.Call(ctx, call.Name, call.Arguments)
			if obs != nil {
				obs.ToolResult(call, out, failed)
			}
			messages = append(messages, llm.Message{Role: llm.RoleTool, Content: out, ToolCallID: call.ID})
		}
	}
	return nil, ErrMaxSteps
}
