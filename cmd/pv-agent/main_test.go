package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"energy_profile/internal/agent"
	"energy_profile/internal/llm"
)

var _ agent.Observer = (*tracer)(nil)

func TestTracer(t *testing.T) {
	var buf bytes.Buffer
	tr := &tracer{w: &buf}
	call := llm.ToolCall{ID: "1", Name: "estimate_pv_output", Arguments: `{"latitude":45}`}

	tr.ToolCall(call)
	tr.ToolResult(call, "Error: longitude is required", true)

	out := buf.String()
	assert.Contains(t, out, `-> estimate_pv_output {"latitude":45}`)
	assert.Contains(t, out, "<- estimate_pv_output (failed)")
	assert.Contains(t, out, "Error: longitude is required")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := strings.Repeat("x", 20)
	assert.Equal(t, strings.Repeat("x", 10)+"...", truncate(long, 10))
}
