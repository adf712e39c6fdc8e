// Package tools is the catalogue of functions exposed to language models,
// both over MCP and through the built-in agent. Every handler takes a JSON
// argument object and returns text.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"energy_profile/internal/ingest"
	"energy_profile/internal/llm"
	"energy_profile/internal/observe"
	"energy_profile/internal/pvgis"
)

// Tool pairs a model-facing definition with its handler.
type Tool struct {
	Definition llm.ToolDefinition
	// Handler executes the tool with JSON-encoded args. It must be safe for
	// concurrent use.
	Handler func(ctx context.Context, args string) (string, error)
}

// Config wires the catalogue to its collaborators.
type Config struct {
	// BaseDir confines every file path argument.
	BaseDir string
	PVGIS   *pvgis.Client
	// PVDefaults supplies module power, losses, year, database and mounting
	// place when a call leaves them out.
	PVDefaults pvgis.Request
	// PVSavePath, when set, receives the raw JSON of calculate_pv_output calls.
	PVSavePath    string
	Schema        ingest.SchemaMode
	SkipMalformed bool
	Metrics       *observe.Metrics
	Logger        *slog.Logger
}

// Set is an immutable tool catalogue.
type Set struct {
	tools   map[string]Tool
	metrics *observe.Metrics
	logger  *slog.Logger
}

// New builds the full catalogue.
func New(cfg Config) (*Set, error) {
	base, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("tools: resolving base dir: %w", err)
	}
	cfg.BaseDir = base
	if cfg.PVGIS == nil {
		cfg.PVGIS = pvgis.NewClient()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Set{tools: make(map[string]Tool), metrics: cfg.Metrics, logger: cfg.Logger}
	for _, t := range []Tool{
		readCSVTool(cfg),
		aggregateCSVTool(cfg),
		prepareConsumptionTool(cfg),
		estimatePVTool(cfg),
		calculatePVTool(cfg),
	} {
		s.tools[t.Definition.Name] = t
	}
	return s, nil
}

// Tools returns the catalogue sorted by name.
func (s *Set) Tools() []Tool {
	out := make([]Tool, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Definition.Name < out[j].Definition.Name })
	return out
}

// Definitions returns the model-facing schemas sorted by name.
func (s *Set) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(s.tools))
	for _, t := range s.Tools() {
		defs = append(defs, t.Definition)
	}
	return defs
}

// Lookup finds a tool by name.
func (s *Set) Lookup(name string) (Tool, bool) {
	t, ok := s.tools[name]
	return t, ok
}

// Call runs a tool and always returns text for the model. Failures come back
// as "Error: ..." with failed set.
func (s *Set) Call(ctx context.Context, name, args string) (result string, failed bool) {
	t, ok := s.tools[name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", name), true
	}
	if args == "" {
		args = "{}"
	}

	start := time.Now()
	out, err := t.Handler(ctx, args)
	s.metrics.ToolCall(name, time.Since(start), err)
	if err != nil {
		s.logger.Warn("tool failed", "tool", name, "err", err)
		return "Error: " + err.Error(), true
	}
	s.logger.Debug("tool done", "tool", name, "elapsed", time.Since(start))
	return out, false
}

func decodeArgs(tool, args string, v any) error {
	if err := json.Unmarshal([]byte(args), v); err != nil {
		return fmt.Errorf("%s: invalid arguments: %w", tool, err)
	}
	return nil
}

func encodeResult(tool string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%s: encoding result: %w", tool, err)
	}
	return string(data), nil
}
