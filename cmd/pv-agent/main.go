package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"energy_profile/internal/agent"
	"energy_profile/internal/app"
	"energy_profile/internal/llm"
)

const maxTraceLen = 400

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file")
	model := flag.String("model", "", "model name (overrides config)")
	maxSteps := flag.Int("max-steps", 0, "tool-calling rounds before forcing an answer (overrides config)")
	quiet := flag.Bool("quiet", false, "do not print the tool call trace")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <prompt>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		flag.Usage()
		return 2
	}

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *model != "" {
		cfg.LLM.Model = *model
	}
	if *maxSteps > 0 {
		cfg.LLM.MaxSteps = *maxSteps
	}
	logger := app.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	set, err := app.NewToolSet(cfg, nil, logger)
	if err != nil {
		logger.Error("building tools", "err", err)
		return 1
	}
	a, err := app.NewAgent(cfg.LLM, set, logger)
	if err != nil {
		logger.Error("building agent", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var obs agent.Observer
	if !*quiet {
		obs = &tracer{w: os.Stderr}
	}
	res, err := a.Run(ctx, nil, prompt, obs)
	if err != nil {
		logger.Error("agent run failed", "err", err)
		return 1
	}

	fmt.Println(res.Reply)
	logger.Debug("agent finished", "steps", res.Steps, "messages", len(res.Messages))
	return 0
}

// tracer prints each tool call and its result.
type tracer struct {
	w io.Writer
}

func (t *tracer) ToolCall(call llm.ToolCall) {
	fmt.Fprintf(t.w, "-> %s %s\n", call.Name, call.Arguments)
}

func (t *tracer) ToolResult(call llm.ToolCall, result string, failed bool) {
	status := "ok"
	if failed {
		status = "failed"
	}
	fmt.Fprintf(t.w, "<- %s (%s)\n%s\n", call.Name, status, truncate(result, maxTraceLen))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
