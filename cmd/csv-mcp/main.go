package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"energy_profile/internal/app"
	"energy_profile/internal/mcpserver"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file")
	baseDir := flag.String("base-dir", "", "directory the file tools may read and write (overrides config)")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *baseDir != "" {
		cfg.Tools.BaseDir = *baseDir
	}

	// stdout carries the protocol; logs stay on stderr.
	logger := app.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	set, err := app.NewToolSet(cfg, nil, logger)
	if err != nil {
		logger.Error("building tools", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("serving MCP over stdio", "tools", len(set.Tools()), "base_dir", cfg.Tools.BaseDir)
	if err := mcpserver.ServeStdio(ctx, mcpserver.New(set, version, logger)); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server stopped", "err", err)
		return 1
	}
	return 0
}
