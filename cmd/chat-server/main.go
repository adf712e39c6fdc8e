package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"energy_profile/internal/app"
	"energy_profile/internal/observe"
	"energy_profile/internal/ws"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	frontendDir := flag.String("frontend-dir", "", "directory of static files to serve at /")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *addr != "" {
		cfg.Chat.ListenAddr = *addr
	}
	logger := app.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	metrics := observe.New()
	set, err := app.NewToolSet(cfg, metrics, logger)
	if err != nil {
		logger.Error("building tools", "err", err)
		return 1
	}
	a, err := app.NewAgent(cfg.LLM, set, logger)
	if err != nil {
		logger.Error("building agent", "err", err)
		return 1
	}

	hub := ws.NewHub(logger, metrics)
	handler := ws.NewHandler(hub, a, set.Definitions())

	srv := &http.Server{
		Addr:              cfg.Chat.ListenAddr,
		Handler:           newMux(handler, metrics, *frontendDir, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting chat server", "addr", cfg.Chat.ListenAddr, "model", cfg.LLM.Model)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
			return 1
		}
	}
	return 0
}

func newMux(chat http.Handler, metrics *observe.Metrics, frontendDir string, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("/ws", chat)

	if frontendDir != "" {
		if _, err := os.Stat(frontendDir); err == nil {
			logger.Info("serving frontend", "dir", frontendDir)
			mux.Handle("/", http.FileServer(http.Dir(frontendDir)))
		} else {
			logger.Warn("frontend directory not found", "dir", frontendDir)
		}
	}
	return mux
}
