// Package app wires configuration into the components the commands share.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"energy_profile/internal/agent"
	"energy_profile/internal/config"
	"energy_profile/internal/llm/openai"
	"energy_profile/internal/observe"
	"energy_profile/internal/pvgis"
	"energy_profile/internal/tools"
)

// NewLogger builds a text logger on stderr at the given level.
func NewLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// LoadConfig reads .env from the working directory, then the YAML file at
// path (or the defaults when path is empty).
func LoadConfig(path string) (*config.Config, error) {
	if err := config.LoadEnv(".env"); err != nil {
		return nil, err
	}
	return config.LoadOrDefault(path)
}

// NewPVGIS builds a PVGIS client from cfg.
func NewPVGIS(cfg config.PVGISConfig, metrics *observe.Metrics, logger *slog.Logger) *pvgis.Client {
	return pvgis.NewClient(
		pvgis.WithBaseURL(cfg.BaseURL),
		pvgis.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		pvgis.WithLogger(logger),
		pvgis.WithMetrics(metrics),
	)
}

// PVDefaults turns the configured system parameters into request defaults.
func PVDefaults(cfg config.PVGISConfig) pvgis.Request {
	return pvgis.Request{
		ModulePower:   cfg.ModulePower,
		Loss:          cfg.SystemLosses,
		Year:          cfg.Year,
		RadDatabase:   cfg.RadDatabase,
		MountingPlace: cfg.MountingPlace,
	}
}

// NewToolSet builds the tool catalogue from cfg.
func NewToolSet(cfg *config.Config, metrics *observe.Metrics, logger *slog.Logger) (*tools.Set, error) {
	set, err := tools.New(tools.Config{
		BaseDir:       cfg.Tools.BaseDir,
		PVGIS:         NewPVGIS(cfg.PVGIS, metrics, logger),
		PVDefaults:    PVDefaults(cfg.PVGIS),
		PVSavePath:    cfg.PVGIS.SavePath,
		Schema:        cfg.Consumption.SchemaMode,
		SkipMalformed: cfg.Consumption.SkipMalformed,
		Metrics:       metrics,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building tools: %w", err)
	}
	return set, nil
}

// NewAgent builds an agent backed by the configured OpenAI-compatible endpoint.
// The API key is read from the environment variable named in cfg.
func NewAgent(cfg config.LLMConfig, set agent.Executor, logger *slog.Logger) (*agent.Agent, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("environment variable %s is not set", cfg.APIKeyEnv)
	}
	provider, err := openai.New(key, cfg.Model,
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, err
	}
	return agent.New(provider, set, agent.Config{
		SystemPrompt: cfg.SystemPrompt,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		MaxSteps:     cfg.MaxSteps,
		Logger:       logger,
	}), nil
}
