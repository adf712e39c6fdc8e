package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_profile/internal/config"
	"energy_profile/internal/observe"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level config.LogLevel
		want  slog.Level
	}{
		{config.LogDebug, slog.LevelDebug},
		{config.LogInfo, slog.LevelInfo},
		{config.LogWarn, slog.LevelWarn},
		{config.LogError, slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			l := NewLogger(tt.level)
			assert.True(t, l.Enabled(context.Background(), tt.want))
			assert.False(t, l.Enabled(context.Background(), tt.want-1))
		})
	}
}

func TestPVDefaults(t *testing.T) {
	cfg := config.Default().PVGIS
	req := PVDefaults(cfg)
	assert.Equal(t, 0.5, req.ModulePower)
	assert.Equal(t, 15.0, req.Loss)
	assert.Equal(t, 2023, req.Year)
	assert.Equal(t, "PVGIS-ERA5", req.RadDatabase)
	assert.Equal(t, "free", req.MountingPlace)
}

func TestNewToolSet(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.BaseDir = t.TempDir()

	set, err := NewToolSet(cfg, observe.New(), slog.Default())
	require.NoError(t, err)
	names := make([]string, 0)
	for _, d := range set.Definitions() {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "read_csv")
	assert.Contains(t, names, "calculate_pv_output")
}

func TestNewAgent_MissingKey(t *testing.T) {
	cfg := config.Default().LLM
	cfg.APIKeyEnv = "ENERGY_PROFILE_TEST_UNSET_KEY"
	os.Unsetenv(cfg.APIKeyEnv)

	set, err := NewToolSet(config.Default(), nil, slog.Default())
	require.NoError(t, err)

	_, err = NewAgent(cfg, set, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENERGY_PROFILE_TEST_UNSET_KEY")
}

func TestNewAgent_WithKey(t *testing.T) {
	cfg := config.Default().LLM
	cfg.APIKeyEnv = "ENERGY_PROFILE_TEST_KEY"
	t.Setenv(cfg.APIKeyEnv, "hf_test")

	set, err := NewToolSet(config.Default(), nil, slog.Default())
	require.NoError(t, err)

	a, err := NewAgent(cfg, set, slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.LogDebug, cfg.LogLevel)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.LogInfo, cfg.LogLevel)
}
