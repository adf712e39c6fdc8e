package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path on top of Default and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over Default. An empty document yields
// the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it is non-empty, otherwise returns Default.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate returns a joined error listing every invalid field.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if !cfg.Consumption.SchemaMode.IsValid() {
		errs = append(errs, fmt.Errorf("consumption.schema_mode %q is invalid; valid values: lenient, strict", cfg.Consumption.SchemaMode))
	}
	if cfg.Consumption.OutputPath == "" {
		errs = append(errs, errors.New("consumption.output_path is required"))
	}
	if cfg.PVGIS.BaseURL == "" {
		errs = append(errs, errors.New("pvgis.base_url is required"))
	}
	if cfg.PVGIS.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("pvgis.timeout must be positive, got %s", cfg.PVGIS.Timeout))
	}
	if cfg.PVGIS.ModulePower <= 0 {
		errs = append(errs, fmt.Errorf("pvgis.module_power must be positive, got %g", cfg.PVGIS.ModulePower))
	}
	if cfg.PVGIS.SystemLosses < 0 || cfg.PVGIS.SystemLosses >= 100 {
		errs = append(errs, fmt.Errorf("pvgis.system_losses must be in [0, 100), got %g", cfg.PVGIS.SystemLosses))
	}
	if cfg.LLM.MaxSteps < 1 {
		errs = append(errs, fmt.Errorf("llm.max_steps must be at least 1, got %d", cfg.LLM.MaxSteps))
	}
	if cfg.LLM.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must not be negative, got %d", cfg.LLM.MaxTokens))
	}
	if cfg.Tools.BaseDir == "" {
		errs = append(errs, errors.New("tools.base_dir is required"))
	}

	return errors.Join(errs...)
}

// LoadEnv loads variables from the given .env files without overriding
// variables already set. Missing files are skipped.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: load env %q: %w", p, err)
		}
	}
	return nil
}

// APIKey returns the LLM key from the configured environment variable.
func (c *LLMConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}
