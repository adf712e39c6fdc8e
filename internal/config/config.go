// Package config loads the YAML settings shared by every command.
package config

import (
	"time"

	"energy_profile/internal/ingest"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

type Config struct {
	LogLevel    LogLevel          `yaml:"log_level"`
	Consumption ConsumptionConfig `yaml:"consumption"`
	PVGIS       PVGISConfig       `yaml:"pvgis"`
	LLM         LLMConfig         `yaml:"llm"`
	Tools       ToolsConfig       `yaml:"tools"`
	Chat        ChatConfig        `yaml:"chat"`
}

// ConsumptionConfig locates meter exports and the prepared output.
type ConsumptionConfig struct {
	InputDir   string            `yaml:"input_dir"`
	OutputPath string            `yaml:"output_path"`
	XLSXPath   string            `yaml:"xlsx_path"`
	SchemaMode ingest.SchemaMode `yaml:"schema_mode"`
	// SkipMalformed drops rows whose timestamp cannot be parsed instead of failing.
	SkipMalformed bool `yaml:"skip_malformed"`
}

type PVGISConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	RadDatabase   string        `yaml:"raddatabase"`
	Year          int           `yaml:"year"`
	ModulePower   float64       `yaml:"module_power"`
	SystemLosses  float64       `yaml:"system_losses"`
	MountingPlace string        `yaml:"mounting_place"`
	// SavePath, when set, receives the raw JSON of every response.
	SavePath string `yaml:"save_path"`
}

// LLMConfig points at an OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	APIKeyEnv    string        `yaml:"api_key_env"`
	Temperature  float64       `yaml:"temperature"`
	MaxTokens    int           `yaml:"max_tokens"`
	MaxSteps     int           `yaml:"max_steps"`
	Timeout      time.Duration `yaml:"timeout"`
	SystemPrompt string        `yaml:"system_prompt"`
}

// ToolsConfig bounds what the file tools may touch.
type ToolsConfig struct {
	BaseDir string `yaml:"base_dir"`
}

type ChatConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

const defaultSystemPrompt = "You are an energy analyst. Use the available tools to read consumption " +
	"files and estimate photovoltaic production. Answer concisely and state units."

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Consumption: ConsumptionConfig{
			InputDir:   "data/consumption",
			OutputPath: "data/output.csv",
			SchemaMode: ingest.SchemaLenient,
		},
		PVGIS: PVGISConfig{
			BaseURL:       "https://re.jrc.ec.europa.eu/api",
			Timeout:       60 * time.Second,
			RadDatabase:   "PVGIS-ERA5",
			Year:          2023,
			ModulePower:   0.5,
			SystemLosses:  15,
			MountingPlace: "free",
		},
		LLM: LLMConfig{
			BaseURL:      "https://router.huggingface.co/v1",
			Model:        "Qwen/Qwen2.5-72B-Instruct",
			APIKeyEnv:    "HUGGINGFACEHUB_API_TOKEN",
			Temperature:  0.1,
			MaxTokens:    512,
			MaxSteps:     5,
			Timeout:      120 * time.Second,
			SystemPrompt: defaultSystemPrompt,
		},
		Tools: ToolsConfig{BaseDir: "."},
		Chat:  ChatConfig{ListenAddr: ":7860"},
	}
}
