package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the toolplan configuration file.
type Config struct {
	// Tool host listen address (toolplan serve)
	Host HostConfig `json:"host" mapstructure:"host"`

	// Remote tool endpoint used by plan and inline runs
	Endpoint EndpointConfig `json:"endpoint" mapstructure:"endpoint"`

	// Language model used for planning and inline turns
	Model ModelConfig `json:"model" mapstructure:"model"`

	Executor ExecutorConfig `json:"executor" mapstructure:"executor"`
	Inline   InlineConfig   `json:"inline" mapstructure:"inline"`
	Tools    ToolsConfig    `json:"tools" mapstructure:"tools"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
	History  HistoryConfig  `json:"history" mapstructure:"history"`

	// Optional YAML file overriding the planner/inline prompt templates
	PromptsFile string `json:"prompts_file" mapstructure:"prompts_file"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

type HostConfig struct {
	Host        string `json:"host" mapstructure:"host"`
	Port        int    `json:"port" mapstructure:"port"`
	ReadTimeout int    `json:"read_timeout" mapstructure:"read_timeout"` // seconds
	AuditLog    string `json:"audit_log" mapstructure:"audit_log"`
	RateLimit   int    `json:"rate_limit" mapstructure:"rate_limit"` // /execute requests per minute per client, 0 disables
}

// Addr returns host:port.
func (h HostConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

type EndpointConfig struct {
	URL     string `json:"url" mapstructure:"url"`
	Timeout int    `json:"timeout" mapstructure:"timeout"` // seconds, 0 means transport default
}

// TimeoutDuration converts Timeout to a time.Duration.
func (e EndpointConfig) TimeoutDuration() time.Duration {
	return time.Duration(e.Timeout) * time.Second
}

type ModelConfig struct {
	Provider    string  `json:"provider" mapstructure:"provider"` // openai, anthropic, gemini, ollama
	Model       string  `json:"model" mapstructure:"model"`
	BaseURL     string  `json:"base_url" mapstructure:"base_url"`
	APIKey      string  `json:"api_key" mapstructure:"api_key"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
}

type ExecutorConfig struct {
	FailurePolicy string `json:"failure_policy" mapstructure:"failure_policy"` // continue, abort
	StepKeys      bool   `json:"step_keys" mapstructure:"step_keys"`
}

type InlineConfig struct {
	MaxFormatErrors int `json:"max_format_errors" mapstructure:"max_format_errors"`
	MaxToolCalls    int `json:"max_tool_calls" mapstructure:"max_tool_calls"`
}

type ToolsConfig struct {
	WorkspaceRoot string `json:"workspace_root" mapstructure:"workspace_root"`
	SQLitePath    string `json:"sqlite_path" mapstructure:"sqlite_path"`
	EnableNetwork bool   `json:"enable_network" mapstructure:"enable_network"`
	HTTPTimeout   int    `json:"http_timeout" mapstructure:"http_timeout"` // seconds
	CallTimeout   int    `json:"call_timeout" mapstructure:"call_timeout"` // seconds

	// Tool categories left out of the registry (os, filesystem, text, math, network, database)
	DisabledCategories []string `json:"disabled_categories" mapstructure:"disabled_categories"`
}

type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

type HistoryConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		Host: HostConfig{
			Host:        "127.0.0.1",
			Port:        8000,
			ReadTimeout: 30,
			RateLimit:   600,
		},
		Endpoint: EndpointConfig{
			URL:     "http://127.0.0.1:8000",
			Timeout: 60,
		},
		Model: ModelConfig{
			Provider:    "ollama",
			Model:       "llama3",
			BaseURL:     "http://localhost:11434",
			Temperature: 0.2,
			MaxTokens:   2048,
		},
		Executor: ExecutorConfig{
			FailurePolicy: "continue",
			StepKeys:      true,
		},
		Inline: InlineConfig{
			MaxFormatErrors: 5,
			MaxToolCalls:    10,
		},
		Tools: ToolsConfig{
			SQLitePath:    "mcp_data.db",
			EnableNetwork: true,
			HTTPTimeout:   10,
			CallTimeout:   30,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			Redaction: true,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// String returns a JSON representation of the config.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	v := NewValidator()

	if err := v.ValidatePort(c.Host.Port); err != nil {
		return fmt.Errorf("host: %w", err)
	}
	if c.Host.RateLimit < 0 {
		return fmt.Errorf("host: rate_limit must not be negative, got %d", c.Host.RateLimit)
	}
	if err := v.ValidateURL(c.Endpoint.URL); err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	if c.Endpoint.Timeout < 0 {
		return fmt.Errorf("endpoint: timeout must not be negative, got %d", c.Endpoint.Timeout)
	}
	if err := v.ValidateProvider(c.Model.Provider); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if c.Model.Model == "" {
		return fmt.Errorf("model: model name is required")
	}
	if err := v.ValidateTemperature(c.Model.Temperature); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := v.ValidateMaxTokens(c.Model.MaxTokens); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := v.ValidateFailurePolicy(c.Executor.FailurePolicy); err != nil {
		return fmt.Errorf("executor: %w", err)
	}
	if c.Inline.MaxFormatErrors <= 0 {
		return fmt.Errorf("inline: max_format_errors must be positive, got %d", c.Inline.MaxFormatErrors)
	}
	if c.Inline.MaxToolCalls <= 0 {
		return fmt.Errorf("inline: max_tool_calls must be positive, got %d", c.Inline.MaxToolCalls)
	}
	if err := v.ValidateCategories(c.Tools.DisabledCategories); err != nil {
		return fmt.Errorf("tools: %w", err)
	}
	if err := v.ValidateLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}
