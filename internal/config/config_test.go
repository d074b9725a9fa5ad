package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "continue", cfg.Executor.FailurePolicy)
	assert.Equal(t, 5, cfg.Inline.MaxFormatErrors)
	assert.Equal(t, 10, cfg.Inline.MaxToolCalls)
	assert.Equal(t, "127.0.0.1:8000", cfg.Host.Addr())
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Model.Provider = "bard" },
			wantErr: "invalid provider",
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.Model.Model = "" },
			wantErr: "model name is required",
		},
		{
			name:    "unknown failure policy",
			mutate:  func(c *Config) { c.Executor.FailurePolicy = "retry" },
			wantErr: "invalid failure policy",
		},
		{
			name:    "zero format error budget",
			mutate:  func(c *Config) { c.Inline.MaxFormatErrors = 0 },
			wantErr: "max_format_errors",
		},
		{
			name:    "negative tool call budget",
			mutate:  func(c *Config) { c.Inline.MaxToolCalls = -1 },
			wantErr: "max_tool_calls",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Host.Port = 70000 },
			wantErr: "invalid port",
		},
		{
			name:    "endpoint without scheme",
			mutate:  func(c *Config) { c.Endpoint.URL = "localhost:8000" },
			wantErr: "endpoint",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigString(t *testing.T) {
	s := DefaultConfig().String()
	assert.True(t, strings.HasPrefix(s, "{"))
	assert.Contains(t, s, `"failure_policy": "continue"`)
}
