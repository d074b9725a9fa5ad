package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderLoad(t *testing.T) {
	t.Run("defaults when file is missing", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := NewLoader(filepath.Join(dir, "missing.json")).Load()

		require.NoError(t, err)
		assert.Equal(t, "ollama", cfg.Model.Provider)
		assert.NotEmpty(t, cfg.DataDir)
		assert.Equal(t, filepath.Join(cfg.DataDir, "runs.db"), cfg.History.Path)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "toolplan.json")
		content := `{
			"endpoint": {"url": "http://tools.internal:9000"},
			"model": {"provider": "anthropic", "model": "claude-sonnet-4"},
			"executor": {"failure_policy": "abort"},
			"data_dir": "` + filepath.ToSlash(dir) + `"
		}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := NewLoader(path).Load()
		require.NoError(t, err)
		assert.Equal(t, "http://tools.internal:9000", cfg.Endpoint.URL)
		assert.Equal(t, "anthropic", cfg.Model.Provider)
		assert.Equal(t, "claude-sonnet-4", cfg.Model.Model)
		assert.Equal(t, "abort", cfg.Executor.FailurePolicy)
		// untouched sections keep defaults
		assert.Equal(t, 10, cfg.Inline.MaxToolCalls)
		assert.Equal(t, filepath.Join(filepath.ToSlash(dir), "runs.db"), cfg.History.Path)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("TOOLPLAN_MODEL_API_KEY", "sk-from-env")
		t.Setenv("TOOLPLAN_ENDPOINT_URL", "http://env-host:1234")

		cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.json")).Load()
		require.NoError(t, err)
		assert.Equal(t, "sk-from-env", cfg.Model.APIKey)
		assert.Equal(t, "http://env-host:1234", cfg.Endpoint.URL)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := NewLoader(path).Load()
		assert.Error(t, err)
	})
}

func TestLoaderSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "toolplan.json")
	loader := NewLoader(path)

	cfg := DefaultConfig()
	cfg.Model.Provider = "gemini"
	cfg.Model.Model = "gemini-2.0-flash"
	cfg.Inline.MaxToolCalls = 7
	require.NoError(t, loader.Save(cfg))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", loaded.Model.Provider)
	assert.Equal(t, "gemini-2.0-flash", loaded.Model.Model)
	assert.Equal(t, 7, loaded.Inline.MaxToolCalls)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/toolplan.json", NewLoader("/etc/toolplan.json").GetConfigPath())
	assert.Contains(t, NewLoader("").GetConfigPath(), filepath.Join(".toolplan", "toolplan.json"))
}
