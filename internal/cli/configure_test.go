package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/toolplan/internal/config"
)

func TestConfigureCommand(t *testing.T) {
	t.Run("help text", func(t *testing.T) {
		out, err := runCLI(t, "configure", "--help")
		require.NoError(t, err)
		assert.Contains(t, out, "Write the effective configuration")
	})

	t.Run("saves and shows", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("HOME", dir)
		path := filepath.Join(dir, "conf", "toolplan.json")

		out, err := runCLI(t, "configure", "--config", path,
			"--provider", "openai", "--model", "gpt-4o-mini", "--api-key", "sk-test-123")
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration saved to: "+path)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.Model.Provider)
		assert.Equal(t, "gpt-4o-mini", cfg.Model.Model)

		out, err = runCLI(t, "configure", "--config", path, "--show")
		require.NoError(t, err)
		assert.Contains(t, out, "gpt-4o-mini")
		assert.Contains(t, out, "********")
		assert.NotContains(t, out, "sk-test-123")
	})

	t.Run("rejects bad API key", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("HOME", dir)

		_, err := runCLI(t, "configure", "--config", filepath.Join(dir, "toolplan.json"),
			"--provider", "anthropic", "--model", "some-model", "--api-key", "wrong")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}
